package livezip

import "time"

// dosEpoch is the minimum representable MS-DOS date/time (1980-01-01
// 00:00:00), used as the default modification time and as the lower clamp
// bound.
var dosEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// dosEnd is the maximum representable MS-DOS date/time (2099-12-31
// 23:59:59).
var dosEnd = time.Date(2099, time.December, 31, 23, 59, 59, 0, time.UTC)

// dosDateTime packs a time.Time into the two 16-bit fields the ZIP format
// expects, clamping to the representable DOS range and truncating seconds
// to 2-second granularity.
func dosDateTime(t time.Time) (dosTime, dosDate uint16) {
	if t.IsZero() {
		t = dosEpoch
	}

	t = t.UTC()
	if t.Before(dosEpoch) {
		t = dosEpoch
	}
	if t.After(dosEnd) {
		t = dosEnd
	}

	dosDate = uint16((t.Year()-1980)<<9 | int(t.Month())<<5 | t.Day())
	dosTime = uint16(t.Hour()<<11 | t.Minute()<<5 | t.Second()/2)

	return dosTime, dosDate
}
