package livezip

import (
	"bytes"
	"io"
	"testing"
)

func TestStoredWireLength(t *testing.T) {
	s := Stored{}
	for _, n := range []uint64{0, 1, 5000, 1 << 40} {
		if got := s.WireLength(n); got != n {
			t.Errorf("WireLength(%d) = %d, want %d", n, got, n)
		}
	}
}

func TestStoredWrapIsIdentity(t *testing.T) {
	content := []byte("hello, world")
	s := Stored{}
	r := s.Wrap(bytes.NewReader(content), uint64(len(content)))

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Wrap output = %q, want %q", got, content)
	}
}

func TestDeflatedWireLength(t *testing.T) {
	cases := []struct {
		n    uint64
		want uint64
	}{
		{0, 5},
		{1, 6},
		{5, 10},
		{65535, 65535 + 5},
		{65536, 65536 + 10},
		{131070, 131070 + 10}, // two full 65535 blocks
		{131071, 131071 + 15}, // two full blocks + one byte
	}

	for _, c := range cases {
		if got := (Deflated{}).WireLength(c.n); got != c.want {
			t.Errorf("WireLength(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestDeflatedWrapMatchesWireLength(t *testing.T) {
	for _, n := range []int{0, 1, 5, 65535, 65536, 131070, 131071} {
		content := bytes.Repeat([]byte{0xAB}, n)
		d := Deflated{}

		wrapped := d.Wrap(bytes.NewReader(content), uint64(n))
		out, err := io.ReadAll(wrapped)
		if err != nil {
			t.Fatalf("n=%d: ReadAll: %v", n, err)
		}

		want := d.WireLength(uint64(n))
		if uint64(len(out)) != want {
			t.Errorf("n=%d: wrapped length = %d, want %d", n, len(out), want)
		}
	}
}

func TestDeflatedEmptyFileIsOneFinalBlock(t *testing.T) {
	d := Deflated{}
	out, err := io.ReadAll(d.Wrap(bytes.NewReader(nil), 0))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	want := []byte{0x01, 0x00, 0x00, 0xFF, 0xFF}
	if !bytes.Equal(out, want) {
		t.Errorf("empty-file block = % X, want % X", out, want)
	}
}

func TestDeflatedHelloMatchesSpecExample(t *testing.T) {
	d := Deflated{}
	content := []byte("hello")
	out, err := io.ReadAll(d.Wrap(bytes.NewReader(content), uint64(len(content))))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	want := []byte{0x01, 0x05, 0x00, 0xFA, 0xFF, 'h', 'e', 'l', 'l', 'o'}
	if !bytes.Equal(out, want) {
		t.Errorf("got % X, want % X", out, want)
	}
}

func TestDeflatedSixtyFiveThousandFiveThirtyFiveBoundary(t *testing.T) {
	// spec.md's conventional chunking rule puts the whole 65535-byte file
	// in a single final block (ceil(65535/65535) == 1), not two blocks;
	// see DESIGN.md's note on this boundary.
	d := Deflated{}
	content := bytes.Repeat([]byte{0x42}, 65535)
	out, err := io.ReadAll(d.Wrap(bytes.NewReader(content), uint64(len(content))))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	if len(out) != 65535+5 {
		t.Fatalf("len(out) = %d, want %d", len(out), 65535+5)
	}
	if out[0] != 0x01 {
		t.Errorf("expected a single BFINAL block, header byte = %#x", out[0])
	}
}
