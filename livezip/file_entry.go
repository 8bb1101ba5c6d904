package livezip

import (
	"path"
	"time"
)

// FileEntry is one archive member: a named path bundling a Storage method,
// a DataStream factory, and the pre-computed sizes/CRC32 the caller must
// already know before encoding begins.
type FileEntry struct {
	// Path is the archive-internal name: UTF-8, forward-slash separated,
	// no leading slash.
	Path string

	// Storage describes how this entry's bytes are wrapped on the wire.
	Storage Storage

	// Open yields a fresh DataStream for this entry. Called exactly once,
	// when the entry's turn to stream arrives.
	Open StreamFactory

	// UncompressedSize is the size of the original content in bytes.
	UncompressedSize uint64

	// CompressedSize is the exact number of bytes Storage.Wrap will emit
	// for this entry; for Stored it must equal UncompressedSize.
	CompressedSize uint64

	// CRC32 is the IEEE CRC32 (initial 0xFFFFFFFF, final XOR 0xFFFFFFFF)
	// of the uncompressed content, supplied by the caller and written
	// verbatim.
	CRC32 uint32

	// ModTime is the entry's last-modified time. The zero value defaults
	// to the DOS epoch (1980-01-01 00:00:00).
	ModTime time.Time
}

// NewFileEntry validates and cleans path and constructs a FileEntry. The
// sizes and CRC32 are stored as given; they are not checked.
func NewFileEntry(p string, storage Storage, open StreamFactory, uncompressedSize, compressedSize uint64, crc32 uint32, modTime time.Time) (*FileEntry, error) {
	clean := path.Clean(p)

	if path.IsAbs(clean) {
		return nil, &InvalidPathError{Path: p, Reason: "must be relative, not absolute"}
	}

	if base := path.Base(clean); base == "" || base == "." {
		return nil, &InvalidPathError{Path: p, Reason: "must name a file"}
	}

	if n := len([]byte(clean)); n > 0xFFFF {
		return nil, &NameTooLongError{Path: p, Length: n}
	}

	return &FileEntry{
		Path:             clean,
		Storage:          storage,
		Open:             open,
		UncompressedSize: uncompressedSize,
		CompressedSize:   compressedSize,
		CRC32:            crc32,
		ModTime:          modTime,
	}, nil
}
