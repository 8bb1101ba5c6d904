package livezip

import (
	"encoding/binary"
	"testing"
)

func TestLocalHeaderLen(t *testing.T) {
	if got := localHeaderLen(5); got != 55 {
		t.Errorf("localHeaderLen(5) = %d, want 55", got)
	}
}

func TestCentralHeaderLen(t *testing.T) {
	if got := centralHeaderLen(5); got != 79 {
		t.Errorf("centralHeaderLen(5) = %d, want 79", got)
	}
}

func TestBuildLocalFileHeaderLength(t *testing.T) {
	e := &FileEntry{
		Path:             "a.txt",
		Storage:          Stored{},
		UncompressedSize: 5,
		CompressedSize:   5,
		CRC32:            0x3610A686,
	}

	out := buildLocalFileHeader(e)
	if len(out) != localHeaderLen(len(e.Path)) {
		t.Fatalf("len = %d, want %d", len(out), localHeaderLen(len(e.Path)))
	}

	if sig := binary.LittleEndian.Uint32(out[0:4]); sig != sigLocalFileHeader {
		t.Errorf("signature = %#x, want %#x", sig, sigLocalFileHeader)
	}
	if flags := binary.LittleEndian.Uint16(out[6:8]); flags != gpUTF8 {
		t.Errorf("flags = %#x, want %#x (UTF-8 only, no streaming bit)", flags, gpUTF8)
	}
	if crc := binary.LittleEndian.Uint32(out[14:18]); crc != e.CRC32 {
		t.Errorf("crc = %#x, want %#x", crc, e.CRC32)
	}
	if cs := binary.LittleEndian.Uint32(out[18:22]); cs != sentinel32 {
		t.Errorf("compressed_size field = %#x, want sentinel", cs)
	}
}

func TestBuildCentralDirectoryHeaderSentinels(t *testing.T) {
	e := &FileEntry{
		Path:             "big.bin",
		Storage:          Stored{},
		UncompressedSize: 5_000_000_000,
		CompressedSize:   5_000_000_000,
		CRC32:            0xDEADBEEF,
	}

	out := buildCentralDirectoryHeader(e, 123456789012)
	if len(out) != centralHeaderLen(len(e.Path)) {
		t.Fatalf("len = %d, want %d", len(out), centralHeaderLen(len(e.Path)))
	}

	if off := binary.LittleEndian.Uint32(out[42:46]); off != sentinel32 {
		t.Errorf("local_header_offset field = %#x, want sentinel", off)
	}

	nameLen := len(e.Path)
	extra := out[46+nameLen:]
	if id := binary.LittleEndian.Uint16(extra[0:2]); id != zip64ExtraID {
		t.Errorf("extra id = %#x, want %#x", id, zip64ExtraID)
	}
	if size := binary.LittleEndian.Uint16(extra[2:4]); size != 24 {
		t.Errorf("extra data size = %d, want 24", size)
	}
	gotOffset := binary.LittleEndian.Uint64(extra[20:28])
	if gotOffset != 123456789012 {
		t.Errorf("zip64 extra offset = %d, want 123456789012", gotOffset)
	}
}

func TestBuildEOCDIsAllSentinels(t *testing.T) {
	out := buildEOCD()
	if len(out) != 22 {
		t.Fatalf("len = %d, want 22", len(out))
	}
	if sig := binary.LittleEndian.Uint32(out[0:4]); sig != sigEOCD {
		t.Errorf("signature = %#x, want %#x", sig, sigEOCD)
	}
	if entries := binary.LittleEndian.Uint16(out[10:12]); entries != sentinel16 {
		t.Errorf("total_cd_entries = %#x, want sentinel16", entries)
	}
	if size := binary.LittleEndian.Uint32(out[12:16]); size != sentinel32 {
		t.Errorf("cd_size = %#x, want sentinel32", size)
	}
}

func TestBuildZip64EOCDRecord(t *testing.T) {
	out := buildZip64EOCDRecord(3, 500, 1000)
	if len(out) != 56 {
		t.Fatalf("len = %d, want 56", len(out))
	}
	if sig := binary.LittleEndian.Uint32(out[0:4]); sig != sigZip64EOCDRecord {
		t.Errorf("signature = %#x, want %#x", sig, sigZip64EOCDRecord)
	}
	if size := binary.LittleEndian.Uint64(out[4:12]); size != 44 {
		t.Errorf("size_of_zip64_eocd = %d, want 44", size)
	}
	if entries := binary.LittleEndian.Uint64(out[32:40]); entries != 3 {
		t.Errorf("total_entries = %d, want 3", entries)
	}
	if cdOffset := binary.LittleEndian.Uint64(out[48:56]); cdOffset != 1000 {
		t.Errorf("cd_offset = %d, want 1000", cdOffset)
	}
}

func TestBuildZip64EOCDLocator(t *testing.T) {
	out := buildZip64EOCDLocator(9999)
	if len(out) != 20 {
		t.Fatalf("len = %d, want 20", len(out))
	}
	if sig := binary.LittleEndian.Uint32(out[0:4]); sig != sigZip64EOCDLocator {
		t.Errorf("signature = %#x, want %#x", sig, sigZip64EOCDLocator)
	}
	if off := binary.LittleEndian.Uint64(out[8:16]); off != 9999 {
		t.Errorf("eocd64 offset = %d, want 9999", off)
	}
}
