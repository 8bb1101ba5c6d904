package livezip

import (
	"bytes"
	"encoding/binary"
)

// Record signatures, little-endian on the wire.
const (
	sigLocalFileHeader  uint32 = 0x04034B50
	sigCentralDirectory uint32 = 0x02014B50
	sigZip64EOCDRecord  uint32 = 0x06064B50
	sigZip64EOCDLocator uint32 = 0x07064B50
	sigEOCD             uint32 = 0x06054B50
)

const (
	versionNeeded uint16 = 45
	versionMadeBy uint16 = 45 // host 0 (FAT), version 45 -> low byte only matters here

	gpUTF8 uint16 = 1 << 11 // bit 11: filename/comment are UTF-8

	zip64ExtraID uint16 = 0x0001

	sentinel32 uint32 = 0xFFFFFFFF
	sentinel16 uint16 = 0xFFFF
)

// localHeaderLen returns the exact byte length of a local file header for
// a name of nameLen bytes: 30 fixed bytes + name + a 20-byte ZIP64 extra
// (4-byte extra header + 16 bytes of two uint64 fields).
func localHeaderLen(nameLen int) int {
	return 30 + nameLen + 20
}

// centralHeaderLen returns the exact byte length of a central directory
// header for a name of nameLen bytes: 46 fixed bytes + name + a 28-byte
// ZIP64 extra (4-byte extra header + 24 bytes of three uint64 fields).
func centralHeaderLen(nameLen int) int {
	return 46 + nameLen + 28
}

// buildLocalFileHeader encodes the LFH for e, including its always-present
// ZIP64 extra field, per spec.md §4.1.
func buildLocalFileHeader(e *FileEntry) []byte {
	name := []byte(e.Path)
	dosTime, dosDate := dosDateTime(e.ModTime)

	buf := new(bytes.Buffer)
	buf.Grow(localHeaderLen(len(name)))

	write(buf, sigLocalFileHeader)
	write(buf, versionNeeded)
	write(buf, gpUTF8)
	write(buf, e.Storage.Method())
	write(buf, dosTime)
	write(buf, dosDate)
	write(buf, e.CRC32)
	write(buf, sentinel32) // compressed_size, real value in ZIP64 extra
	write(buf, sentinel32) // uncompressed_size, real value in ZIP64 extra
	write(buf, uint16(len(name)))
	write(buf, uint16(20)) // extra_len

	buf.Write(name)

	write(buf, zip64ExtraID)
	write(buf, uint16(16)) // data size: two uint64 fields
	write(buf, e.UncompressedSize)
	write(buf, e.CompressedSize)

	return buf.Bytes()
}

// buildCentralDirectoryHeader encodes the CDH for e at the given local
// header offset, including its always-present ZIP64 extra field.
func buildCentralDirectoryHeader(e *FileEntry, offset uint64) []byte {
	name := []byte(e.Path)
	dosTime, dosDate := dosDateTime(e.ModTime)

	buf := new(bytes.Buffer)
	buf.Grow(centralHeaderLen(len(name)))

	write(buf, sigCentralDirectory)
	write(buf, versionMadeBy)
	write(buf, versionNeeded)
	write(buf, gpUTF8)
	write(buf, e.Storage.Method())
	write(buf, dosTime)
	write(buf, dosDate)
	write(buf, e.CRC32)
	write(buf, sentinel32) // compressed_size
	write(buf, sentinel32) // uncompressed_size
	write(buf, uint16(len(name)))
	write(buf, uint16(28)) // extra_len
	write(buf, uint16(0))  // comment_len
	write(buf, uint16(0))  // disk_start
	write(buf, uint16(0))  // internal_attrs
	write(buf, uint32(0))  // external_attrs
	write(buf, sentinel32) // local_header_offset

	buf.Write(name)

	write(buf, zip64ExtraID)
	write(buf, uint16(24)) // data size: three uint64 fields
	write(buf, e.UncompressedSize)
	write(buf, e.CompressedSize)
	write(buf, offset)

	return buf.Bytes()
}

// buildZip64EOCDRecord encodes the ZIP64 end-of-central-directory record.
func buildZip64EOCDRecord(numEntries, cdSize, cdOffset uint64) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(56)

	write(buf, sigZip64EOCDRecord)
	write(buf, uint64(44)) // size_of_zip64_eocd, fixed
	write(buf, versionMadeBy)
	write(buf, versionNeeded)
	write(buf, uint32(0)) // disk
	write(buf, uint32(0)) // cd_disk
	write(buf, numEntries)
	write(buf, numEntries)
	write(buf, cdSize)
	write(buf, cdOffset)

	return buf.Bytes()
}

// buildZip64EOCDLocator encodes the locator pointing at the ZIP64 EOCD
// record.
func buildZip64EOCDLocator(eocd64Offset uint64) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(20)

	write(buf, sigZip64EOCDLocator)
	write(buf, uint32(0)) // eocd64_disk
	write(buf, eocd64Offset)
	write(buf, uint32(1)) // total_disks

	return buf.Bytes()
}

// buildEOCD encodes the classic end-of-central-directory record, entirely
// in sentinels since the real values live in the ZIP64 records.
func buildEOCD() []byte {
	buf := new(bytes.Buffer)
	buf.Grow(22)

	write(buf, sigEOCD)
	write(buf, uint16(0)) // disk
	write(buf, uint16(0)) // cd_disk
	write(buf, sentinel16)
	write(buf, sentinel16)
	write(buf, sentinel32)
	write(buf, sentinel32)
	write(buf, uint16(0)) // comment_len

	return buf.Bytes()
}

// write panics on error, which binary.Write against a bytes.Buffer never
// produces for the fixed-width types used throughout this file.
func write(buf *bytes.Buffer, v interface{}) {
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
}
