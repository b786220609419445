package vector

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// On-disk layout of a .kvec file (little-endian):
//
//	magic "KVEC" | version u16 | reserved u16 | dim u32 | count u32 | keysLen u64
//	keys: count * (len u32 | bytes)
//	zero padding to a 4-byte boundary
//	rows: count * dim float32
const (
	kvecHeaderSize        = 24
	kvecVersion    uint16 = 1
)

var kvecMagic = [4]byte{'K', 'V', 'E', 'C'}

// ErrBadFormat is returned for files that are not valid .kvec tables.
var ErrBadFormat = errors.New("invalid kvec file")

type kvecHeader struct {
	Magic    [4]byte
	Version  uint16
	Reserved uint16
	Dim      uint32
	Count    uint32
	KeysLen  uint64
}

// layout describes where the sections of a parsed file live.
type layout struct {
	dim     int
	keys    []string
	rowsOff int
}

func parseLayout(data []byte) (*layout, error) {
	if len(data) < kvecHeaderSize {
		return nil, fmt.Errorf("%w: file shorter than header", ErrBadFormat)
	}
	var hdr kvecHeader
	copy(hdr.Magic[:], data[0:4])
	hdr.Version = binary.LittleEndian.Uint16(data[4:6])
	hdr.Dim = binary.LittleEndian.Uint32(data[8:12])
	hdr.Count = binary.LittleEndian.Uint32(data[12:16])
	hdr.KeysLen = binary.LittleEndian.Uint64(data[16:24])
	if hdr.Magic != kvecMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadFormat, hdr.Magic[:])
	}
	if hdr.Version != kvecVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadFormat, hdr.Version)
	}
	if hdr.KeysLen > uint64(len(data)-kvecHeaderSize) {
		return nil, fmt.Errorf("%w: truncated keys section", ErrBadFormat)
	}
	// Every key carries a 4-byte length prefix, so Count is bounded by the keys section.
	if uint64(hdr.Count)*4 > hdr.KeysLen {
		return nil, fmt.Errorf("%w: %d keys cannot fit in %d bytes", ErrBadFormat, hdr.Count, hdr.KeysLen)
	}
	keysEnd := uint64(kvecHeaderSize) + hdr.KeysLen
	keys := make([]string, 0, hdr.Count)
	seen := make(map[string]struct{}, hdr.Count)
	off := uint64(kvecHeaderSize)
	for i := uint32(0); i < hdr.Count; i++ {
		if off+4 > keysEnd {
			return nil, fmt.Errorf("%w: truncated key %d", ErrBadFormat, i)
		}
		n := uint64(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
		if off+n > keysEnd {
			return nil, fmt.Errorf("%w: truncated key %d", ErrBadFormat, i)
		}
		key := string(data[off : off+n])
		off += n
		if !IsConceptURI(key) {
			return nil, fmt.Errorf("%w: %q", ErrMalformedKey, key)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key)
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if off != keysEnd {
		return nil, fmt.Errorf("%w: keys section length mismatch", ErrBadFormat)
	}
	rowsOff := align4(keysEnd)
	if rowsOff > uint64(len(data)) {
		return nil, fmt.Errorf("%w: truncated rows section", ErrBadFormat)
	}
	avail := (uint64(len(data)) - rowsOff) / 4
	if hdr.Dim > 0 && uint64(hdr.Count) > avail/uint64(hdr.Dim) {
		return nil, fmt.Errorf("%w: %d rows of dim %d exceed file size %d", ErrBadFormat, hdr.Count, hdr.Dim, len(data))
	}
	want := rowsOff + uint64(hdr.Count)*uint64(hdr.Dim)*4
	if want != uint64(len(data)) {
		return nil, fmt.Errorf("%w: expected %d bytes, file has %d", ErrBadFormat, want, len(data))
	}
	return &layout{dim: int(hdr.Dim), keys: keys, rowsOff: int(rowsOff)}, nil
}

func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}

// WriteKVec serializes t in .kvec format.
func WriteKVec(w io.Writer, t Table) error {
	var keysLen uint64
	for k := range t.All() {
		keysLen += 4 + uint64(len(k))
	}
	hdr := kvecHeader{
		Magic:   kvecMagic,
		Version: kvecVersion,
		Dim:     uint32(t.Dim()),
		Count:   uint32(t.Len()),
		KeysLen: keysLen,
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for k := range t.All() {
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(k))); err != nil {
			return fmt.Errorf("write key len: %w", err)
		}
		if _, err := bw.WriteString(k); err != nil {
			return fmt.Errorf("write key: %w", err)
		}
	}
	end := uint64(kvecHeaderSize) + keysLen
	if pad := align4(end) - end; pad > 0 {
		if _, err := bw.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("write padding: %w", err)
		}
	}
	for _, vec := range t.All() {
		if _, err := bw.Write(EncodeFloat32s(vec)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return bw.Flush()
}

// WriteKVecFile writes t to path, creating parent directories as needed.
func WriteKVecFile(path string, t Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create table dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table file: %w", err)
	}
	if err := WriteKVec(f, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
