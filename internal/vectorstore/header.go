package vectorstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

const (
	headerMagic   uint32 = 0x56484653 // "VHFS"
	headerVersion uint32 = 1
	headerSize           = 4 + 4 + 4 + 8 // magic + version + dim + row count
)

// header is the crash-consistency record: as of the last successful
// Append, the data files held exactly RowCount rows of Dim float32
// values (and RowCount int64 ids).
type header struct {
	Dim      uint32
	RowCount int64
}

func readHeader(path string) (header, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return header{}, false, nil
	}
	if err != nil {
		return header{}, false, fmt.Errorf("read header: %w", err)
	}
	if len(data) != headerSize {
		return header{}, false, fmt.Errorf("header %s: unexpected size %d", path, len(data))
	}

	r := bytes.NewReader(data)
	var magic, version, dim uint32
	var rowCount int64
	for _, v := range []any{&magic, &version} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return header{}, false, fmt.Errorf("read header: %w", err)
		}
	}
	if magic != headerMagic {
		return header{}, false, fmt.Errorf("header %s: bad magic %x", path, magic)
	}
	if version != headerVersion {
		return header{}, false, fmt.Errorf("header %s: unsupported version %d", path, version)
	}
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return header{}, false, fmt.Errorf("read header: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &rowCount); err != nil {
		return header{}, false, fmt.Errorf("read header: %w", err)
	}
	return header{Dim: dim, RowCount: rowCount}, true, nil
}

// writeHeaderAtomic persists h to path via create-temp-then-rename, so
// a reader never observes a partially written header.
func writeHeaderAtomic(path string, h header) error {
	var buf bytes.Buffer
	for _, v := range []any{headerMagic, headerVersion, h.Dim, h.RowCount} {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("encode header: %w", err)
		}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".vectorstore-header-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp header: %w", err)
	}
	tmpName := tmp.Name()
	removed := false
	defer func() {
		if !removed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp header: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp header: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp header: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp header: %w", err)
	}
	removed = true
	return nil
}
