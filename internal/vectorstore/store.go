package vectorstore

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/manofshad/vodhunter-go/internal/apperr"
)

const (
	floatSize = 4 // bytes per float32
	idSize    = 8 // bytes per int64
)

// Store is the append-only vector matrix + parallel id array described
// in spec.md §4.2. Row i of the vectors file always corresponds to
// id i of the ids file; both grow together or, after a crash, both
// get truncated back to the last header-confirmed row count.
type Store struct {
	vectorsPath string
	idsPath     string
	headerPath  string

	mu  sync.Mutex
	dim int // 0 until the first successful Append establishes it
}

// New returns a Store backed by vectorsPath and idsPath. Neither file
// needs to exist yet.
func New(vectorsPath, idsPath string) *Store {
	return &Store{
		vectorsPath: vectorsPath,
		idsPath:     idsPath,
		headerPath:  vectorsPath + ".header",
	}
}

// Load reconciles the on-disk files against the header (truncating any
// torn tail from an interrupted Append) and returns every row, or
// empty slices if the store has never been written to.
func (s *Store) Load() ([][]float32, []int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.reconcileLocked()
	if err != nil {
		return nil, nil, err
	}
	if h.RowCount == 0 {
		return nil, nil, nil
	}
	s.dim = int(h.Dim)

	vecData, err := os.ReadFile(s.vectorsPath)
	if err != nil {
		return nil, nil, apperr.Transientf("vectorstore: read vectors: %w", err)
	}
	idData, err := os.ReadFile(s.idsPath)
	if err != nil {
		return nil, nil, apperr.Transientf("vectorstore: read ids: %w", err)
	}

	matrix := make([][]float32, h.RowCount)
	for i := range matrix {
		row := make([]float32, h.Dim)
		off := i * int(h.Dim) * floatSize
		for j := range row {
			bits := binary.LittleEndian.Uint32(vecData[off+j*floatSize:])
			row[j] = math.Float32frombits(bits)
		}
		matrix[i] = row
	}

	ids := make([]int64, h.RowCount)
	for i := range ids {
		ids[i] = int64(binary.LittleEndian.Uint64(idData[i*idSize:]))
	}

	return matrix, ids, nil
}

// Append extends both files with embeddings/ids, a no-op when
// embeddings is empty. Partial failure before the header update leaves
// the header pointing at the pre-Append row count; the next Load or
// Append reconciles the torn tail away.
func (s *Store) Append(embeddings [][]float32, ids []int64) error {
	if len(embeddings) == 0 {
		return nil
	}
	if len(embeddings) != len(ids) {
		return fmt.Errorf("vectorstore: %d embeddings but %d ids", len(embeddings), len(ids))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.reconcileLocked()
	if err != nil {
		return err
	}

	dim := int(h.Dim)
	if dim == 0 {
		dim = len(embeddings[0])
	}
	for i, row := range embeddings {
		if len(row) != dim {
			return fmt.Errorf("vectorstore: row %d has dim %d, want %d", i, len(row), dim)
		}
	}

	vecFile, err := os.OpenFile(s.vectorsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return apperr.Transientf("vectorstore: open vectors: %w", err)
	}
	defer vecFile.Close()

	idFile, err := os.OpenFile(s.idsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return apperr.Transientf("vectorstore: open ids: %w", err)
	}
	defer idFile.Close()

	buf := make([]byte, dim*floatSize)
	for _, row := range embeddings {
		for j, v := range row {
			binary.LittleEndian.PutUint32(buf[j*floatSize:], math.Float32bits(v))
		}
		if _, err := vecFile.Write(buf); err != nil {
			return apperr.Transientf("vectorstore: write vectors: %w", err)
		}
	}
	if err := vecFile.Sync(); err != nil {
		return apperr.Transientf("vectorstore: sync vectors: %w", err)
	}

	idBuf := make([]byte, idSize)
	for _, id := range ids {
		binary.LittleEndian.PutUint64(idBuf, uint64(id))
		if _, err := idFile.Write(idBuf); err != nil {
			return apperr.Transientf("vectorstore: write ids: %w", err)
		}
	}
	if err := idFile.Sync(); err != nil {
		return apperr.Transientf("vectorstore: sync ids: %w", err)
	}

	newHeader := header{Dim: uint32(dim), RowCount: h.RowCount + int64(len(embeddings))}
	if err := writeHeaderAtomic(s.headerPath, newHeader); err != nil {
		return apperr.Transientf("vectorstore: write header: %w", err)
	}
	s.dim = dim
	return nil
}

// reconcileLocked reads the header and truncates both data files back
// to the row count it records, undoing any append that crashed after
// the data writes but before the header update. Caller must hold s.mu.
func (s *Store) reconcileLocked() (header, error) {
	h, exists, err := readHeader(s.headerPath)
	if err != nil {
		return header{}, apperr.Transientf("vectorstore: %w", err)
	}
	if !exists {
		h = header{}
	}

	if err := truncateTo(s.vectorsPath, h.RowCount*int64(h.Dim)*floatSize); err != nil {
		return header{}, apperr.Transientf("vectorstore: truncate vectors: %w", err)
	}
	if err := truncateTo(s.idsPath, h.RowCount*idSize); err != nil {
		return header{}, apperr.Transientf("vectorstore: truncate ids: %w", err)
	}
	return h, nil
}

func truncateTo(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o640)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() <= size {
		return nil
	}
	return f.Truncate(size)
}
