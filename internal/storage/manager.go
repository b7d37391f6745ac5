package storage

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timeseries-dashboard/backend/internal/models"
)

var (
	// ErrNotFound is returned for unknown file ids.
	ErrNotFound = errors.New("file not found")
	// ErrTooLarge is returned when an upload, after decompression, exceeds the limit.
	ErrTooLarge = errors.New("file exceeds size limit")
	// ErrCorrupt is returned when a gzip upload cannot be decompressed.
	ErrCorrupt = errors.New("corrupt gzip upload")
)

var gzipMagic = []byte{0x1f, 0x8b}

// Store defines the interface for upload storage.
type Store interface {
	Save(name string, r io.Reader) (*models.FileInfo, error)
	Get(id string) (*models.FileInfo, error)
	Open(id string) (io.ReadCloser, error)
	List(limit int) ([]*models.FileInfo, error)
	Delete(id string) error
}

type memFile struct {
	info *models.FileInfo
	data []byte
}

// MemoryStore keeps uploads in process memory. Nothing is written to disk.
// Gzip-compressed uploads are decompressed on Save.
type MemoryStore struct {
	mu      sync.RWMutex
	files   map[string]*memFile
	maxSize int64
}

// NewMemoryStore creates a store. maxSize <= 0 disables the size limit.
func NewMemoryStore(maxSize int64) *MemoryStore {
	return &MemoryStore{
		files:   make(map[string]*memFile),
		maxSize: maxSize,
	}
}

// Save reads r fully and registers it under a new id.
func (s *MemoryStore) Save(name string, r io.Reader) (*models.FileInfo, error) {
	data, err := s.readLimited(r)
	if err != nil {
		return nil, err
	}

	compressed := bytes.HasPrefix(data, gzipMagic)
	if compressed {
		data, err = s.decompress(data)
		if err != nil {
			return nil, err
		}
	}

	info := &models.FileInfo{
		ID:         uuid.New().String(),
		Name:       name,
		Size:       int64(len(data)),
		Compressed: compressed,
		UploadedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[info.ID] = &memFile{info: info, data: data}

	return info, nil
}

func (s *MemoryStore) readLimited(r io.Reader) ([]byte, error) {
	if s.maxSize <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading upload: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

func (s *MemoryStore) decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	defer reader.Close()

	out, err := s.readLimited(reader)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return out, nil
}

// Get retrieves file metadata by ID.
func (s *MemoryStore) Get(id string) (*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return f.info, nil
}

// Open returns the (decompressed) content of a file.
func (s *MemoryStore) Open(id string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// List returns the most recent files.
func (s *MemoryStore) List(limit int) ([]*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.FileInfo, 0, len(s.files))
	for _, f := range s.files {
		list = append(list, f.info)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Delete removes a file.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.files, id)
	return nil
}
