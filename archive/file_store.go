package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	mb "github.com/saeidalz13/battleship-arena/models/battleship"
)

const DefaultArchiveFile = "game_archive.json"

// FileStore keeps the archive as one indented JSON array on disk.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultArchiveFile
	}
	return &FileStore{path: path}
}

// Append reads the whole array, appends rec and writes it back through a
// temp file in the same directory so readers never see a partial file.
func (f *FileStore) Append(_ context.Context, rec mb.ArchiveRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.read()
	var corrupt *CorruptArchiveError
	if errors.As(err, &corrupt) {
		if err := f.moveAside(corrupt); err != nil {
			return err
		}
		records, err = []mb.ArchiveRecord{}, nil
	}
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileStore) List(_ context.Context) ([]mb.ArchiveRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

// CorruptArchiveError reports an archive file that does not parse.
type CorruptArchiveError struct {
	Path string
	Err  error
}

func (e *CorruptArchiveError) Error() string {
	return fmt.Sprintf("archive file %s is corrupt: %s", e.Path, e.Err)
}

func (e *CorruptArchiveError) Unwrap() error {
	return e.Err
}

// moveAside renames a corrupt archive so the next write starts over.
func (f *FileStore) moveAside(corrupt *CorruptArchiveError) error {
	aside := fmt.Sprintf("%s.corrupt-%d", f.path, time.Now().Unix())
	log.Warn().Err(corrupt.Err).Str("path", f.path).Str("moved_to", aside).Msg("archive file unreadable; starting a new one")
	return os.Rename(f.path, aside)
}

// read treats a missing or empty file as an empty archive. It never
// modifies the file.
func (f *FileStore) read() ([]mb.ArchiveRecord, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []mb.ArchiveRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []mb.ArchiveRecord{}, nil
	}

	var records []mb.ArchiveRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &CorruptArchiveError{Path: f.path, Err: err}
	}
	if records == nil {
		records = []mb.ArchiveRecord{}
	}
	return records, nil
}
