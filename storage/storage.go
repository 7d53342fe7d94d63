package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"

	"go.uber.org/zap"
)

// Store persists named collections wholesale. Load fills out (a pointer to a
// slice) with the collection's records and leaves it empty when the
// collection is missing or unparsable; it never returns an error. Save
// replaces the entire collection and reports whether the write took effect.
type Store interface {
	Load(collection string, out any)
	Save(collection string, v any) bool
}

// FileStore keeps one JSON file per collection under a data directory.
type FileStore struct {
	dir string
	log *zap.Logger
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, log: logger.Named("storage")}, nil
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *FileStore) Load(collection string, out any) {
	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("failed to read collection", zap.String("collection", collection), zap.Error(err))
		}
		return
	}
	if err := decode(data, out); err != nil {
		s.log.Error("failed to parse collection", zap.String("collection", collection), zap.Error(err))
	}
}

// decode fills out from data. Unmarshal populates out element by element, so a
// mid-payload type mismatch would leave partial records behind; reset out to
// its zero value on any failure so a bad file reads as an empty collection.
func decode(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		if v := reflect.ValueOf(out); v.Kind() == reflect.Pointer && !v.IsNil() {
			v.Elem().Set(reflect.Zero(v.Elem().Type()))
		}
		return err
	}
	return nil
}

// Save writes to a temp file in the same directory and renames it over the
// collection file, so readers never observe a partial write.
func (s *FileStore) Save(collection string, v any) bool {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.log.Error("failed to serialize collection", zap.String("collection", collection), zap.Error(err))
		return false
	}

	tmp, err := os.CreateTemp(s.dir, collection+"-*.tmp")
	if err != nil {
		s.log.Error("failed to create temp file", zap.String("collection", collection), zap.Error(err))
		return false
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		s.log.Error("failed to write collection", zap.String("collection", collection), zap.Error(err))
		return false
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		s.log.Error("failed to close temp file", zap.String("collection", collection), zap.Error(err))
		return false
	}
	if err := os.Rename(tmp.Name(), s.path(collection)); err != nil {
		os.Remove(tmp.Name())
		s.log.Error("failed to replace collection", zap.String("collection", collection), zap.Error(err))
		return false
	}
	return true
}
