package services

import (
	"errors"
	"fmt"
	"github.com/spf13/afero"
	"os"
	"path/filepath"
)

var ErrFileNotFound = errors.New("material file not found")

// MaterialStorage reads material files relative to the root of its filesystem.
type MaterialStorage struct {
	fs afero.Fs
}

func NewMaterialStorage(fs afero.Fs) *MaterialStorage {
	return &MaterialStorage{fs: fs}
}

// NewDirMaterialStorage serves files from dir only; paths escaping it are reported as missing.
func NewDirMaterialStorage(dir string) *MaterialStorage {
	return NewMaterialStorage(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

func (s *MaterialStorage) Read(file string) ([]byte, error) {
	path := filepath.Clean("/" + file)

	info, err := s.fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't stat material %s: %w", file, err)
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("couldn't read material %s: %w", file, err)
	}
	return data, nil
}
