// Package storage keeps uploaded files of a single kind in a flat directory.
//
// The service uses two stores: PDF templates and CSV datasets. Names handed to
// a Store are plain file names; anything that could escape the directory is
// rejected with ErrInvalidName before the filesystem is touched.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go-formfill/internal/utils"
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrNotExist    = errors.New("file does not exist")
)

type Store struct {
	dir string
	ext string
}

// New returns a Store rooted at dir holding files with the extension ext
// (".pdf", ".csv"). The directory is created if needed.
func New(dir, ext string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	return &Store{dir: dir, ext: strings.ToLower(ext)}, nil
}

func (s *Store) Dir() string { return s.dir }
func (s *Store) Ext() string { return s.ext }

// CheckName validates a client supplied name.
func (s *Store) CheckName(name string) error {
	if name == "" ||
		strings.ContainsAny(name, `/\`) ||
		strings.Contains(name, "..") ||
		!utils.HasExt(name, s.ext) {
		return ErrInvalidName
	}
	return nil
}

func (s *Store) Path(name string) (string, error) {
	if err := s.CheckName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// List returns the names of all files with the store's extension, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.dir, err)
	}
	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !utils.HasExt(entry.Name(), s.ext) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Stat(name string) (fs.FileInfo, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, ErrNotExist
	}
	return info, err
}

func (s *Store) Exists(name string) bool {
	_, err := s.Stat(name)
	return err == nil
}

func (s *Store) Open(name string) (*os.File, error) {
	if _, err := s.Stat(name); err != nil {
		return nil, err
	}
	path, _ := s.Path(name)
	return os.Open(path)
}

func (s *Store) ReadFile(name string) ([]byte, error) {
	f, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Save writes r under name, replacing any existing file of that name. The
// content is written to a temp file first so readers never see a partial file.
func (s *Store) Save(name string, r io.Reader) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

func (s *Store) Delete(name string) error {
	if _, err := s.Stat(name); err != nil {
		return err
	}
	path, _ := s.Path(name)
	return os.Remove(path)
}
