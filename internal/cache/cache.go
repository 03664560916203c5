// Package cache keeps parsed template fields so repeated /fields and /fill
// calls do not re-read the PDF.
//
// Entries carry a version string derived from the template file's size and
// modification time; a Get with a different version is a miss.
package cache

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go-formfill/internal/pdf"
)

type FieldCache interface {
	Get(ctx context.Context, name, version string) ([]pdf.Field, bool, error)
	Set(ctx context.Context, name, version string, fields []pdf.Field) error
	Invalidate(ctx context.Context, name string) error
}

// Version derives a cache version from file metadata.
func Version(info os.FileInfo) string {
	return fmt.Sprintf("%d-%d", info.Size(), info.ModTime().UnixNano())
}

type entry struct {
	version string
	fields  []pdf.Field
}

type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
}

var _ FieldCache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry)}
}

func (m *Memory) Get(_ context.Context, name, version string) ([]pdf.Field, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[name]
	if !ok || e.version != version {
		return nil, false, nil
	}
	return e.fields, true, nil
}

func (m *Memory) Set(_ context.Context, name, version string, fields []pdf.Field) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = entry{version: version, fields: fields}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, name)
	return nil
}
