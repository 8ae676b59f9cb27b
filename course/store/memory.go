// Package store provides in-memory course.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/training-report/course"
	"github.com/warp/training-report/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records map[string]course.ProcessedRecord
	imports []course.Import
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]course.ProcessedRecord)}
}

// Upsert replaces records by UniqueID.
func (m *Memory) Upsert(_ context.Context, records []course.ProcessedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		m.records[r.UniqueID] = clone(r)
	}
	return nil
}

func (m *Memory) Get(_ context.Context, uniqueID string) (course.ProcessedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[uniqueID]
	if !ok {
		return course.ProcessedRecord{}, generic.ErrRecordNotFound
	}
	return clone(r), nil
}

func (m *Memory) List(_ context.Context) ([]course.ProcessedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]course.ProcessedRecord, 0, len(m.records))
	for _, r := range m.records {
		result = append(result, clone(r))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Row != result[j].Row {
			return result[i].Row < result[j].Row
		}
		return result[i].UniqueID < result[j].UniqueID
	})
	return result, nil
}

func (m *Memory) Delete(_ context.Context, uniqueID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[uniqueID]; !ok {
		return generic.ErrRecordNotFound
	}
	delete(m.records, uniqueID)
	return nil
}

func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]course.ProcessedRecord)
	m.imports = nil
	return nil
}

func (m *Memory) RecordImport(_ context.Context, imp course.Import) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	imp.UnknownColumns = append([]string(nil), imp.UnknownColumns...)
	m.imports = append(m.imports, imp)
	return nil
}

func (m *Memory) ListImports(_ context.Context) ([]course.Import, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]course.Import, 0, len(m.imports))
	for i := len(m.imports) - 1; i >= 0; i-- {
		imp := m.imports[i]
		imp.UnknownColumns = append([]string(nil), imp.UnknownColumns...)
		out = append(out, imp)
	}
	return out, nil
}

// clone copies the slice fields so callers cannot alias stored state.
func clone(r course.ProcessedRecord) course.ProcessedRecord {
	r.TrainingTypeTags = append([]string(nil), r.TrainingTypeTags...)
	r.ParseIssues = append([]course.FieldIssue(nil), r.ParseIssues...)
	return r
}

var _ course.Store = (*Memory)(nil)
