package memory

import (
	"context"
	"fmt"
	"path"
	"sync"

	"tricount/internal/core"
	ports "tricount/internal/sheets"
)

// Workbook is one recorded WriteWorkbook call.
type Workbook struct {
	Dir    string
	Name   string
	Tables []core.Table
}

// Store keeps written workbooks in memory. It backs dry runs and tests.
type Store struct {
	mu        sync.Mutex
	workbooks []Workbook
	failures  map[string]error
}

var _ ports.WorkbookWriter = (*Store)(nil)

func New() *Store {
	return &Store{failures: map[string]error{}}
}

// FailOn makes every later write of the named workbook return err.
func (s *Store) FailOn(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[name] = err
}

// WriteWorkbook records the tables and returns a synthetic reference.
func (s *Store) WriteWorkbook(ctx context.Context, dir, name string, tables []core.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failures[name]; ok {
		return "", err
	}
	s.workbooks = append(s.workbooks, Workbook{
		Dir:    dir,
		Name:   name,
		Tables: append([]core.Table(nil), tables...),
	})
	return fmt.Sprintf("mem:%s", path.Join(dir, name)), nil
}

// Workbooks returns the recorded workbooks in write order.
func (s *Store) Workbooks() []Workbook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Workbook(nil), s.workbooks...)
}

// Names lists the recorded workbook names in write order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.workbooks))
	for _, w := range s.workbooks {
		out = append(out, w.Name)
	}
	return out
}
