package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/ventsim/internal/breath"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// saveTestRun simulates p and saves it under token.
func saveTestRun(t *testing.T, s *Store, p breath.Parameters, breaths int, token string) (Run, bool) {
	t.Helper()
	tr, err := breath.Simulate(p)
	if err != nil {
		t.Fatalf("Simulate() failed: %v", err)
	}
	run, inserted, err := s.SaveRun(context.Background(), p, breaths, "", tr, token)
	if err != nil {
		t.Fatalf("SaveRun() failed: %v", err)
	}
	return run, inserted
}
