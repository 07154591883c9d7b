package testsupport

import (
	"context"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/project"
)

// MustOpenStore opens a project.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *project.Store {
	t.Helper()

	store, err := project.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("project.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewProject creates a draft project for tests using the provided store.
func NewProject(t testing.TB, store *project.Store, title string, input project.Input) *project.Project {
	t.Helper()

	created, err := store.NewProject(context.Background(), title, input)
	if err != nil {
		t.Fatalf("store.NewProject: %v", err)
	}
	return created
}
