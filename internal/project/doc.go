// Package project owns the project data model, its lifecycle state machine,
// and SQLite-backed persistence.
//
// A project moves draft -> processing -> completed or failed; failed projects
// may be retried back into processing. Output handles are present exactly when
// a project has completed at least one successful generation, and editing
// metadata may only attach to a project with output. The store keeps these
// invariants at every persisted transition.
package project
