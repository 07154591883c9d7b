// Package services defines the shared error taxonomy and context annotations
// used across the transformation pipeline.
//
// Sentinel errors classify failures at the planner, data model, engine, and
// lifecycle boundaries; Wrap tags an error with one of them while preserving
// component and operation detail for logs. Context helpers thread project,
// job, and operation identifiers through pipeline calls for log correlation.
package services
