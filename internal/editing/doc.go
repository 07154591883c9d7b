// Package editing holds the declarative overlay and timeline metadata attached
// to a completed project.
//
// The model is non-destructive: nothing here touches the transformation
// engine. Mutations are synchronous, validated against the project's source
// duration, and rejected rather than clamped when a range falls outside
// [0, duration]. The collections are consumed at export time together with the
// project's current output handle.
package editing
