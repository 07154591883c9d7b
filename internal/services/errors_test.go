package services_test

import (
	"errors"
	"fmt"
	"testing"

	"clipforge/internal/services"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("ffmpeg exited 1")
	err := services.Wrap(services.ErrTransformFailed, "engine", "execute", "filter pass", cause)
	if !errors.Is(err, services.ErrTransformFailed) {
		t.Fatalf("expected transform failure marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to remain unwrappable, got %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "engine", "execute", "", nil)
	if !errors.Is(err, services.ErrTransformFailed) {
		t.Fatalf("expected default marker, got %v", err)
	}
}

func TestIsValidation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{services.Wrap(services.ErrInvalidRange, "planner", "cut", "start after end", nil), true},
		{services.Wrap(services.ErrUnknownFilter, "planner", "filter", "Sepia", nil), true},
		{services.Wrap(services.ErrOutOfRange, "editing", "volume", "1.5", nil), true},
		{services.Wrap(services.ErrTransformFailed, "engine", "execute", "", nil), false},
		{services.ErrIllegalTransition, false},
	}
	for i, tc := range cases {
		if got := services.IsValidation(tc.err); got != tc.want {
			t.Fatalf("case %d: IsValidation(%v) = %v, want %v", i, tc.err, got, tc.want)
		}
	}
}

func TestWrapDetailFormatting(t *testing.T) {
	err := services.Wrap(services.ErrUnknownFilter, "planner", "filter", "Sepia", nil)
	want := fmt.Sprintf("%s: planner: filter: Sepia", services.ErrUnknownFilter)
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
