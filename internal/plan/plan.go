// Package plan validates editing operations and lowers them into engine
// commands. Validation is synchronous and complete: an operation that passes
// Validate never fails for range or filter reasons once it reaches the engine.
package plan

import (
	"fmt"
	"strconv"
	"strings"

	"clipforge/internal/engine"
	"clipforge/internal/services"
)

const component = "plan"

// Kind identifies an editing operation.
type Kind string

const (
	KindCut     Kind = "cut"
	KindSpeed   Kind = "speed"
	KindReverse Kind = "reverse"
	KindFilter  Kind = "filter"
)

// SpeedPresets are the factors surfaced by the UI layers. Any positive factor
// is accepted; presets are a convenience, not a constraint.
var SpeedPresets = []float64{0.5, 0.75, 1.0, 1.5, 2.0}

// Operation is one declarative editing step against the current output.
type Operation struct {
	Kind   Kind    `json:"kind"`
	Start  float64 `json:"start,omitempty"`
	End    float64 `json:"end,omitempty"`
	Factor float64 `json:"factor,omitempty"`
	Filter string  `json:"filter,omitempty"`
}

// ParseKind converts a string into a known operation Kind.
func ParseKind(value string) (Kind, bool) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	switch kind {
	case KindCut, KindSpeed, KindReverse, KindFilter:
		return kind, true
	}
	return "", false
}

// Validate checks an operation against the duration of the source it will run
// on. It never touches the engine.
func Validate(op Operation, sourceDuration float64) error {
	switch op.Kind {
	case KindCut:
		if op.Start < 0 || op.End <= op.Start || op.End > sourceDuration {
			return services.Wrap(services.ErrInvalidRange, component, "cut",
				fmt.Sprintf("range [%.2f, %.2f] outside (0, %.2f]", op.Start, op.End, sourceDuration), nil)
		}
		return nil
	case KindSpeed:
		if op.Factor <= 0 {
			return services.Wrap(services.ErrOutOfRange, component, "speed",
				fmt.Sprintf("factor %.2f must be positive", op.Factor), nil)
		}
		return nil
	case KindReverse:
		return nil
	case KindFilter:
		if _, err := LookupFilter(op.Filter); err != nil {
			return err
		}
		return nil
	default:
		return services.Wrap(services.ErrValidation, component, "validate",
			fmt.Sprintf("unknown operation kind %q", op.Kind), nil)
	}
}

// Lower converts a validated operation into its engine command. The mapping is
// deterministic: the same operation always lowers to the same arguments.
func Lower(op Operation) (engine.Command, error) {
	switch op.Kind {
	case KindCut:
		return engine.Command{
			PreInput:  []string{"-ss", formatSeconds(op.Start)},
			PostInput: []string{"-t", formatSeconds(op.End - op.Start), "-c", "copy"},
		}, nil
	case KindSpeed:
		return engine.Command{
			PostInput: []string{
				"-filter:v", fmt.Sprintf("setpts=%s*PTS", formatFactor(1/op.Factor)),
				"-filter:a", atempoChain(op.Factor),
			},
		}, nil
	case KindReverse:
		return engine.Command{
			PostInput: []string{"-vf", "reverse", "-af", "areverse"},
		}, nil
	case KindFilter:
		filter, err := LookupFilter(op.Filter)
		if err != nil {
			return engine.Command{}, err
		}
		return engine.Command{
			PostInput: []string{"-vf", filter.Graph, "-c:a", "copy"},
		}, nil
	default:
		return engine.Command{}, services.Wrap(services.ErrValidation, component, "lower",
			fmt.Sprintf("unknown operation kind %q", op.Kind), nil)
	}
}

// Describe renders a short human-readable label for logs and job listings.
func Describe(op Operation) string {
	switch op.Kind {
	case KindCut:
		return fmt.Sprintf("cut %.2fs-%.2fs", op.Start, op.End)
	case KindSpeed:
		return fmt.Sprintf("speed x%s", formatFactor(op.Factor))
	case KindReverse:
		return "reverse"
	case KindFilter:
		return "filter " + op.Filter
	default:
		return string(op.Kind)
	}
}

// atempoChain builds an audio tempo filter for any positive factor. A single
// atempo stage only covers [0.5, 2.0], so factors outside that range are
// decomposed into a chain of in-range stages.
func atempoChain(factor float64) string {
	var stages []string
	for factor > 2.0 {
		stages = append(stages, "atempo=2.0")
		factor /= 2.0
	}
	for factor < 0.5 {
		stages = append(stages, "atempo=0.5")
		factor /= 0.5
	}
	stages = append(stages, "atempo="+formatFactor(factor))
	return strings.Join(stages, ",")
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}

func formatFactor(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
