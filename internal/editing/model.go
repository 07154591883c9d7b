package editing

import "strings"

// TrackKind identifies the content carried by a timeline track.
type TrackKind string

const (
	TrackVideo  TrackKind = "video"
	TrackAudio  TrackKind = "audio"
	TrackText   TrackKind = "text"
	TrackEffect TrackKind = "effect"
)

// AudioKind classifies an audio track source.
type AudioKind string

const (
	AudioVoice  AudioKind = "voice"
	AudioMusic  AudioKind = "music"
	AudioEffect AudioKind = "effect"
)

// Data is the root of the editing metadata for one project.
type Data struct {
	Timeline     []TimelineTrack `json:"timeline"`
	Effects      []Effect        `json:"effects"`
	Transitions  []Transition    `json:"transitions"`
	AudioTracks  []AudioTrack    `json:"audio_tracks"`
	TextOverlays []TextOverlay   `json:"text_overlays"`
}

// TimelineTrack is one entry on the editing timeline. StartTime and EndTime
// are seconds within [0, source duration].
type TimelineTrack struct {
	ID        string    `json:"id"`
	Kind      TrackKind `json:"kind"`
	StartTime float64   `json:"start_time"`
	EndTime   float64   `json:"end_time"`
	Content   string    `json:"content,omitempty"`
}

// Effect names a visual effect with its parameter map.
type Effect struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Transition describes a transition between timeline segments.
type Transition struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	Duration   float64           `json:"duration"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// AudioTrack layers an additional audio source over the output.
type AudioTrack struct {
	ID        string    `json:"id"`
	Kind      AudioKind `json:"kind"`
	URL       string    `json:"url"`
	Volume    float64   `json:"volume"`
	StartTime float64   `json:"start_time"`
	EndTime   float64   `json:"end_time"`
}

// Position locates an overlay in normalized coordinates, 0-100 on both axes.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TextAnimation describes an optional overlay animation.
type TextAnimation struct {
	Kind       string            `json:"kind"`
	Duration   float64           `json:"duration"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// TextOverlay renders a text element over the output at export time.
type TextOverlay struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Font      string         `json:"font"`
	Size      float64        `json:"size"`
	Color     string         `json:"color"`
	Position  Position       `json:"position"`
	Animation *TextAnimation `json:"animation,omitempty"`
}

// New returns an empty editing model with initialized collections.
func New() *Data {
	return &Data{
		Timeline:     []TimelineTrack{},
		Effects:      []Effect{},
		Transitions:  []Transition{},
		AudioTracks:  []AudioTrack{},
		TextOverlays: []TextOverlay{},
	}
}

// Clone returns a deep copy so callers can hand out snapshots safely.
func (d *Data) Clone() *Data {
	if d == nil {
		return nil
	}
	cp := &Data{
		Timeline:     append([]TimelineTrack(nil), d.Timeline...),
		Effects:      make([]Effect, 0, len(d.Effects)),
		Transitions:  make([]Transition, 0, len(d.Transitions)),
		AudioTracks:  append([]AudioTrack(nil), d.AudioTracks...),
		TextOverlays: make([]TextOverlay, 0, len(d.TextOverlays)),
	}
	for _, effect := range d.Effects {
		effect.Parameters = cloneParams(effect.Parameters)
		cp.Effects = append(cp.Effects, effect)
	}
	for _, transition := range d.Transitions {
		transition.Parameters = cloneParams(transition.Parameters)
		cp.Transitions = append(cp.Transitions, transition)
	}
	for _, overlay := range d.TextOverlays {
		if overlay.Animation != nil {
			anim := *overlay.Animation
			anim.Parameters = cloneParams(anim.Parameters)
			overlay.Animation = &anim
		}
		cp.TextOverlays = append(cp.TextOverlays, overlay)
	}
	return cp
}

func cloneParams(params map[string]string) map[string]string {
	if params == nil {
		return nil
	}
	cp := make(map[string]string, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return cp
}

// ParseAudioKind converts a string into a known AudioKind.
func ParseAudioKind(value string) (AudioKind, bool) {
	kind := AudioKind(strings.ToLower(strings.TrimSpace(value)))
	switch kind {
	case AudioVoice, AudioMusic, AudioEffect:
		return kind, true
	}
	return "", false
}

// ParseTrackKind converts a string into a known TrackKind.
func ParseTrackKind(value string) (TrackKind, bool) {
	kind := TrackKind(strings.ToLower(strings.TrimSpace(value)))
	switch kind {
	case TrackVideo, TrackAudio, TrackText, TrackEffect:
		return kind, true
	}
	return "", false
}
