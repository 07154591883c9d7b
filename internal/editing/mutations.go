package editing

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"clipforge/internal/services"
)

const component = "editing"

// AddTextOverlay validates and appends a text overlay, assigning an ID when
// the caller did not supply one. The overlay ID is returned.
func (d *Data) AddTextOverlay(overlay TextOverlay) (string, error) {
	if err := validateTextOverlay(overlay); err != nil {
		return "", err
	}
	if overlay.ID == "" {
		overlay.ID = uuid.NewString()
	}
	d.TextOverlays = append(d.TextOverlays, overlay)
	return overlay.ID, nil
}

// UpdateTextOverlay replaces an existing overlay, keeping its identifier.
func (d *Data) UpdateTextOverlay(id string, overlay TextOverlay) error {
	if err := validateTextOverlay(overlay); err != nil {
		return err
	}
	for i := range d.TextOverlays {
		if d.TextOverlays[i].ID == id {
			overlay.ID = id
			d.TextOverlays[i] = overlay
			return nil
		}
	}
	return services.Wrap(services.ErrNotFound, component, "update_text_overlay", id, nil)
}

// RemoveTextOverlay deletes an overlay by identifier.
func (d *Data) RemoveTextOverlay(id string) error {
	for i := range d.TextOverlays {
		if d.TextOverlays[i].ID == id {
			d.TextOverlays = append(d.TextOverlays[:i], d.TextOverlays[i+1:]...)
			return nil
		}
	}
	return services.Wrap(services.ErrNotFound, component, "remove_text_overlay", id, nil)
}

// AddAudioTrack validates and appends an audio track against the source
// duration. The track ID is returned.
func (d *Data) AddAudioTrack(track AudioTrack, sourceDuration float64) (string, error) {
	if _, ok := ParseAudioKind(string(track.Kind)); !ok {
		return "", services.Wrap(services.ErrValidation, component, "add_audio_track",
			fmt.Sprintf("unknown audio kind %q", track.Kind), nil)
	}
	if strings.TrimSpace(track.URL) == "" {
		return "", services.Wrap(services.ErrValidation, component, "add_audio_track", "url must not be empty", nil)
	}
	if track.Volume < 0 || track.Volume > 1 {
		return "", services.Wrap(services.ErrOutOfRange, component, "add_audio_track",
			fmt.Sprintf("volume %.2f outside [0,1]", track.Volume), nil)
	}
	if err := validateRange(track.StartTime, track.EndTime, sourceDuration, "add_audio_track"); err != nil {
		return "", err
	}
	if track.ID == "" {
		track.ID = uuid.NewString()
	}
	d.AudioTracks = append(d.AudioTracks, track)
	return track.ID, nil
}

// SetAudioVolume adjusts an existing track's volume, rejecting values outside [0,1].
func (d *Data) SetAudioVolume(id string, volume float64) error {
	if volume < 0 || volume > 1 {
		return services.Wrap(services.ErrOutOfRange, component, "set_audio_volume",
			fmt.Sprintf("volume %.2f outside [0,1]", volume), nil)
	}
	for i := range d.AudioTracks {
		if d.AudioTracks[i].ID == id {
			d.AudioTracks[i].Volume = volume
			return nil
		}
	}
	return services.Wrap(services.ErrNotFound, component, "set_audio_volume", id, nil)
}

// RemoveAudioTrack deletes a track by identifier.
func (d *Data) RemoveAudioTrack(id string) error {
	for i := range d.AudioTracks {
		if d.AudioTracks[i].ID == id {
			d.AudioTracks = append(d.AudioTracks[:i], d.AudioTracks[i+1:]...)
			return nil
		}
	}
	return services.Wrap(services.ErrNotFound, component, "remove_audio_track", id, nil)
}

// AddTimelineTrack validates and appends a timeline entry. The track ID is returned.
func (d *Data) AddTimelineTrack(track TimelineTrack, sourceDuration float64) (string, error) {
	if _, ok := ParseTrackKind(string(track.Kind)); !ok {
		return "", services.Wrap(services.ErrValidation, component, "add_timeline_track",
			fmt.Sprintf("unknown track kind %q", track.Kind), nil)
	}
	if err := validateRange(track.StartTime, track.EndTime, sourceDuration, "add_timeline_track"); err != nil {
		return "", err
	}
	if track.ID == "" {
		track.ID = uuid.NewString()
	}
	d.Timeline = append(d.Timeline, track)
	return track.ID, nil
}

// AddEffect appends a named effect. The effect ID is returned.
func (d *Data) AddEffect(effect Effect) (string, error) {
	if strings.TrimSpace(effect.Name) == "" {
		return "", services.Wrap(services.ErrValidation, component, "add_effect", "name must not be empty", nil)
	}
	if effect.ID == "" {
		effect.ID = uuid.NewString()
	}
	d.Effects = append(d.Effects, effect)
	return effect.ID, nil
}

func validateTextOverlay(overlay TextOverlay) error {
	if strings.TrimSpace(overlay.Text) == "" {
		return services.Wrap(services.ErrValidation, component, "text_overlay", "text must not be empty", nil)
	}
	if overlay.Size <= 0 {
		return services.Wrap(services.ErrOutOfRange, component, "text_overlay",
			fmt.Sprintf("size %.2f must be positive", overlay.Size), nil)
	}
	if overlay.Position.X < 0 || overlay.Position.X > 100 || overlay.Position.Y < 0 || overlay.Position.Y > 100 {
		return services.Wrap(services.ErrOutOfRange, component, "text_overlay",
			fmt.Sprintf("position (%.1f, %.1f) outside normalized 0-100 space", overlay.Position.X, overlay.Position.Y), nil)
	}
	if overlay.Animation != nil && overlay.Animation.Duration <= 0 {
		return services.Wrap(services.ErrOutOfRange, component, "text_overlay",
			"animation duration must be positive", nil)
	}
	return nil
}

func validateRange(start, end, duration float64, operation string) error {
	if start < 0 || end < start || end > duration {
		return services.Wrap(services.ErrInvalidRange, component, operation,
			fmt.Sprintf("range [%.2f, %.2f] outside [0, %.2f]", start, end, duration), nil)
	}
	return nil
}

// Validate checks every stored range against the source duration. It is used
// when editing data is deserialized from persistence.
func (d *Data) Validate(sourceDuration float64) error {
	for _, track := range d.Timeline {
		if err := validateRange(track.StartTime, track.EndTime, sourceDuration, "timeline"); err != nil {
			return err
		}
	}
	for _, track := range d.AudioTracks {
		if err := validateRange(track.StartTime, track.EndTime, sourceDuration, "audio_track"); err != nil {
			return err
		}
		if track.Volume < 0 || track.Volume > 1 {
			return services.Wrap(services.ErrOutOfRange, component, "audio_track",
				fmt.Sprintf("volume %.2f outside [0,1]", track.Volume), nil)
		}
	}
	for _, overlay := range d.TextOverlays {
		if err := validateTextOverlay(overlay); err != nil {
			return err
		}
	}
	return nil
}
