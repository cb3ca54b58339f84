package domain

import "time"

// MediaTrack identifies one of the two independent media pipelines a
// scene progresses through.
type MediaTrack string

const (
	TrackImage MediaTrack = "image"
	TrackVideo MediaTrack = "video"
)

// Valid reports whether the track is a known value.
func (t MediaTrack) Valid() bool {
	return t == TrackImage || t == TrackVideo
}

// MediaStatus enumerates per-track generation lifecycle states.
type MediaStatus string

const (
	MediaStatusPending    MediaStatus = "pending"
	MediaStatusProcessing MediaStatus = "processing"
	MediaStatusCompleted  MediaStatus = "completed"
	MediaStatusFailed     MediaStatus = "failed"
)

// Terminal reports whether the status ends a generation attempt.
func (s MediaStatus) Terminal() bool {
	return s == MediaStatusCompleted || s == MediaStatusFailed
}

// Scene is one ordered element of a project. Its OrderIndex is stable
// once created; the description stays mutable until confirmed.
type Scene struct {
	ID                   string
	ProjectID            string
	OrderIndex           int
	Title                string
	Description          string
	DescriptionConfirmed bool
	ImageStatus          MediaStatus
	ImageConfirmed       bool
	VideoStatus          MediaStatus
	VideoConfirmed       bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TrackStatus returns the status of the requested media track.
func (s *Scene) TrackStatus(track MediaTrack) MediaStatus {
	if track == TrackVideo {
		return s.VideoStatus
	}
	return s.ImageStatus
}

// TrackConfirmed returns the confirmed flag of the requested media track.
func (s *Scene) TrackConfirmed(track MediaTrack) bool {
	if track == TrackVideo {
		return s.VideoConfirmed
	}
	return s.ImageConfirmed
}

// CanGenerate reports whether the track's cross-track preconditions are
// met: images need a confirmed description, videos a confirmed image.
func (s *Scene) CanGenerate(track MediaTrack) bool {
	switch track {
	case TrackImage:
		return s.DescriptionConfirmed
	case TrackVideo:
		return s.ImageConfirmed
	default:
		return false
	}
}
