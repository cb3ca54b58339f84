package domain

import "time"

// Artifact is one versioned generated output for a scene's media track.
// Versions start at 1 per scene+track and only ever grow; older versions
// are retained and never mutated. The single exception is a video
// placeholder created at job submission with empty location fields,
// which is filled in place once its async job resolves.
type Artifact struct {
	ID         string
	SceneID    string
	Track      MediaTrack
	Version    int
	StorageKey string
	URL        string

	// Image metadata.
	Width  int
	Height int

	// Video metadata.
	DurationSeconds int
	JobHandle       string

	CreatedAt time.Time
}

// Placeholder reports whether the artifact is a submission-time record
// whose media has not been persisted yet.
func (a *Artifact) Placeholder() bool {
	return a.StorageKey == "" && a.URL == ""
}
