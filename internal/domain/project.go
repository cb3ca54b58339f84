package domain

import "time"

// Stage marks coarse project progress through the generation pipeline.
type Stage string

const (
	StageDraft     Stage = "draft"
	StageScenes    Stage = "scenes"
	StageImages    Stage = "images"
	StageVideos    Stage = "videos"
	StageCompleted Stage = "completed"
)

var stageOrder = map[Stage]int{
	StageDraft:     0,
	StageScenes:    1,
	StageImages:    2,
	StageVideos:    3,
	StageCompleted: 4,
}

// Valid reports whether the stage is one of the known values.
func (s Stage) Valid() bool {
	_, ok := stageOrder[s]
	return ok
}

// Before reports whether s comes earlier than other in the pipeline.
func (s Stage) Before(other Stage) bool {
	return stageOrder[s] < stageOrder[other]
}

// CanAdvanceTo reports whether moving the project from s to target is a
// forward transition. Backward moves go through an explicit re-enter
// operation instead.
func (s Stage) CanAdvanceTo(target Stage) bool {
	return s.Valid() && target.Valid() && stageOrder[s] < stageOrder[target]
}

// CanReenter reports whether target is a permitted operator-initiated
// backward transition from s.
func (s Stage) CanReenter(target Stage) bool {
	return s.Valid() && target.Valid() && stageOrder[target] < stageOrder[s]
}

// StageForTrack returns the project stage reached once a batch for the
// given media track has produced at least one artifact.
func StageForTrack(track MediaTrack) Stage {
	if track == TrackVideo {
		return StageVideos
	}
	return StageImages
}

// Project is the unit-of-work container: one submitted story and the
// scenes derived from it. StoryText is immutable after creation.
type Project struct {
	ID        string
	OwnerID   string
	Title     string
	StoryText string
	Style     string
	Stage     Stage
	CreatedAt time.Time
	UpdatedAt time.Time
}
