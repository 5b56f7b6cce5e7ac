// Package report defines the read shapes returned by video analysis.
package report

import (
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/timeline"
)

// Track names as they appear in responses.
const (
	TrackLeftHand  = "left_hand"
	TrackRightHand = "right_hand"
	TrackBody      = "body"
)

// Track is one rendered classification timeline of an analyzed video.
type Track struct {
	Name     string             `json:"name"`
	HasData  bool               `json:"has_data"`
	Segments []timeline.Segment `json:"segments"`
	Summary  string             `json:"summary,omitempty"`
}

// Analysis is the full result of one analyzed video: per-track timelines
// plus the overall assessment. AssessmentError is set instead of
// Assessment when the verdict step failed and the analysis degraded to
// timelines only.
type Analysis struct {
	ID              string                   `json:"id"`
	Domain          model.Domain             `json:"domain"`
	Tracks          []Track                  `json:"tracks"`
	Assessment      *model.OverallAssessment `json:"assessment,omitempty"`
	AssessmentError string                   `json:"assessment_error,omitempty"`
}
