// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Domain selects the posture subject under analysis.
type Domain string

// Supported posture domains.
const (
	DomainBody Domain = "body"
	DomainHand Domain = "hand"
)

// ParseDomain validates a domain string from the wire or CLI.
func ParseDomain(s string) (Domain, error) {
	switch Domain(strings.ToLower(strings.TrimSpace(s))) {
	case DomainBody:
		return DomainBody, nil
	case DomainHand:
		return DomainHand, nil
	default:
		return "", fmt.Errorf("unknown domain %q", s)
	}
}

// Handedness identifies which physical hand a record pertains to.
type Handedness string

// Handedness values as they appear on the wire.
const (
	LeftHand  Handedness = "Left"
	RightHand Handedness = "Right"
)

// BodyFeatures is the typed 5-value body feature layout.
type BodyFeatures struct {
	TorsoInclination float64 `json:"torso_inclination"`
	NeckAngle        float64 `json:"neck_angle"`
	ShoulderTension  float64 `json:"shoulder_tension"`
	ElbowAngle       float64 `json:"elbow_angle"`
	ForearmSlope     float64 `json:"forearm_slope"`
}

// BodyFeatureWidth is the fixed feature-vector length for the body domain.
const BodyFeatureWidth = 5

// HandFeatures is the typed 7-value hand feature layout: wrist angle,
// three curvature values, three joint angles.
type HandFeatures struct {
	WristAngle        float64   `json:"wrist_angle"`
	FingerCurvature   []float64 `json:"finger_curvature"`
	FingerJointAngles []float64 `json:"finger_joint_angles"`
}

// HandFeatureWidth is the fixed feature-vector length for the hand domain.
const HandFeatureWidth = 7

// Classification is a per-frame posture label. The known sets below are
// closed per domain, but unrecognized labels are carried through verbatim
// rather than rejected, so the pipeline never breaks on a new backend label.
type Classification string

// Known body classifications.
const (
	BodyCorrect         Classification = "Correct"
	BodySlouched        Classification = "Slouched"
	BodyHeadForward     Classification = "Head Forward"
	BodyShouldersRaised Classification = "Shoulders Raised"
	BodyElbowDropped    Classification = "Elbow Dropped"
	BodyElbowRaised     Classification = "Elbow Raised"
)

// Known hand classifications.
const (
	HandCorrect          Classification = "Correct"
	HandFlatFingers      Classification = "Flat Fingers"
	HandHighWrist        Classification = "High Wrist"
	HandDroppedWrist     Classification = "Dropped Wrist"
	HandCollapsedFingers Classification = "Collapsed Fingers"
)

// Severity buckets a classification for rendering.
type Severity string

// Severity buckets.
const (
	SeverityOK      Severity = "ok"
	SeverityWarn    Severity = "warn"
	SeverityBad     Severity = "bad"
	SeverityNeutral Severity = "neutral"
)

var severityByClassification = map[Classification]Severity{
	BodyCorrect:          SeverityOK,
	BodySlouched:         SeverityBad,
	BodyHeadForward:      SeverityWarn,
	BodyShouldersRaised:  SeverityWarn,
	BodyElbowDropped:     SeverityWarn,
	BodyElbowRaised:      SeverityWarn,
	HandFlatFingers:      SeverityBad,
	HandHighWrist:        SeverityWarn,
	HandDroppedWrist:     SeverityWarn,
	HandCollapsedFingers: SeverityBad,
}

// Known reports whether the label belongs to a closed known set.
func (c Classification) Known() bool {
	_, ok := severityByClassification[c]
	return ok
}

// Severity maps the label to a rendering bucket. Unrecognized labels get
// the neutral fallback.
func (c Classification) Severity() Severity {
	if s, ok := severityByClassification[c]; ok {
		return s
	}
	return SeverityNeutral
}

// BodyRecord is one normalized body classification sample.
// Immutable after creation.
type BodyRecord struct {
	Timestamp      int            `json:"timestamp"` // seconds from session start
	Features       BodyFeatures   `json:"features"`
	Classification Classification `json:"classification"`
}

// HandRecord is one normalized hand classification sample.
// Immutable after creation.
type HandRecord struct {
	Timestamp      int            `json:"timestamp"` // seconds from session start
	Handedness     Handedness     `json:"handedness"`
	Features       HandFeatures   `json:"features"`
	Classification Classification `json:"classification"`
}
