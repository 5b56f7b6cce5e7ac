// Package normalize maps raw wire records from the pose-inference backend
// into typed domain records.
//
// Everything here is pure and deterministic: no I/O, no side effects, and
// no failure modes on malformed input. Missing feature values default to
// zero, extra values are ignored, and unknown labels pass through verbatim.
package normalize

import (
	"math"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
)

// RawRecord is the backend's per-frame classification shape. Timestamp is
// absent on the realtime path, and Hand is absent on the body domain.
type RawRecord struct {
	Timestamp float64   `json:"timestamp,omitempty"`
	Features  []float64 `json:"features"`
	Label     string    `json:"label"`
	Hand      string    `json:"hand,omitempty"`
}

// HandVideoResponse is the batch-path body for the hand domain.
type HandVideoResponse struct {
	LeftHand  []RawRecord `json:"left_hand_classification"`
	RightHand []RawRecord `json:"right_hand_classification"`
}

// BodyVideoResponse is the batch-path body for the body domain.
type BodyVideoResponse struct {
	Body []RawRecord `json:"body_classification"`
}

// HandVideoResult groups the normalized per-hand tracks of one video.
type HandVideoResult struct {
	Left  []model.HandRecord `json:"left"`
	Right []model.HandRecord `json:"right"`
}

// Features decodes a raw feature slice into a fixed width: missing trailing
// values are zero-filled, extra values are ignored. It never fails.
func Features(values []float64, width int) []float64 {
	out := make([]float64, width)
	copy(out, values)
	return out
}

// handFeatures splits a raw vector into the hand layout:
// [wristAngle, curvature1..3, jointAngle1..3].
func handFeatures(values []float64) model.HandFeatures {
	v := Features(values, model.HandFeatureWidth)
	return model.HandFeatures{
		WristAngle:        v[0],
		FingerCurvature:   v[1:4],
		FingerJointAngles: v[4:7],
	}
}

// bodyFeatures splits a raw vector into the body layout:
// [torsoInclination, neckAngle, shoulderTension, elbowAngle, forearmSlope].
func bodyFeatures(values []float64) model.BodyFeatures {
	v := Features(values, model.BodyFeatureWidth)
	return model.BodyFeatures{
		TorsoInclination: v[0],
		NeckAngle:        v[1],
		ShoulderTension:  v[2],
		ElbowAngle:       v[3],
		ForearmSlope:     v[4],
	}
}

// seconds rounds a wire timestamp to whole non-negative seconds.
func seconds(ts float64) int {
	if ts <= 0 || math.IsNaN(ts) {
		return 0
	}
	return int(math.Round(ts))
}

// handedness treats anything other than an explicit "Left" as the right
// hand, mirroring the backend's two-valued field.
func handedness(s string) model.Handedness {
	if s == string(model.LeftHand) {
		return model.LeftHand
	}
	return model.RightHand
}

// HandRealtime normalizes the realtime per-hand record array.
func HandRealtime(raw []RawRecord) []model.HandRecord {
	out := make([]model.HandRecord, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.HandRecord{
			Handedness:     handedness(r.Hand),
			Features:       handFeatures(r.Features),
			Classification: model.Classification(r.Label),
		})
	}
	return out
}

// BodyRealtime normalizes a single realtime body record.
func BodyRealtime(raw RawRecord) model.BodyRecord {
	return model.BodyRecord{
		Features:       bodyFeatures(raw.Features),
		Classification: model.Classification(raw.Label),
	}
}

// HandVideo normalizes a full hand-domain video response into left and
// right tracks.
func HandVideo(resp HandVideoResponse) HandVideoResult {
	return HandVideoResult{
		Left:  handTrack(resp.LeftHand, model.LeftHand),
		Right: handTrack(resp.RightHand, model.RightHand),
	}
}

func handTrack(raw []RawRecord, hand model.Handedness) []model.HandRecord {
	out := make([]model.HandRecord, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.HandRecord{
			Timestamp:      seconds(r.Timestamp),
			Handedness:     hand,
			Features:       handFeatures(r.Features),
			Classification: model.Classification(r.Label),
		})
	}
	return out
}

// BodyVideo normalizes a full body-domain video response.
func BodyVideo(resp BodyVideoResponse) []model.BodyRecord {
	out := make([]model.BodyRecord, 0, len(resp.Body))
	for _, r := range resp.Body {
		out = append(out, model.BodyRecord{
			Timestamp:      seconds(r.Timestamp),
			Features:       bodyFeatures(r.Features),
			Classification: model.Classification(r.Label),
		})
	}
	return out
}
