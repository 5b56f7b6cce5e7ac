package simbackend

import (
	"math/rand"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
)

// Label rotations lean heavily on Correct so synthetic timelines look
// like a plausible practice session rather than noise.
var (
	bodyLabelCycle = []model.Classification{
		model.BodyCorrect,
		model.BodyCorrect,
		model.BodySlouched,
		model.BodyCorrect,
		model.BodyHeadForward,
		model.BodyCorrect,
		model.BodyShouldersRaised,
	}
	handLabelCycle = []model.Classification{
		model.HandCorrect,
		model.HandCorrect,
		model.HandHighWrist,
		model.HandCorrect,
		model.HandFlatFingers,
		model.HandCorrect,
		model.HandDroppedWrist,
	}
)

// jitter returns base +/- spread*rand.
func jitter(base, spread float64) float64 {
	return base + (rand.Float64()*2-1)*spread
}

// bodyFeatureVector fabricates a plausible 5-value body feature vector.
func bodyFeatureVector() []float64 {
	return []float64{
		jitter(8, 6),   // torso inclination
		jitter(15, 10), // neck angle
		jitter(0.3, 0.2),
		jitter(95, 20), // elbow angle
		jitter(5, 4),   // forearm slope
	}
}

// handFeatureVector fabricates a plausible 7-value hand feature vector.
func handFeatureVector() []float64 {
	return []float64{
		jitter(10, 8), // wrist angle
		jitter(0.5, 0.3),
		jitter(0.5, 0.3),
		jitter(0.5, 0.3),
		jitter(150, 25),
		jitter(150, 25),
		jitter(150, 25),
	}
}

func bodyLabel(i int) model.Classification {
	return bodyLabelCycle[i%len(bodyLabelCycle)]
}

func handLabel(i int) model.Classification {
	return handLabelCycle[i%len(handLabelCycle)]
}
