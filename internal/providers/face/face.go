package face

import (
	"context"

	"github.com/yoockh/yoointerview/internal/models"
)

// Classifier scores facial emotion in one image. Classify never fails: any
// classifier error yields a sample with FaceDetected=false.
type Classifier interface {
	Classify(ctx context.Context, image []byte) models.EmotionSample
	Available(ctx context.Context) bool
	Name() string
}

// NoFace is the structured result used whenever no face could be scored.
func NoFace() models.EmotionSample {
	return models.EmotionSample{Emotions: map[string]float64{}}
}

type disabled struct{}

// NewDisabled returns a classifier that reports no face for every image. It is
// used when no analyzer endpoint is configured.
func NewDisabled() Classifier { return disabled{} }

func (disabled) Classify(context.Context, []byte) models.EmotionSample { return NoFace() }
func (disabled) Available(context.Context) bool                        { return false }
func (disabled) Name() string                                          { return "disabled" }
