package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"

	"github.com/yoockh/yoointerview/internal/interview"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/face"
	"github.com/yoockh/yoointerview/internal/utils"
)

const MaxImageBytes = 5 << 20

type EmotionService interface {
	// Analyze validates an encoded image and classifies it. Classifier failures
	// come back as a no-face sample, not an error.
	Analyze(ctx context.Context, img []byte) (models.EmotionSample, error)
	AnalyzeBase64(ctx context.Context, encoded string) (models.EmotionSample, error)
	BatchAnalyze(ctx context.Context, frames []models.EmotionFrame) (*models.BatchEmotionResult, error)
	Health(ctx context.Context) models.EmotionHealth
}

type emotionService struct {
	classifier face.Classifier
	aggregator *interview.Aggregator
	log        *logrus.Logger
}

func NewEmotionService(classifier face.Classifier, aggregator *interview.Aggregator, log *logrus.Logger) EmotionService {
	if aggregator == nil {
		aggregator = interview.NewAggregator(interview.DefaultEngagementLabels())
	}
	return &emotionService{classifier: classifier, aggregator: aggregator, log: log}
}

// validateImage checks the bytes decode as jpeg, png or webp before anything
// leaves the process.
func validateImage(op string, img []byte) error {
	if len(img) == 0 {
		return utils.E(utils.CodeInvalidArgument, op, "image is empty", utils.ErrInvalidInput)
	}
	if len(img) > MaxImageBytes {
		return utils.E(utils.CodeInvalidArgument, op, "image too large", utils.ErrInvalidInput)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return utils.E(utils.CodeInvalidArgument, op, "invalid image data", utils.ErrInvalidInput)
	}
	return nil
}

// decodeBase64Image accepts raw base64 or a data URL.
func decodeBase64Image(op, encoded string) ([]byte, error) {
	s := strings.TrimSpace(encoded)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	if s == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "missing 'image' field in request", utils.ErrInvalidInput)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		b, err = base64.RawStdEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid base64 image", utils.ErrInvalidInput)
	}
	return b, nil
}

func (s *emotionService) Analyze(ctx context.Context, img []byte) (models.EmotionSample, error) {
	const op = "EmotionService.Analyze"

	if err := validateImage(op, img); err != nil {
		return models.EmotionSample{}, err
	}
	start := time.Now()
	sample := s.classifier.Classify(ctx, img)
	s.log.WithFields(logrus.Fields{
		"op":            op,
		"face_detected": sample.FaceDetected,
		"dominant":      sample.Dominant,
		"latency_ms":    time.Since(start).Milliseconds(),
	}).Debug("frame analyzed")
	return sample, nil
}

func (s *emotionService) AnalyzeBase64(ctx context.Context, encoded string) (models.EmotionSample, error) {
	const op = "EmotionService.AnalyzeBase64"

	img, err := decodeBase64Image(op, encoded)
	if err != nil {
		return models.EmotionSample{}, err
	}
	return s.Analyze(ctx, img)
}

func (s *emotionService) BatchAnalyze(ctx context.Context, frames []models.EmotionFrame) (*models.BatchEmotionResult, error) {
	const op = "EmotionService.BatchAnalyze"

	timeline := make([]models.EmotionSample, 0, len(frames))
	for i, f := range frames {
		sample, err := s.AnalyzeBase64(ctx, f.ImageData)
		if err != nil {
			s.log.WithFields(logrus.Fields{"op": op, "frame": i}).WithError(err).Warn("skipping frame")
			continue
		}
		sample.Timestamp = unixSeconds(f.Timestamp)
		timeline = append(timeline, sample)
	}
	if len(timeline) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no frames could be analyzed", utils.ErrInvalidInput)
	}

	return &models.BatchEmotionResult{
		FramesAnalyzed: len(timeline),
		Aggregated:     s.aggregator.Aggregate(timeline),
		Timeline:       timeline,
	}, nil
}

func (s *emotionService) Health(ctx context.Context) models.EmotionHealth {
	return models.EmotionHealth{
		Status:      "healthy",
		ModelLoaded: s.classifier.Available(ctx),
		Backend:     s.classifier.Name(),
	}
}

func unixSeconds(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}
