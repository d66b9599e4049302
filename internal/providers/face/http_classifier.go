package face

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/models"
)

// The analyzer sidecar speaks DeepFace vocabulary.
var labelMapping = map[string]string{
	"angry":    models.EmotionAngry,
	"disgust":  models.EmotionDisgusted,
	"fear":     models.EmotionFearful,
	"happy":    models.EmotionHappy,
	"sad":      models.EmotionSad,
	"surprise": models.EmotionSurprised,
	"neutral":  models.EmotionNeutral,
}

type analyzeReq struct {
	Image string `json:"image"`
}

type analyzeResp struct {
	FaceDetected    *bool              `json:"face_detected"`
	Emotion         map[string]float64 `json:"emotion"`
	DominantEmotion string             `json:"dominant_emotion"`
	Region          *models.FaceRegion `json:"region"`
	Error           string             `json:"error"`
}

type HTTPClassifier struct {
	c       *http.Client
	baseURL string
	log     *logrus.Logger
}

func NewHTTPClassifier(baseURL string, log *logrus.Logger) *HTTPClassifier {
	return &HTTPClassifier{
		c:       &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

func (h *HTTPClassifier) Name() string { return "http:" + h.baseURL }

func (h *HTTPClassifier) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := h.c.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (h *HTTPClassifier) Classify(ctx context.Context, image []byte) models.EmotionSample {
	out, err := h.analyze(ctx, image)
	if err != nil {
		h.log.WithFields(logrus.Fields{"op": "HTTPClassifier.Classify"}).WithError(err).Warn("face analysis failed")
		return NoFace()
	}
	return toSample(out)
}

func (h *HTTPClassifier) analyze(ctx context.Context, image []byte) (*analyzeResp, error) {
	b, _ := json.Marshal(analyzeReq{Image: base64.StdEncoding.EncodeToString(image)})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/analyze", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("face %s: %s", resp.Status, string(body))
	}

	var out analyzeResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("face decode: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("face: %s", out.Error)
	}
	return &out, nil
}

// toSample maps analyzer output onto the closed label set. Scores come in as
// percentages and are scaled to 0..1.
func toSample(r *analyzeResp) models.EmotionSample {
	if (r.FaceDetected != nil && !*r.FaceDetected) || len(r.Emotion) == 0 {
		return NoFace()
	}

	var total float64
	for _, v := range r.Emotion {
		total += v
	}
	scale := 1.0
	if total > 1.5 {
		scale = 100
	}

	emotions := make(map[string]float64, len(r.Emotion))
	for k, v := range r.Emotion {
		lbl, ok := labelMapping[strings.ToLower(k)]
		if !ok {
			continue
		}
		emotions[lbl] = v / scale
	}

	dominant, ok := labelMapping[strings.ToLower(r.DominantEmotion)]
	if !ok {
		dominant = models.EmotionNeutral
	}
	return models.EmotionSample{
		Emotions:     emotions,
		Dominant:     dominant,
		Confidence:   emotions[dominant],
		FaceDetected: true,
		FaceRegion:   r.Region,
	}
}
