package models

import "time"

// Emotion labels produced by the face classifier. Closed set.
const (
	EmotionAngry     = "angry"
	EmotionDisgusted = "disgusted"
	EmotionFearful   = "fearful"
	EmotionHappy     = "happy"
	EmotionSad       = "sad"
	EmotionSurprised = "surprised"
	EmotionNeutral   = "neutral"
)

var EmotionLabels = []string{
	EmotionAngry, EmotionDisgusted, EmotionFearful, EmotionHappy,
	EmotionSad, EmotionSurprised, EmotionNeutral,
}

func IsEmotionLabel(s string) bool {
	for _, l := range EmotionLabels {
		if l == s {
			return true
		}
	}
	return false
}

type FaceRegion struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
	W int `json:"w" bson:"w"`
	H int `json:"h" bson:"h"`
}

type EmotionSample struct {
	Emotions     map[string]float64 `json:"emotions" bson:"emotions"`
	Dominant     string             `json:"dominant_emotion,omitempty" bson:"dominant_emotion,omitempty"`
	Confidence   float64            `json:"confidence" bson:"confidence"`
	FaceDetected bool               `json:"face_detected" bson:"face_detected"`
	FaceRegion   *FaceRegion        `json:"face_region,omitempty" bson:"face_region,omitempty"`
	Timestamp    time.Time          `json:"timestamp" bson:"timestamp"`
}

type EmotionSummary struct {
	TotalFrames       int                `json:"total_frames" bson:"total_frames"`
	Distribution      map[string]float64 `json:"emotion_distribution" bson:"emotion_distribution"`
	MostCommon        string             `json:"most_common_emotion,omitempty" bson:"most_common_emotion,omitempty"`
	AverageConfidence float64            `json:"average_confidence" bson:"average_confidence"`
	EngagementScore   float64            `json:"engagement_score" bson:"engagement_score"`
	Timeline          []EmotionSample    `json:"timeline" bson:"timeline"`
}

// EmotionFrame is one client-captured frame. Timestamp is unix seconds.
type EmotionFrame struct {
	ImageData string  `json:"image_data" binding:"required"`
	Timestamp float64 `json:"timestamp"`
}

type BatchEmotionResult struct {
	FramesAnalyzed int             `json:"frames_analyzed"`
	Aggregated     EmotionSummary  `json:"aggregated_emotions"`
	Timeline       []EmotionSample `json:"timeline"`
}

type EmotionHealth struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Backend     string `json:"backend"`
}
