package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/yoointerview/internal/models"
)

func sample(dominant string, conf float64, face bool) models.EmotionSample {
	return models.EmotionSample{Dominant: dominant, Confidence: conf, FaceDetected: face}
}

func TestAggregateEmpty(t *testing.T) {
	agg := NewAggregator(DefaultEngagementLabels())
	out := agg.Aggregate(nil)

	assert.Equal(t, 0, out.TotalFrames)
	assert.Empty(t, out.Distribution)
	assert.Empty(t, out.MostCommon)
	assert.Zero(t, out.AverageConfidence)
	assert.Equal(t, 50.0, out.EngagementScore)
	assert.NotNil(t, out.Timeline)
}

func TestAggregateSingleLabel(t *testing.T) {
	agg := NewAggregator(DefaultEngagementLabels())
	out := agg.Aggregate([]models.EmotionSample{
		sample("neutral", 0.6, true),
		sample("neutral", 0.8, true),
		sample("neutral", 0.7, true),
	})

	assert.Equal(t, 3, out.TotalFrames)
	assert.Equal(t, map[string]float64{"neutral": 100.0}, out.Distribution)
	assert.Equal(t, "neutral", out.MostCommon)
	assert.InDelta(t, 0.7, out.AverageConfidence, 1e-9)
}

func TestAggregateNoFaceDilutesDistribution(t *testing.T) {
	agg := NewAggregator(DefaultEngagementLabels())
	out := agg.Aggregate([]models.EmotionSample{
		sample("happy", 0.9, true),
		sample("", 0, false),
		sample("sad", 0.5, true),
		sample("", 0, false),
	})

	assert.Equal(t, 4, out.TotalFrames)
	assert.InDelta(t, 25.0, out.Distribution["happy"], 1e-9)
	assert.InDelta(t, 25.0, out.Distribution["sad"], 1e-9)
	assert.InDelta(t, 0.7, out.AverageConfidence, 1e-9)
	assert.Equal(t, "happy", out.MostCommon)
}

func TestAggregateTieBreakIsLexicographic(t *testing.T) {
	agg := NewAggregator(DefaultEngagementLabels())
	out := agg.Aggregate([]models.EmotionSample{
		sample("surprised", 0.5, true),
		sample("angry", 0.5, true),
		sample("surprised", 0.5, true),
		sample("angry", 0.5, true),
		sample("neutral", 0.5, true),
	})
	assert.Equal(t, "angry", out.MostCommon)
}

func TestAggregateTimelineWindow(t *testing.T) {
	agg := NewAggregator(DefaultEngagementLabels())
	var in []models.EmotionSample
	for i := 0; i < 15; i++ {
		in = append(in, sample("neutral", float64(i)/100, true))
	}
	out := agg.Aggregate(in)
	require.Len(t, out.Timeline, RecentWindow)
	assert.InDelta(t, 0.05, out.Timeline[0].Confidence, 1e-9)
	assert.InDelta(t, 0.14, out.Timeline[9].Confidence, 1e-9)
}

func TestEngagementScore(t *testing.T) {
	labels := EngagementLabels{Positive: []string{"happy"}, Negative: []string{"sad", "fearful"}}

	assert.Equal(t, 50.0, EngagementScore(map[string]float64{}, labels))
	assert.Equal(t, 100.0, EngagementScore(map[string]float64{"happy": 100}, labels))
	assert.Equal(t, 25.0, EngagementScore(map[string]float64{"sad": 30, "fearful": 20}, labels))
	assert.Equal(t, 0.0, EngagementScore(map[string]float64{"sad": 100, "fearful": 100}, labels))
	assert.Equal(t, 60.0, EngagementScore(map[string]float64{"happy": 40, "sad": 20}, labels))
}

func TestDefaultEngagementLabelsUnknown(t *testing.T) {
	unknown := DefaultEngagementLabels().Unknown()
	assert.ElementsMatch(t, []string{"focused", "confident", "nervous", "distracted", "confused"}, unknown)

	custom := EngagementLabels{Positive: []string{"happy"}, Negative: []string{"sad"}}
	assert.Empty(t, custom.Unknown())
}
