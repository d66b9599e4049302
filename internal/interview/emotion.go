package interview

import (
	"sort"

	"github.com/yoockh/yoointerview/internal/models"
)

// RecentWindow is how many trailing samples a summary carries for display.
const RecentWindow = 10

// EngagementLabels selects which dominant labels push the engagement score
// up or down.
type EngagementLabels struct {
	Positive []string
	Negative []string
}

// DefaultEngagementLabels keeps the historical label sets. Only "happy" is in
// the classifier vocabulary; see Unknown.
func DefaultEngagementLabels() EngagementLabels {
	return EngagementLabels{
		Positive: []string{"happy", "focused", "confident"},
		Negative: []string{"nervous", "distracted", "confused"},
	}
}

// Unknown lists configured labels the face classifier never emits.
func (l EngagementLabels) Unknown() []string {
	var out []string
	for _, set := range [][]string{l.Positive, l.Negative} {
		for _, lbl := range set {
			if !models.IsEmotionLabel(lbl) {
				out = append(out, lbl)
			}
		}
	}
	return out
}

type Aggregator struct {
	labels EngagementLabels
}

func NewAggregator(labels EngagementLabels) *Aggregator {
	return &Aggregator{labels: labels}
}

// Aggregate reduces a timeline of samples into a summary. Percentages use the
// total sample count as denominator, so frames without a face dilute them.
func (a *Aggregator) Aggregate(samples []models.EmotionSample) models.EmotionSummary {
	out := models.EmotionSummary{
		Distribution:    map[string]float64{},
		Timeline:        []models.EmotionSample{},
		EngagementScore: 50,
	}
	if len(samples) == 0 {
		return out
	}

	counts := map[string]int{}
	var confSum float64
	var faces int
	for _, s := range samples {
		if !s.FaceDetected {
			continue
		}
		faces++
		confSum += s.Confidence
		if s.Dominant != "" {
			counts[s.Dominant]++
		}
	}

	total := len(samples)
	for lbl, n := range counts {
		out.Distribution[lbl] = float64(n) / float64(total) * 100
	}
	out.TotalFrames = total
	out.MostCommon = mostCommon(counts)
	if faces > 0 {
		out.AverageConfidence = confSum / float64(faces)
	}
	out.EngagementScore = EngagementScore(out.Distribution, a.labels)

	start := total - RecentWindow
	if start < 0 {
		start = 0
	}
	out.Timeline = append(out.Timeline, samples[start:]...)
	return out
}

// mostCommon picks the label with the highest count; ties go to the
// lexicographically smallest label.
func mostCommon(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

// EngagementScore is clamp(50 + positive%/2 - negative%/2, 0, 100).
func EngagementScore(distribution map[string]float64, labels EngagementLabels) float64 {
	var pos, neg float64
	for _, l := range labels.Positive {
		pos += distribution[l]
	}
	for _, l := range labels.Negative {
		neg += distribution[l]
	}
	score := 50 + pos/2 - neg/2
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
