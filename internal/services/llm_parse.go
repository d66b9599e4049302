package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/yoockh/yoointerview/internal/models"
)

const (
	defaultUnstructuredScore = 7
	defaultAssessmentScore   = 50
)

// extractJSON pulls the first JSON object out of a model reply. Reasoning
// blocks and markdown fences are dropped first.
func extractJSON(raw string) (string, bool) {
	s := raw
	if i := strings.LastIndex(s, "</think>"); i >= 0 {
		s = s[i+len("</think>"):]
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// decodeObject returns the reply as a JSON object, or nil when it is not one.
func decodeObject(raw string) map[string]any {
	js, ok := extractJSON(raw)
	if !ok {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(js), &m); err != nil {
		return nil
	}
	normalized := make(map[string]any, len(m))
	for k, v := range m {
		normalized[normalizeKey(k)] = v
	}
	return normalized
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	k = strings.NewReplacer(" ", "_", "-", "_").Replace(k)
	return k
}

func pick(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

var (
	evalScoreKeys        = []string{"score", "overall_score", "rating"}
	evalFeedbackKeys     = []string{"feedback", "brief_feedback", "comment", "comments"}
	evalStrengthKeys     = []string{"strengths", "key_strengths"}
	evalImprovementKeys  = []string{"improvements", "areas_for_improvement", "weaknesses"}
	sumAssessmentKeys    = []string{"assessment", "overall_assessment", "summary"}
	sumStrengthKeys      = []string{"strengths", "key_strengths"}
	sumConcernKeys       = []string{"concerns", "areas_of_concern", "weaknesses"}
	sumRecommendationKey = []string{"recommendation", "hiring_recommendation"}
	sumScoreKeys         = []string{"score", "overall_score"}
)

func hasAny(m map[string]any, groups ...[]string) bool {
	for _, g := range groups {
		if _, ok := pick(m, g...); ok {
			return true
		}
	}
	return false
}

// parseEvaluation turns a model reply into an evaluation. A reply that is not a
// recognisable JSON object is kept verbatim as feedback with score 7.
func parseEvaluation(raw string) models.Evaluation {
	m := decodeObject(raw)
	if m == nil || !hasAny(m, evalScoreKeys, evalFeedbackKeys, evalStrengthKeys, evalImprovementKeys) {
		return models.Evaluation{
			Score:        defaultUnstructuredScore,
			Feedback:     strings.TrimSpace(raw),
			Strengths:    []string{},
			Improvements: []string{},
			Source:       models.OutputUnstructured,
		}
	}

	ev := models.Evaluation{
		Score:        defaultUnstructuredScore,
		Strengths:    []string{},
		Improvements: []string{},
		Source:       models.OutputStructured,
	}
	if v, ok := pick(m, evalScoreKeys...); ok {
		if n, ok := toNumber(v); ok {
			ev.Score = clampInt(int(math.Round(n)), 0, 10)
		}
	}
	if v, ok := pick(m, evalFeedbackKeys...); ok {
		ev.Feedback = toText(v)
	}
	if v, ok := pick(m, evalStrengthKeys...); ok {
		ev.Strengths = toList(v)
	}
	if v, ok := pick(m, evalImprovementKeys...); ok {
		ev.Improvements = toList(v)
	}
	return ev
}

// parseAssessment turns a model reply into a hiring assessment. Unstructured
// replies become the assessment text with "Review Required" and score 50.
func parseAssessment(raw string) models.Assessment {
	m := decodeObject(raw)
	if m == nil || !hasAny(m, sumAssessmentKeys, sumStrengthKeys, sumConcernKeys, sumRecommendationKey, sumScoreKeys) {
		return models.Assessment{
			Assessment:     strings.TrimSpace(raw),
			Strengths:      []string{},
			Concerns:       []string{},
			Recommendation: models.RecommendReview,
			Score:          defaultAssessmentScore,
			Source:         models.OutputUnstructured,
		}
	}

	a := models.Assessment{
		Strengths:      []string{},
		Concerns:       []string{},
		Recommendation: models.RecommendReview,
		Score:          defaultAssessmentScore,
		Source:         models.OutputStructured,
	}
	if v, ok := pick(m, sumAssessmentKeys...); ok {
		a.Assessment = toText(v)
	}
	if v, ok := pick(m, sumStrengthKeys...); ok {
		a.Strengths = toList(v)
	}
	if v, ok := pick(m, sumConcernKeys...); ok {
		a.Concerns = toList(v)
	}
	if v, ok := pick(m, sumRecommendationKey...); ok {
		a.Recommendation = normalizeRecommendation(toText(v))
	}
	if v, ok := pick(m, sumScoreKeys...); ok {
		if n, ok := toNumber(v); ok {
			a.Score = clampInt(int(math.Round(n)), 0, 100)
		}
	}
	return a
}

func normalizeRecommendation(s string) models.Recommendation {
	switch strings.ToLower(strings.TrimSpace(strings.TrimRight(s, ".!"))) {
	case "strong yes":
		return models.RecommendStrongYes
	case "yes":
		return models.RecommendYes
	case "maybe":
		return models.RecommendMaybe
	case "no":
		return models.RecommendNo
	}
	return models.RecommendReview
}

// toNumber accepts 8, 8.5, "8" and "8/10".
func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if i := strings.Index(s, "/"); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func toText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		return strings.Join(toList(t), " ")
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func toList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := toText(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
