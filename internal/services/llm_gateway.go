package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/interview"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/llm"
)

const (
	FallbackQuestion   = "Can you tell me about your experience and background?"
	FallbackFeedback   = "Unable to evaluate answer at this time."
	FallbackAssessment = "Unable to generate summary"

	fallbackEvalScore = 5

	DefaultLLMTimeout   = 30 * time.Second
	DefaultHistoryLimit = 20
)

type generation struct {
	temperature float64
	maxTokens   int
}

var (
	questionGen = generation{temperature: 0.7, maxTokens: 150}
	evalGen     = generation{temperature: 0.5, maxTokens: 300}
	summaryGen  = generation{temperature: 0.5, maxTokens: 500}
	followUpGen = generation{temperature: 0.7, maxTokens: 100}
)

// LLMGateway wraps the language model for one interview. Every method is total:
// transport and parse failures come back as fallback values.
type LLMGateway interface {
	interview.Gateway
	// GenerateFollowUp returns false when the model declines or fails.
	GenerateFollowUp(ctx context.Context, question, answer string) (string, bool)
	History() []llm.Message
}

type GatewayConfig struct {
	Timeout      time.Duration
	HistoryLimit int
}

type llmGateway struct {
	provider llm.Provider
	log      *logrus.Logger
	timeout  time.Duration

	mu      sync.Mutex
	limit   int
	history []llm.Message
}

func NewLLMGateway(provider llm.Provider, log *logrus.Logger, cfg GatewayConfig) LLMGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	return &llmGateway{
		provider: provider,
		log:      log,
		timeout:  cfg.Timeout,
		limit:    cfg.HistoryLimit,
	}
}

func (g *llmGateway) complete(ctx context.Context, op string, gen generation, msgs []llm.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	out, err := g.provider.Complete(ctx, llm.Request{
		Messages:    msgs,
		Temperature: gen.temperature,
		MaxTokens:   gen.maxTokens,
	})
	fields := logrus.Fields{
		"op":         op,
		"provider":   g.provider.Name(),
		"latency_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		g.log.WithFields(fields).WithError(err).Warn("llm call failed, using fallback")
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		err = fmt.Errorf("empty completion")
		g.log.WithFields(fields).WithError(err).Warn("llm call failed, using fallback")
		return "", err
	}
	g.log.WithFields(fields).Debug("llm call completed")
	return out, nil
}

func (g *llmGateway) remember(content string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.history = append(g.history, llm.Message{Role: llm.RoleAssistant, Content: content})
	if over := len(g.history) - g.limit; over > 0 {
		g.history = append(g.history[:0:0], g.history[over:]...)
	}
}

func (g *llmGateway) History() []llm.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]llm.Message(nil), g.history...)
}

func (g *llmGateway) GenerateQuestion(ctx context.Context, jobRole string, difficulty models.Difficulty, number int, history string) string {
	const op = "LLMGateway.GenerateQuestion"

	system := fmt.Sprintf("You are an expert interviewer conducting a %s level interview for a %s position. "+
		"Generate thoughtful, relevant interview questions that assess both technical skills and behavioral competencies. "+
		"Be professional and encouraging. Reply with the question only.", difficulty, jobRole)

	var user strings.Builder
	fmt.Fprintf(&user, "Generate question #%d for the interview.", number)
	if history != "" {
		user.WriteString("\n\nContext from previous answers:\n")
		user.WriteString(history)
	}
	if asked := g.History(); len(asked) > 0 {
		user.WriteString("\n\nDo not repeat these earlier questions:")
		for _, m := range asked {
			user.WriteString("\n- ")
			user.WriteString(m.Content)
		}
	}

	out, err := g.complete(ctx, op, questionGen, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user.String()},
	})
	if err != nil {
		return FallbackQuestion
	}
	g.remember(out)
	return out
}

func (g *llmGateway) EvaluateAnswer(ctx context.Context, question, answer, jobRole string) models.Evaluation {
	const op = "LLMGateway.EvaluateAnswer"

	prompt := fmt.Sprintf(`Evaluate this interview answer for a %s position.

Question: %s
Answer: %s

Provide:
1. Score (0-10)
2. Brief feedback
3. Key strengths
4. Areas for improvement

Format as JSON with keys "score", "feedback", "strengths", "improvements".`, jobRole, question, answer)

	out, err := g.complete(ctx, op, evalGen, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are an expert interviewer providing constructive feedback."},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		return models.Evaluation{
			Score:        fallbackEvalScore,
			Feedback:     FallbackFeedback,
			Strengths:    []string{},
			Improvements: []string{},
			Source:       models.OutputFallback,
		}
	}
	ev := parseEvaluation(out)
	if ev.Source == models.OutputUnstructured {
		g.log.WithField("op", op).Info("evaluation reply was not structured")
	}
	return ev
}

func (g *llmGateway) GenerateSummary(ctx context.Context, jobRole string, qa []models.QARecord, emotions *models.EmotionSummary) models.Assessment {
	const op = "LLMGateway.GenerateSummary"

	pairs := make([]string, 0, len(qa))
	for _, r := range qa {
		pairs = append(pairs, "Q: "+r.Question+"\nA: "+r.Answer)
	}
	emotionContext := ""
	if emotions != nil {
		if b, err := json.MarshalIndent(emotionDigest(*emotions), "", "  "); err == nil {
			emotionContext = "\n\nEmotional Analysis:\n" + string(b)
		}
	}

	prompt := fmt.Sprintf(`Generate a comprehensive interview summary for a %s candidate.

Interview Transcript:
%s
%s

Provide:
1. Overall assessment
2. Key strengths
3. Areas of concern
4. Hiring recommendation (Strong Yes/Yes/Maybe/No)
5. Overall score (0-100)

Format as JSON with keys "assessment", "strengths", "concerns", "recommendation", "score".`,
		jobRole, strings.Join(pairs, "\n\n"), emotionContext)

	out, err := g.complete(ctx, op, summaryGen, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are an expert HR interviewer providing hiring assessments."},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		return models.Assessment{
			Assessment:     FallbackAssessment,
			Strengths:      []string{},
			Concerns:       []string{},
			Recommendation: models.RecommendManualReview,
			Score:          0,
			Source:         models.OutputFallback,
		}
	}
	return parseAssessment(out)
}

func (g *llmGateway) GenerateFollowUp(ctx context.Context, question, answer string) (string, bool) {
	const op = "LLMGateway.GenerateFollowUp"

	prompt := fmt.Sprintf(`Based on this interview exchange, generate a relevant follow-up question:

Q: %s
A: %s

Follow-up (or say "NONE" if no follow-up needed):`, question, answer)

	out, err := g.complete(ctx, op, followUpGen, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil || strings.Contains(strings.ToUpper(out), "NONE") {
		return "", false
	}
	g.remember(out)
	return out, true
}

// emotionDigest drops the per-frame timeline from the prompt.
func emotionDigest(s models.EmotionSummary) map[string]any {
	return map[string]any{
		"total_frames":         s.TotalFrames,
		"emotion_distribution": s.Distribution,
		"most_common_emotion":  s.MostCommon,
		"average_confidence":   s.AverageConfidence,
		"engagement_score":     s.EngagementScore,
	}
}
