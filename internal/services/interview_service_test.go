package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/repositories/memory"
	"github.com/yoockh/yoointerview/internal/utils"
)

// scriptedProvider answers by prompt kind so tests don't depend on call order.
type scriptedProvider struct {
	mu        sync.Mutex
	calls     int
	summaries int
}

func (p *scriptedProvider) Complete(_ context.Context, r llm.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	last := r.Messages[len(r.Messages)-1].Content
	switch {
	case strings.Contains(last, "Generate question #"):
		return fmt.Sprintf("Question %d?", p.calls), nil
	case strings.Contains(last, "Evaluate this interview answer"):
		return `{"score": 6, "feedback": "ok", "strengths": ["clear"], "improvements": []}`, nil
	case strings.Contains(last, "comprehensive interview summary"):
		p.summaries++
		return fmt.Sprintf(`{"assessment": "Good fit", "strengths": ["clear"], "concerns": [], "recommendation": "Yes", "score": %d}`, 70+p.summaries), nil
	case strings.Contains(last, "follow-up question"):
		return "Why did you choose that design?", nil
	}
	return "", errors.New("unexpected prompt")
}

func (p *scriptedProvider) Name() string { return "scripted" }
func (p *scriptedProvider) Close() error { return nil }

type fakeReports struct {
	mu    sync.Mutex
	saved map[string]models.InterviewReport
}

func (f *fakeReports) Save(_ context.Context, r *models.InterviewReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[r.SessionID] = *r
	return nil
}

func (f *fakeReports) GetBySessionID(_ context.Context, id string) (*models.InterviewReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.saved[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &r, nil
}

func (f *fakeReports) ListByUser(_ context.Context, userID string, _ int64) ([]models.InterviewReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.InterviewReport
	for _, r := range f.saved {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeTurns struct {
	mu    sync.Mutex
	turns []models.InterviewTurn
}

func (f *fakeTurns) InsertBatch(_ context.Context, turns []models.InterviewTurn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, turns...)
	return nil
}

type serviceFixture struct {
	svc      InterviewService
	provider *scriptedProvider
	reports  *fakeReports
	turns    *fakeTurns
	cache    *cache.MemoryCache
}

func newInterviewFixture(t *testing.T) serviceFixture {
	t.Helper()
	p := &scriptedProvider{}
	f := serviceFixture{
		provider: p,
		reports: &fakeReports{saved: map[string]models.InterviewReport{}},
		turns:   &fakeTurns{},
		cache:   cache.NewMemoryCache(),
	}
	f.svc = NewInterviewService(InterviewDeps{
		Store:      memory.NewSessionStore(),
		NewGateway: func() LLMGateway { return NewLLMGateway(p, quietLogger(), GatewayConfig{}) },
		Reports:    f.reports,
		Turns:      f.turns,
		Cache:      f.cache,
		Log:        quietLogger(),
	})
	return f
}

func TestInterviewServiceFullFlow(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, StartInput{JobRole: "Backend Engineer", Difficulty: models.DifficultyMedium, DurationMinutes: 15, UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 3, start.TotalQuestions)
	assert.Equal(t, 1, start.QuestionNumber)
	require.NotNil(t, start.Question)
	assert.Equal(t, models.StatusActive, start.Status)

	var last *models.InterviewResponse
	for i, a := range []string{"first", "second", "third"} {
		last, err = f.svc.Answer(ctx, start.SessionID, a)
		require.NoError(t, err)
		require.NotNil(t, last.Evaluation)
		assert.Equal(t, 6, last.Evaluation.Score)
		if i < 2 {
			assert.Equal(t, models.StatusActive, last.Status)
			assert.Equal(t, i+2, last.QuestionNumber)
		}
	}
	assert.Equal(t, models.StatusCompleted, last.Status)
	assert.Nil(t, last.Question)
	require.NotNil(t, last.Summary)
	require.Len(t, last.Summary.QAPairs, 3)
	assert.Equal(t, "first", last.Summary.QAPairs[0].Answer)
	assert.Equal(t, "third", last.Summary.QAPairs[2].Answer)
	assert.Equal(t, models.RecommendYes, last.Summary.AIAssessment.Recommendation)

	st, err := f.svc.Status(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, st.Status)
	assert.Equal(t, 3, st.CurrentQuestion)

	fu, ok, err := f.svc.FollowUp(ctx, start.SessionID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, fu)

	rep, err := f.svc.End(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Len(t, rep.QAPairs, 3)
	assert.False(t, f.svc.Exists(start.SessionID))

	assert.Contains(t, f.reports.saved, start.SessionID)
	require.Len(t, f.turns.turns, 3)
	assert.Equal(t, 6, f.turns.turns[0].Score)
	assert.Equal(t, "u1", f.turns.turns[0].UserID)

	got, err := f.svc.Summary(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, start.SessionID, got.SessionID)

	hist, err := f.svc.History(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, hist, 1)

	_, err = f.svc.End(ctx, start.SessionID)
	assert.True(t, errors.Is(err, utils.ErrNotFound))
}

func (p *scriptedProvider) summaryCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summaries
}

func TestCompletedInterviewIsArchivedOnce(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, StartInput{JobRole: "Dev", DurationMinutes: 10, UserID: "u7"})
	require.NoError(t, err)
	var last *models.InterviewResponse
	for _, a := range []string{"a", "b", "c"} {
		last, err = f.svc.Answer(ctx, start.SessionID, a)
		require.NoError(t, err)
	}
	require.Equal(t, models.StatusCompleted, last.Status)
	require.NotNil(t, last.Summary)
	shown := last.Summary.AIAssessment.Score

	// archived as soon as the last answer lands
	hist, err := f.svc.History(ctx, "u7", 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, shown, hist[0].AIAssessment.Score)
	assert.Len(t, f.turns.turns, 3)
	assert.Equal(t, 1, f.provider.summaryCalls())

	got, err := f.svc.Summary(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, shown, got.AIAssessment.Score)

	rep, err := f.svc.End(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, shown, rep.AIAssessment.Score)
	assert.Equal(t, 1, f.provider.summaryCalls())
	assert.Len(t, f.turns.turns, 3)
	assert.Equal(t, shown, f.reports.saved[start.SessionID].AIAssessment.Score)
}

func TestEvictConcludedDropsOnlyFinishedSessions(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	done, err := f.svc.Start(ctx, StartInput{JobRole: "Dev", DurationMinutes: 10})
	require.NoError(t, err)
	for _, a := range []string{"a", "b", "c"} {
		_, err = f.svc.Answer(ctx, done.SessionID, a)
		require.NoError(t, err)
	}
	live, err := f.svc.Start(ctx, StartInput{JobRole: "Dev", DurationMinutes: 10})
	require.NoError(t, err)

	assert.Equal(t, 0, f.svc.EvictConcluded(time.Now().Add(-time.Hour)))
	assert.True(t, f.svc.Exists(done.SessionID))

	assert.Equal(t, 1, f.svc.EvictConcluded(time.Now().Add(time.Second)))
	assert.False(t, f.svc.Exists(done.SessionID))
	assert.True(t, f.svc.Exists(live.SessionID))

	// the archived report still answers
	rep, err := f.svc.Summary(ctx, done.SessionID)
	require.NoError(t, err)
	assert.Len(t, rep.QAPairs, 3)
}

func TestInterviewServiceErrors(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, StartInput{JobRole: "Dev", DurationMinutes: 3})
	assert.Equal(t, 400, utils.HTTPStatus(err))

	_, err = f.svc.Answer(ctx, "missing", "hi")
	assert.Equal(t, 404, utils.HTTPStatus(err))

	_, err = f.svc.Status(ctx, "missing")
	assert.Equal(t, 404, utils.HTTPStatus(err))

	_, err = f.svc.Summary(ctx, "missing")
	assert.Equal(t, 404, utils.HTTPStatus(err))

	start, err := f.svc.Start(ctx, StartInput{JobRole: "Dev", DurationMinutes: 10})
	require.NoError(t, err)

	_, err = f.svc.Answer(ctx, start.SessionID, "   ")
	assert.Equal(t, 400, utils.HTTPStatus(err))

	_, _, err = f.svc.FollowUp(ctx, start.SessionID)
	assert.Equal(t, 409, utils.HTTPStatus(err))

	_, err = f.svc.History(ctx, "", 10)
	assert.Equal(t, 401, utils.HTTPStatus(err))
}

func TestInterviewServiceRecordEmotionFeedsSummary(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	start, err := f.svc.Start(ctx, StartInput{JobRole: "Dev", DurationMinutes: 10})
	require.NoError(t, err)

	_, err = f.svc.RecordEmotion(ctx, start.SessionID, models.EmotionSample{Dominant: "happy", Confidence: 0.8, FaceDetected: true})
	require.NoError(t, err)
	_, err = f.svc.RecordEmotion(ctx, start.SessionID, models.EmotionSample{})
	require.NoError(t, err)

	rep, err := f.svc.Summary(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.EmotionAnalysis.TotalFrames)
	assert.InDelta(t, 50.0, rep.EmotionAnalysis.Distribution["happy"], 1e-9)
	assert.InDelta(t, 75.0, rep.EmotionAnalysis.EngagementScore, 1e-9)

	_, err = f.svc.RecordEmotion(ctx, "missing", models.EmotionSample{})
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	list := f.svc.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, start.SessionID, list[0].SessionID)
}
