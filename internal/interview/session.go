package interview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
)

const (
	MinDurationMinutes = 5
	MaxDurationMinutes = 60

	contextRecords = 2
)

// DurationLimits bounds the accepted interview length in minutes.
type DurationLimits struct {
	Min int
	Max int
}

func DefaultDurationLimits() DurationLimits {
	return DurationLimits{Min: MinDurationMinutes, Max: MaxDurationMinutes}
}

// Gateway is the language-model collaborator. Implementations must never fail:
// upstream errors are turned into fallback values.
type Gateway interface {
	GenerateQuestion(ctx context.Context, jobRole string, difficulty models.Difficulty, number int, history string) string
	EvaluateAnswer(ctx context.Context, question, answer, jobRole string) models.Evaluation
	GenerateSummary(ctx context.Context, jobRole string, qa []models.QARecord, emotions *models.EmotionSummary) models.Assessment
}

type Params struct {
	JobRole         string
	Difficulty      models.Difficulty
	DurationMinutes int
	UserID          string
	CandidateName   string
}

type Option func(*Session)

// WithDurationLimits overrides the accepted duration range. A zero bound keeps
// the default.
func WithDurationLimits(l DurationLimits) Option {
	return func(s *Session) {
		if l.Min > 0 {
			s.limits.Min = l.Min
		}
		if l.Max > 0 {
			s.limits.Max = l.Max
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// TotalQuestionsFor maps an interview length to a question budget.
func TotalQuestionsFor(durationMinutes int) int {
	switch {
	case durationMinutes <= 15:
		return 3
	case durationMinutes <= 30:
		return 5
	default:
		return 7
	}
}

// Session holds all state of one interview attempt. External calls are made
// without holding mu: state is reserved, the call runs, then the result is
// committed.
type Session struct {
	mu sync.Mutex

	id              string
	userID          string
	candidateName   string
	jobRole         string
	difficulty      models.Difficulty
	durationMinutes int
	createdAt       time.Time
	totalQuestions  int

	questionIndex int
	pending       string
	hasPending    bool
	generating    bool
	completed     bool
	finished      bool
	state         models.SessionState

	qa       []models.QARecord
	emotions []models.EmotionSample

	// final is the report shown when the interview ended; set once.
	final      *models.InterviewReport
	finishedAt time.Time

	gateway    Gateway
	aggregator *Aggregator
	limits     DurationLimits
	now        func() time.Time
}

func New(p Params, gw Gateway, agg *Aggregator, opts ...Option) (*Session, error) {
	const op = "Session.New"

	p.JobRole = strings.TrimSpace(p.JobRole)
	if p.JobRole == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "job_role is required", utils.ErrInvalidInput)
	}
	if p.Difficulty == "" {
		p.Difficulty = models.DifficultyMedium
	}
	if !p.Difficulty.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "difficulty must be one of easy, medium, hard", utils.ErrInvalidInput)
	}
	if gw == nil {
		return nil, utils.E(utils.CodeInternal, op, "gateway is not configured", nil)
	}
	if agg == nil {
		agg = NewAggregator(DefaultEngagementLabels())
	}

	s := &Session{
		id:              uuid.NewString(),
		userID:          p.UserID,
		candidateName:   strings.TrimSpace(p.CandidateName),
		jobRole:         p.JobRole,
		difficulty:      p.Difficulty,
		durationMinutes: p.DurationMinutes,
		totalQuestions:  TotalQuestionsFor(p.DurationMinutes),
		state:           models.StateCreated,
		gateway:         gw,
		aggregator:      agg,
		limits:          DefaultDurationLimits(),
		now:             time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if p.DurationMinutes < s.limits.Min || p.DurationMinutes > s.limits.Max {
		return nil, utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("duration_minutes must be between %d and %d", s.limits.Min, s.limits.Max), utils.ErrInvalidInput)
	}
	s.createdAt = s.now()
	return s, nil
}

func (s *Session) ID() string                    { return s.id }
func (s *Session) UserID() string                { return s.userID }
func (s *Session) JobRole() string               { return s.jobRole }
func (s *Session) Difficulty() models.Difficulty { return s.difficulty }
func (s *Session) TotalQuestions() int           { return s.totalQuestions }
func (s *Session) CreatedAt() time.Time          { return s.createdAt }
func (s *Session) Gateway() Gateway              { return s.gateway }

func (s *Session) QuestionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionIndex
}

func (s *Session) PendingQuestion() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, s.hasPending
}

func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextQuestion asks the gateway for the next question and makes it pending.
// Calling it while a question is already pending replaces that question.
func (s *Session) NextQuestion(ctx context.Context) (string, error) {
	const op = "Session.NextQuestion"

	s.mu.Lock()
	if s.state == models.StateCompleted || s.completed {
		s.mu.Unlock()
		return "", utils.E(utils.CodeConflict, op, "interview already completed", utils.ErrSessionCompleted)
	}
	if s.generating {
		s.mu.Unlock()
		return "", utils.E(utils.CodeConflict, op, "question generation already in progress", nil)
	}
	if s.questionIndex >= s.totalQuestions {
		s.markCompletedLocked()
		s.mu.Unlock()
		return "", utils.E(utils.CodeConflict, op, "interview already completed", utils.ErrSessionCompleted)
	}
	s.questionIndex++
	number := s.questionIndex
	history := s.contextLocked()
	s.generating = true
	s.mu.Unlock()

	question := s.gateway.GenerateQuestion(ctx, s.jobRole, s.difficulty, number, history)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating = false
	if s.finished {
		// finished while the call ran: the question was never posed
		s.questionIndex--
		return "", utils.E(utils.CodeConflict, op, "interview already completed", utils.ErrSessionCompleted)
	}
	s.pending = question
	s.hasPending = true
	s.state = models.StateQuestionPending
	return question, nil
}

// contextLocked joins the last two Q&A pairs as "Q: ...\nA: ...".
func (s *Session) contextLocked() string {
	if len(s.qa) == 0 {
		return ""
	}
	recent := s.qa
	if len(recent) > contextRecords {
		recent = recent[len(recent)-contextRecords:]
	}
	parts := make([]string, 0, len(recent))
	for _, r := range recent {
		parts = append(parts, "Q: "+r.Question+"\nA: "+r.Answer)
	}
	return strings.Join(parts, "\n")
}

// SubmitAnswer records the answer to the pending question and evaluates it.
// Evaluation never fails the call; the gateway degrades to a default score.
func (s *Session) SubmitAnswer(ctx context.Context, answer string) (models.QARecord, error) {
	const op = "Session.SubmitAnswer"

	s.mu.Lock()
	if !s.hasPending {
		s.mu.Unlock()
		return models.QARecord{}, utils.E(utils.CodeConflict, op, "no active question to answer", utils.ErrNoPendingQuestion)
	}
	question := s.pending
	s.qa = append(s.qa, models.QARecord{
		Question:       question,
		Answer:         answer,
		Timestamp:      s.now().UTC(),
		QuestionNumber: s.questionIndex,
	})
	pos := len(s.qa) - 1
	s.pending = ""
	s.hasPending = false
	if s.completed {
		s.state = models.StateCompleted
	} else {
		s.state = models.StateAnswered
	}
	s.mu.Unlock()

	eval := s.gateway.EvaluateAnswer(ctx, question, answer, s.jobRole)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.qa[pos].Evaluation = &eval
	return s.qa[pos], nil
}

// IsComplete reports whether the question budget or the time budget is used
// up. Once true it stays true.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return true
	}
	if s.questionIndex >= s.totalQuestions || s.elapsedLocked() > time.Duration(s.durationMinutes)*time.Minute {
		s.markCompletedLocked()
		return true
	}
	return false
}

func (s *Session) markCompletedLocked() {
	s.completed = true
	if !s.hasPending && !s.generating {
		s.state = models.StateCompleted
	}
}

// Finish terminates the interview early. A pending question is dropped and a
// question still being generated is discarded on return.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
}

func (s *Session) finishLocked() {
	s.completed = true
	s.finished = true
	s.pending = ""
	s.hasPending = false
	s.state = models.StateCompleted
	if s.finishedAt.IsZero() {
		s.finishedAt = s.now()
	}
}

// Conclude stores rep as the final report unless one is already stored, and
// finishes the session. It returns the stored report and whether rep won.
func (s *Session) Conclude(rep models.InterviewReport) (models.InterviewReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
	if s.final != nil {
		return *s.final, false
	}
	s.final = &rep
	return rep, true
}

// FinalReport returns the report stored by Conclude.
func (s *Session) FinalReport() (models.InterviewReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.final == nil {
		return models.InterviewReport{}, false
	}
	return *s.final, true
}

// ConcludedBefore reports whether the final report was stored before t.
func (s *Session) ConcludedBefore(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.final != nil && s.finishedAt.Before(t)
}

// RecordEmotionSample appends a classifier result with a server timestamp.
func (s *Session) RecordEmotionSample(sample models.EmotionSample) models.EmotionSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sample.Emotions == nil {
		sample.Emotions = map[string]float64{}
	}
	sample.Timestamp = s.now().UTC()
	s.emotions = append(s.emotions, sample)
	return sample
}

func (s *Session) Records() []models.QARecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.QARecord(nil), s.qa...)
}

// LastRecord returns the most recently answered record.
func (s *Session) LastRecord() (models.QARecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.qa) == 0 {
		return models.QARecord{}, false
	}
	return s.qa[len(s.qa)-1], true
}

func (s *Session) EmotionSummary() models.EmotionSummary {
	s.mu.Lock()
	samples := append([]models.EmotionSample(nil), s.emotions...)
	s.mu.Unlock()
	return s.aggregator.Aggregate(samples)
}

func (s *Session) elapsedLocked() time.Duration {
	return s.now().Sub(s.createdAt)
}

// ElapsedMinutes is the wall-clock time since creation.
func (s *Session) ElapsedMinutes() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked().Minutes()
}

func (s *Session) Status() models.SessionStatus {
	done := s.IsComplete()

	s.mu.Lock()
	defer s.mu.Unlock()
	status := models.StatusActive
	if done {
		status = models.StatusCompleted
	}
	return models.SessionStatus{
		SessionID:       s.id,
		JobRole:         s.jobRole,
		Difficulty:      s.difficulty,
		State:           s.state,
		CurrentQuestion: s.questionIndex,
		TotalQuestions:  s.totalQuestions,
		PendingQuestion: s.pending,
		ElapsedMinutes:  s.elapsedLocked().Minutes(),
		Status:          status,
		CreatedAt:       s.createdAt,
	}
}

// Summarize builds the final report. It may be called before the interview is
// complete.
func (s *Session) Summarize(ctx context.Context) models.InterviewReport {
	s.mu.Lock()
	records := append([]models.QARecord(nil), s.qa...)
	samples := append([]models.EmotionSample(nil), s.emotions...)
	asked := s.questionIndex
	elapsed := s.elapsedLocked().Minutes()
	s.mu.Unlock()

	emotions := s.aggregator.Aggregate(samples)
	var emoArg *models.EmotionSummary
	if emotions.TotalFrames > 0 {
		emoArg = &emotions
	}
	assessment := s.gateway.GenerateSummary(ctx, s.jobRole, records, emoArg)

	return models.InterviewReport{
		SessionID:       s.id,
		UserID:          s.userID,
		CandidateName:   s.candidateName,
		JobRole:         s.jobRole,
		Difficulty:      s.difficulty,
		DurationMinutes: elapsed,
		QuestionsAsked:  asked,
		QAPairs:         records,
		EmotionAnalysis: emotions,
		AIAssessment:    assessment,
		CompletedAt:     s.now().UTC(),
	}
}
