package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/interview"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/repositories/memory"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/utils"
)

const archiveTimeout = 10 * time.Second

type StartInput struct {
	JobRole         string
	Difficulty      models.Difficulty
	DurationMinutes int
	CandidateName   string
	UserID          string
}

type InterviewService interface {
	Start(ctx context.Context, in StartInput) (*models.InterviewResponse, error)
	Answer(ctx context.Context, sessionID, answer string) (*models.InterviewResponse, error)
	Status(ctx context.Context, sessionID string) (*models.SessionStatus, error)
	// End removes the live session, archives it and returns the final report.
	End(ctx context.Context, sessionID string) (*models.InterviewReport, error)
	// Summary serves a report for a live or archived session.
	Summary(ctx context.Context, sessionID string) (*models.InterviewReport, error)
	FollowUp(ctx context.Context, sessionID string) (string, bool, error)
	RecordEmotion(ctx context.Context, sessionID string, sample models.EmotionSample) (models.EmotionSample, error)
	History(ctx context.Context, userID string, limit int64) ([]models.InterviewReport, error)
	List(ctx context.Context) []models.SessionStatus
	Exists(sessionID string) bool
	// EvictConcluded drops live sessions whose final report was produced
	// before the cutoff. They are already archived.
	EvictConcluded(before time.Time) int
}

// InterviewDeps wires the service. Reports, Turns and Cache are optional.
type InterviewDeps struct {
	Store      memory.SessionStore
	NewGateway func() LLMGateway
	Aggregator *interview.Aggregator
	Limits     interview.DurationLimits
	Reports    mongorepo.ReportRepository
	Turns      pgrepo.TurnRepo
	Cache      cache.Cache
	Log        *logrus.Logger
	Clock      func() time.Time
}

type interviewService struct {
	store      memory.SessionStore
	newGateway func() LLMGateway
	aggregator *interview.Aggregator
	limits     interview.DurationLimits
	reports    mongorepo.ReportRepository
	turns      pgrepo.TurnRepo
	cache      cache.Cache
	log        *logrus.Logger
	clock      func() time.Time
}

func NewInterviewService(d InterviewDeps) InterviewService {
	if d.Aggregator == nil {
		d.Aggregator = interview.NewAggregator(interview.DefaultEngagementLabels())
	}
	return &interviewService{
		store:      d.Store,
		newGateway: d.NewGateway,
		aggregator: d.Aggregator,
		limits:     d.Limits,
		reports:    d.Reports,
		turns:      d.Turns,
		cache:      d.Cache,
		log:        d.Log,
		clock:      d.Clock,
	}
}

func (s *interviewService) get(op, sessionID string) (*interview.Session, error) {
	sess, ok := s.store.Get(sessionID)
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "interview session not found", utils.ErrNotFound)
	}
	return sess, nil
}

func (s *interviewService) Exists(sessionID string) bool {
	_, ok := s.store.Get(sessionID)
	return ok
}

func (s *interviewService) Start(ctx context.Context, in StartInput) (*models.InterviewResponse, error) {
	const op = "InterviewService.Start"

	opts := []interview.Option{interview.WithDurationLimits(s.limits)}
	if s.clock != nil {
		opts = append(opts, interview.WithClock(s.clock))
	}
	sess, err := interview.New(interview.Params{
		JobRole:         in.JobRole,
		Difficulty:      in.Difficulty,
		DurationMinutes: in.DurationMinutes,
		UserID:          in.UserID,
		CandidateName:   in.CandidateName,
	}, s.newGateway(), s.aggregator, opts...)
	if err != nil {
		return nil, err
	}

	question, err := sess.NextQuestion(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to start interview", err)
	}
	s.store.Put(sess)

	s.log.WithFields(logrus.Fields{
		"op":              op,
		"session_id":      sess.ID(),
		"job_role":        sess.JobRole(),
		"difficulty":      sess.Difficulty(),
		"total_questions": sess.TotalQuestions(),
	}).Info("interview started")

	return &models.InterviewResponse{
		SessionID:      sess.ID(),
		Question:       &question,
		QuestionNumber: 1,
		TotalQuestions: sess.TotalQuestions(),
		Status:         models.StatusActive,
	}, nil
}

func (s *interviewService) Answer(ctx context.Context, sessionID, answer string) (*models.InterviewResponse, error) {
	const op = "InterviewService.Answer"

	if strings.TrimSpace(answer) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "answer_text is required", utils.ErrInvalidInput)
	}
	sess, err := s.get(op, sessionID)
	if err != nil {
		return nil, err
	}

	rec, err := sess.SubmitAnswer(ctx, answer)
	if err != nil {
		return nil, err
	}

	if !sess.IsComplete() {
		next, err := sess.NextQuestion(ctx)
		switch {
		case err == nil:
			return &models.InterviewResponse{
				SessionID:      sessionID,
				Question:       &next,
				QuestionNumber: sess.QuestionIndex(),
				TotalQuestions: sess.TotalQuestions(),
				Status:         models.StatusActive,
				Evaluation:     rec.Evaluation,
			}, nil
		case !errors.Is(err, utils.ErrSessionCompleted):
			return nil, err
		}
	}

	report := s.conclude(ctx, sess)

	s.log.WithFields(logrus.Fields{
		"op":         op,
		"session_id": sessionID,
		"questions":  report.QuestionsAsked,
		"score":      report.AIAssessment.Score,
	}).Info("interview completed")

	return &models.InterviewResponse{
		SessionID:      sessionID,
		QuestionNumber: sess.QuestionIndex(),
		TotalQuestions: sess.TotalQuestions(),
		Status:         models.StatusCompleted,
		Evaluation:     rec.Evaluation,
		Summary:        &report,
	}, nil
}

func (s *interviewService) Status(ctx context.Context, sessionID string) (*models.SessionStatus, error) {
	const op = "InterviewService.Status"

	sess, err := s.get(op, sessionID)
	if err != nil {
		return nil, err
	}
	st := sess.Status()
	return &st, nil
}

func (s *interviewService) End(ctx context.Context, sessionID string) (*models.InterviewReport, error) {
	const op = "InterviewService.End"

	sess, ok := s.store.Remove(sessionID)
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "interview session not found", utils.ErrNotFound)
	}
	report := s.conclude(ctx, sess)

	s.log.WithFields(logrus.Fields{
		"op":         op,
		"session_id": sessionID,
		"questions":  report.QuestionsAsked,
	}).Info("interview ended")
	return &report, nil
}

func (s *interviewService) Summary(ctx context.Context, sessionID string) (*models.InterviewReport, error) {
	const op = "InterviewService.Summary"

	if s.cache != nil {
		var rep models.InterviewReport
		hit, err := s.cache.GetJSON(ctx, cache.ReportKey(sessionID), &rep)
		if err != nil {
			s.log.WithFields(logrus.Fields{"op": op, "session_id": sessionID}).WithError(err).Warn("report cache read failed")
		}
		if hit {
			return &rep, nil
		}
	}
	if s.reports != nil {
		rep, err := s.reports.GetBySessionID(ctx, sessionID)
		switch {
		case err == nil:
			return rep, nil
		case !errors.Is(err, utils.ErrNotFound):
			return nil, utils.E(utils.CodeInternal, op, "failed to load report", err)
		}
	}
	if sess, ok := s.store.Get(sessionID); ok {
		if rep, ok := sess.FinalReport(); ok {
			return &rep, nil
		}
		rep := sess.Summarize(ctx)
		return &rep, nil
	}
	return nil, utils.E(utils.CodeNotFound, op, "interview report not found", utils.ErrNotFound)
}

type followUpGenerator interface {
	GenerateFollowUp(ctx context.Context, question, answer string) (string, bool)
}

func (s *interviewService) FollowUp(ctx context.Context, sessionID string) (string, bool, error) {
	const op = "InterviewService.FollowUp"

	sess, err := s.get(op, sessionID)
	if err != nil {
		return "", false, err
	}
	last, ok := sess.LastRecord()
	if !ok {
		return "", false, utils.E(utils.CodeConflict, op, "no answered question yet", utils.ErrNoPendingQuestion)
	}
	gen, ok := sess.Gateway().(followUpGenerator)
	if !ok {
		return "", false, nil
	}
	q, has := gen.GenerateFollowUp(ctx, last.Question, last.Answer)
	return q, has, nil
}

func (s *interviewService) RecordEmotion(ctx context.Context, sessionID string, sample models.EmotionSample) (models.EmotionSample, error) {
	const op = "InterviewService.RecordEmotion"

	sess, err := s.get(op, sessionID)
	if err != nil {
		return models.EmotionSample{}, err
	}
	return sess.RecordEmotionSample(sample), nil
}

func (s *interviewService) History(ctx context.Context, userID string, limit int64) ([]models.InterviewReport, error) {
	const op = "InterviewService.History"

	if userID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "user required", nil)
	}
	if s.reports == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "report archive is not configured", nil)
	}
	out, err := s.reports.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list reports", err)
	}
	if out == nil {
		out = []models.InterviewReport{}
	}
	return out, nil
}

func (s *interviewService) List(ctx context.Context) []models.SessionStatus {
	sessions := s.store.List()
	out := make([]models.SessionStatus, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.Status())
	}
	return out
}

func (s *interviewService) EvictConcluded(before time.Time) int {
	n := 0
	for _, sess := range s.store.List() {
		if sess.ConcludedBefore(before) {
			if _, ok := s.store.Remove(sess.ID()); ok {
				n++
			}
		}
	}
	return n
}

// conclude produces the final report once per session. The first report is
// archived and cached; later callers get the same report back.
func (s *interviewService) conclude(ctx context.Context, sess *interview.Session) models.InterviewReport {
	if rep, ok := sess.FinalReport(); ok {
		return rep
	}
	sess.Finish()
	rep, first := sess.Conclude(sess.Summarize(ctx))
	if !first {
		return rep
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	s.archive(actx, &rep)
	s.cacheReport(actx, &rep)
	return rep
}

func (s *interviewService) cacheReport(ctx context.Context, rep *models.InterviewReport) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, cache.ReportKey(rep.SessionID), rep, cache.ReportTTL); err != nil {
		s.log.WithFields(logrus.Fields{"op": "InterviewService.cacheReport", "session_id": rep.SessionID}).
			WithError(err).Warn("report cache write failed")
	}
}

// archive persists the report and its turns. Failures are logged only; the
// caller already has the report.
func (s *interviewService) archive(ctx context.Context, rep *models.InterviewReport) {
	log := s.log.WithFields(logrus.Fields{"op": "InterviewService.archive", "session_id": rep.SessionID})

	if s.reports != nil {
		if err := s.reports.Save(ctx, rep); err != nil {
			log.WithError(err).Error("report archive failed")
		}
	}
	if s.turns != nil {
		if err := s.turns.InsertBatch(ctx, turnsFromReport(rep)); err != nil {
			log.WithError(err).Error("turn archive failed")
		}
	}
}

func turnsFromReport(rep *models.InterviewReport) []models.InterviewTurn {
	turns := make([]models.InterviewTurn, 0, len(rep.QAPairs))
	for _, qa := range rep.QAPairs {
		t := models.InterviewTurn{
			ID:             uuid.NewString(),
			SessionID:      rep.SessionID,
			UserID:         rep.UserID,
			JobRole:        rep.JobRole,
			QuestionNumber: qa.QuestionNumber,
			Question:       qa.Question,
			Answer:         qa.Answer,
			Strengths:      pq.StringArray{},
			Improvements:   pq.StringArray{},
			AnsweredAt:     qa.Timestamp,
		}
		if ev := qa.Evaluation; ev != nil {
			t.Score = ev.Score
			t.Strengths = pq.StringArray(ev.Strengths)
			t.Improvements = pq.StringArray(ev.Improvements)
			if b, err := json.Marshal(ev); err == nil {
				t.Evaluation = datatypes.JSON(b)
			}
		}
		turns = append(turns, t)
	}
	return turns
}
