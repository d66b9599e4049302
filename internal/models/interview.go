package models

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type SessionState string

const (
	StateCreated         SessionState = "created"
	StateQuestionPending SessionState = "question_pending"
	StateAnswered        SessionState = "answered"
	StateCompleted       SessionState = "completed"
)

// OutputKind tags how a model reply was interpreted.
type OutputKind string

const (
	OutputStructured   OutputKind = "structured"
	OutputUnstructured OutputKind = "unstructured"
	OutputFallback     OutputKind = "fallback"
)

type Evaluation struct {
	Score        int        `json:"score" bson:"score"` // 0-10
	Feedback     string     `json:"feedback" bson:"feedback"`
	Strengths    []string   `json:"strengths" bson:"strengths"`
	Improvements []string   `json:"improvements" bson:"improvements"`
	Source       OutputKind `json:"source" bson:"source"`
}

// QARecord is one question/answer/evaluation triple. Evaluation is nil while
// the evaluation call is in flight.
type QARecord struct {
	Question       string      `json:"question" bson:"question"`
	Answer         string      `json:"answer" bson:"answer"`
	Timestamp      time.Time   `json:"timestamp" bson:"timestamp"`
	QuestionNumber int         `json:"question_number" bson:"question_number"`
	Evaluation     *Evaluation `json:"evaluation,omitempty" bson:"evaluation,omitempty"`
}

type Recommendation string

const (
	RecommendStrongYes    Recommendation = "Strong Yes"
	RecommendYes          Recommendation = "Yes"
	RecommendMaybe        Recommendation = "Maybe"
	RecommendNo           Recommendation = "No"
	RecommendReview       Recommendation = "Review Required"
	RecommendManualReview Recommendation = "Manual Review Required"
)

type Assessment struct {
	Assessment     string         `json:"assessment" bson:"assessment"`
	Strengths      []string       `json:"strengths" bson:"strengths"`
	Concerns       []string       `json:"concerns" bson:"concerns"`
	Recommendation Recommendation `json:"recommendation" bson:"recommendation"`
	Score          int            `json:"score" bson:"score"` // 0-100
	Source         OutputKind     `json:"source" bson:"source"`
}

// InterviewReport is the final summary of one session.
type InterviewReport struct {
	SessionID       string         `json:"session_id" bson:"session_id"`
	UserID          string         `json:"user_id,omitempty" bson:"user_id,omitempty"`
	CandidateName   string         `json:"candidate_name,omitempty" bson:"candidate_name,omitempty"`
	JobRole         string         `json:"job_role" bson:"job_role"`
	Difficulty      Difficulty     `json:"difficulty" bson:"difficulty"`
	DurationMinutes float64        `json:"duration_minutes" bson:"duration_minutes"`
	QuestionsAsked  int            `json:"questions_asked" bson:"questions_asked"`
	QAPairs         []QARecord     `json:"qa_pairs" bson:"qa_pairs"`
	EmotionAnalysis EmotionSummary `json:"emotion_analysis" bson:"emotion_analysis"`
	AIAssessment    Assessment     `json:"ai_assessment" bson:"ai_assessment"`
	CompletedAt     time.Time      `json:"completed_at" bson:"completed_at"`
}

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// InterviewResponse is returned by start and answer. Question is null once the
// interview is completed.
type InterviewResponse struct {
	SessionID      string           `json:"session_id"`
	Question       *string          `json:"question"`
	QuestionNumber int              `json:"question_number"`
	TotalQuestions int              `json:"total_questions"`
	Status         string           `json:"status"`
	Evaluation     *Evaluation      `json:"evaluation,omitempty"`
	Summary        *InterviewReport `json:"summary,omitempty"`
}

type SessionStatus struct {
	SessionID       string       `json:"session_id"`
	JobRole         string       `json:"job_role"`
	Difficulty      Difficulty   `json:"difficulty"`
	State           SessionState `json:"state"`
	CurrentQuestion int          `json:"current_question"`
	TotalQuestions  int          `json:"total_questions"`
	PendingQuestion string       `json:"pending_question,omitempty"`
	ElapsedMinutes  float64      `json:"elapsed_time"`
	Status          string       `json:"status"` // active|completed
	CreatedAt       time.Time    `json:"created_at"`
}
