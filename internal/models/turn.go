package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// InterviewTurn is the archived row for one answered question.
type InterviewTurn struct {
	ID             string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID      string `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	UserID         string `gorm:"column:user_id;type:text;index" json:"user_id"`
	JobRole        string `gorm:"column:job_role;type:text" json:"job_role"`
	QuestionNumber int    `gorm:"column:question_number;type:integer" json:"question_number"`
	Question       string `gorm:"column:question;type:text" json:"question"`
	Answer         string `gorm:"column:answer;type:text" json:"answer"`

	Score        int            `gorm:"column:score;type:integer" json:"score"`
	Strengths    pq.StringArray `gorm:"column:strengths;type:text[]" json:"strengths"`
	Improvements pq.StringArray `gorm:"column:improvements;type:text[]" json:"improvements"`
	Evaluation   datatypes.JSON `gorm:"column:evaluation;type:jsonb" json:"evaluation"`

	AnsweredAt time.Time `gorm:"column:answered_at;type:timestamptz;index" json:"answered_at"`
}

func (InterviewTurn) TableName() string { return "interview_turns" }
