package postgres

import (
	"context"

	"github.com/yoockh/yoointerview/internal/models"
	"gorm.io/gorm"
)

type TurnRepo interface {
	InsertBatch(ctx context.Context, turns []models.InterviewTurn) error
}

type turnRepo struct {
	db *gorm.DB
}

func NewTurnRepo(db *gorm.DB) TurnRepo {
	return &turnRepo{db: db}
}

func (r *turnRepo) InsertBatch(ctx context.Context, turns []models.InterviewTurn) error {
	if len(turns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(turns, 50).Error
}
