package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/avatar"
	"github.com/yoockh/yoointerview/internal/utils"
)

const (
	DefaultVoiceID     = "en-US-JennyNeural"
	DefaultPresenterID = "amy"
)

var voices = []models.VoiceOption{
	{ID: "en-US-JennyNeural", Name: "Jenny (US English)", Gender: "female", Language: "en-US"},
	{ID: "en-US-GuyNeural", Name: "Guy (US English)", Gender: "male", Language: "en-US"},
	{ID: "en-GB-SoniaNeural", Name: "Sonia (UK English)", Gender: "female", Language: "en-GB"},
}

var presenters = []models.PresenterOption{
	{ID: "amy", Name: "Amy", Preview: "/static/avatars/amy.jpg"},
	{ID: "david", Name: "David", Preview: "/static/avatars/david.jpg"},
}

type AvatarService interface {
	Generate(ctx context.Context, req models.AvatarRequest) (*models.AvatarJob, error)
	Status(ctx context.Context, jobID string) (*models.AvatarJob, error)
	Voices() []models.VoiceOption
	Presenters() []models.PresenterOption
}

type avatarService struct {
	gen        avatar.Generator
	sourceURLs map[string]string // presenter id -> source image
	log        *logrus.Logger
}

// NewAvatarService takes an optional presenter -> image URL map; presenters
// missing from it render with the generator's default image.
func NewAvatarService(gen avatar.Generator, sourceURLs map[string]string, log *logrus.Logger) AvatarService {
	if sourceURLs == nil {
		sourceURLs = map[string]string{}
	}
	return &avatarService{gen: gen, sourceURLs: sourceURLs, log: log}
}

func (s *avatarService) Generate(ctx context.Context, req models.AvatarRequest) (*models.AvatarJob, error) {
	const op = "AvatarService.Generate"

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text is required", utils.ErrInvalidInput)
	}
	voice := req.VoiceID
	if voice == "" {
		voice = DefaultVoiceID
	}
	presenter := req.PresenterID
	if presenter == "" {
		presenter = DefaultPresenterID
	}

	job, err := s.gen.Submit(ctx, avatar.Talk{Text: text, VoiceID: voice, SourceURL: s.sourceURLs[presenter]})
	if err != nil {
		return nil, s.upstreamErr(op, "avatar generation failed", err)
	}
	s.log.WithFields(logrus.Fields{"op": op, "job_id": job.JobID, "status": job.Status}).Info("avatar job submitted")
	return job, nil
}

func (s *avatarService) Status(ctx context.Context, jobID string) (*models.AvatarJob, error) {
	const op = "AvatarService.Status"

	if strings.TrimSpace(jobID) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "job_id is required", utils.ErrInvalidInput)
	}
	job, err := s.gen.Poll(ctx, jobID)
	if err != nil {
		return nil, s.upstreamErr(op, "failed to check avatar status", err)
	}
	return job, nil
}

func (s *avatarService) upstreamErr(op, msg string, err error) error {
	s.log.WithField("op", op).WithError(err).Error(msg)
	if errors.Is(err, avatar.ErrNotConfigured) {
		return utils.E(utils.CodeUnavailable, op, "avatar provider is not configured", err)
	}
	return utils.E(utils.CodeUnavailable, op, msg, fmt.Errorf("%w: %v", utils.ErrUpstream, err))
}

func (s *avatarService) Voices() []models.VoiceOption {
	return append([]models.VoiceOption(nil), voices...)
}

func (s *avatarService) Presenters() []models.PresenterOption {
	return append([]models.PresenterOption(nil), presenters...)
}
