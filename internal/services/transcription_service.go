package services

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/stt"
	"github.com/yoockh/yoointerview/internal/storage"
	"github.com/yoockh/yoointerview/internal/utils"
)

var audioContentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
}

// AllowedAudioExtensions lists accepted uploads in sorted order.
func AllowedAudioExtensions() []string {
	out := make([]string, 0, len(audioContentTypes))
	for ext := range audioContentTypes {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

type AudioInput struct {
	Filename  string
	Data      []byte
	Language  string
	SessionID string // when set, the clip is archived under answers/<session>/
}

type TranscriptionService interface {
	Transcribe(ctx context.Context, in AudioInput) (*models.Transcription, error)
	Translate(ctx context.Context, in AudioInput) (*models.Transcription, error)
	// Validate rejects unsupported or oversized clips. It never calls out.
	Validate(filename string, size int64) (ext string, err error)
}

type transcriptionService struct {
	provider stt.Provider
	uploader storage.Uploader // optional
	maxBytes int64
	language string
	log      *logrus.Logger
}

func NewTranscriptionService(provider stt.Provider, uploader storage.Uploader, maxBytes int64, language string, log *logrus.Logger) TranscriptionService {
	return &transcriptionService{
		provider: provider,
		uploader: uploader,
		maxBytes: maxBytes,
		language: language,
		log:      log,
	}
}

func (s *transcriptionService) Validate(filename string, size int64) (string, error) {
	const op = "TranscriptionService.Validate"

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := audioContentTypes[ext]; !ok {
		return "", utils.E(utils.CodeInvalidArgument, op,
			"invalid file type. Allowed: "+strings.Join(AllowedAudioExtensions(), ", "), utils.ErrInvalidInput)
	}
	if size <= 0 {
		return "", utils.E(utils.CodeInvalidArgument, op, "audio file is empty", utils.ErrInvalidInput)
	}
	if size > s.maxBytes {
		return "", utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("file too large. Maximum size: %dMB", s.maxBytes/(1024*1024)), utils.ErrInvalidInput)
	}
	return ext, nil
}

func (s *transcriptionService) Transcribe(ctx context.Context, in AudioInput) (*models.Transcription, error) {
	const op = "TranscriptionService.Transcribe"

	ext, err := s.Validate(in.Filename, int64(len(in.Data)))
	if err != nil {
		return nil, err
	}
	language := in.Language
	if language == "" {
		language = s.language
	}

	start := time.Now()
	out, err := s.provider.Transcribe(ctx, stt.Audio{Data: in.Data, Filename: in.Filename, Ext: ext}, language)
	log := s.log.WithFields(logrus.Fields{
		"op":         op,
		"provider":   s.provider.Name(),
		"session_id": in.SessionID,
		"bytes":      len(in.Data),
		"latency_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		log.WithError(err).Error("transcription failed")
		return nil, utils.E(utils.CodeUnavailable, op, "transcription failed", fmt.Errorf("%w: %v", utils.ErrUpstream, err))
	}
	log.Info("audio transcribed")

	if s.uploader != nil && in.SessionID != "" {
		out.AudioPath = s.archive(ctx, in.SessionID, ext, in.Data)
	}
	return out, nil
}

func (s *transcriptionService) Translate(ctx context.Context, in AudioInput) (*models.Transcription, error) {
	const op = "TranscriptionService.Translate"

	ext, err := s.Validate(in.Filename, int64(len(in.Data)))
	if err != nil {
		return nil, err
	}
	out, err := s.provider.Translate(ctx, stt.Audio{Data: in.Data, Filename: in.Filename, Ext: ext})
	if err != nil {
		s.log.WithFields(logrus.Fields{"op": op, "provider": s.provider.Name()}).WithError(err).Error("translation failed")
		return nil, utils.E(utils.CodeUnavailable, op, "translation failed", fmt.Errorf("%w: %v", utils.ErrUpstream, err))
	}
	return out, nil
}

func (s *transcriptionService) archive(ctx context.Context, sessionID, ext string, data []byte) string {
	object := "answers/" + sessionID + "/" + uuid.NewString() + ext
	path, err := s.uploader.Upload(ctx, object, audioContentTypes[ext], bytes.NewReader(data))
	if err != nil {
		s.log.WithFields(logrus.Fields{"op": "TranscriptionService.archive", "session_id": sessionID}).
			WithError(err).Warn("audio archive failed")
		return ""
	}
	return path
}
