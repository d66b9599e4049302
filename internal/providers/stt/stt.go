package stt

import (
	"context"
	"errors"

	"github.com/yoockh/yoointerview/internal/models"
)

var ErrTranslateUnsupported = errors.New("stt: translation not supported by provider")

// Audio is one uploaded clip. Ext is the lower-case file extension with the dot.
type Audio struct {
	Data     []byte
	Filename string
	Ext      string
}

type Provider interface {
	// Transcribe returns the text in the spoken language. Empty language means
	// auto-detect where the provider supports it.
	Transcribe(ctx context.Context, audio Audio, language string) (*models.Transcription, error)
	// Translate returns an English transcript of non-English speech.
	Translate(ctx context.Context, audio Audio) (*models.Transcription, error)
	Name() string
	Close() error
}
