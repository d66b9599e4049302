package workers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

const (
	DefaultAudioStream = "interview:audio"
	DefaultAudioGroup  = "transcription-workers"

	EventTranscription      = "transcription"
	EventTranscriptionError = "transcription_error"
)

// EventsChannel is the pubsub channel live sockets of a session listen on.
func EventsChannel(sessionID string) string { return "interview:" + sessionID + ":events" }

// AudioJob is one live-channel audio chunk waiting for transcription.
type AudioJob struct {
	SessionID   string
	AudioBase64 string
	Filename    string
	Language    string
}

type TranscriptEvent struct {
	Type       string   `json:"type"`
	SessionID  string   `json:"session_id"`
	Text       string   `json:"text,omitempty"`
	Language   string   `json:"language,omitempty"`
	Duration   float64  `json:"duration,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// AudioWorkerPool transcribes audio chunks from a Redis stream and publishes
// the transcripts on the session's events channel. With no Redis client it
// runs jobs inline.
type AudioWorkerPool struct {
	Redis       *redis.Client
	Transcriber services.TranscriptionService
	NumWorkers  int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *AudioWorkerPool) defaults() {
	if p.Stream == "" {
		p.Stream = DefaultAudioStream
	}
	if p.Group == "" {
		p.Group = DefaultAudioGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
}

func (p *AudioWorkerPool) Start(ctx context.Context) error {
	if p.Transcriber == nil {
		return errors.New("AudioWorkerPool missing dependency: Transcriber must be set")
	}
	p.defaults()
	if p.Redis == nil {
		p.Logger.Info("audio worker pool running inline (no redis)")
		return nil
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	p.Logger.WithFields(logrus.Fields{"stream": p.Stream, "workers": p.NumWorkers}).Info("audio worker pool started")
	return nil
}

// Submit queues the job when Redis is available and returns nil. Otherwise it
// transcribes in place and returns the resulting event. Call Start first.
// Queued chunks are checked for format and size before they hit the stream.
func (p *AudioWorkerPool) Submit(ctx context.Context, job AudioJob) (*TranscriptEvent, error) {
	if p.Redis == nil {
		ev := p.Process(ctx, job)
		return &ev, nil
	}
	size := int64(base64.StdEncoding.DecodedLen(len(stripDataURL(job.AudioBase64))))
	if _, err := p.Transcriber.Validate(chunkFilename(job.Filename), size); err != nil {
		return nil, err
	}
	return nil, p.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.Stream,
		Values: map[string]any{
			"session_id":   job.SessionID,
			"audio_base64": job.AudioBase64,
			"filename":     job.Filename,
			"language":     job.Language,
			"ts_unix":      strconv.FormatInt(time.Now().UTC().Unix(), 10),
		},
	}).Err()
}

func (p *AudioWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *AudioWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	job := AudioJob{
		SessionID:   getStr("session_id"),
		AudioBase64: getStr("audio_base64"),
		Filename:    getStr("filename"),
		Language:    getStr("language"),
	}
	if job.SessionID == "" {
		return
	}

	ev := p.Process(ctx, job)
	payload, _ := json.Marshal(ev)
	if err := p.Redis.Publish(ctx, EventsChannel(job.SessionID), string(payload)).Err(); err != nil {
		p.Logger.WithFields(logrus.Fields{"redis_id": msg.ID, "session_id": job.SessionID}).
			WithError(err).Warn("publish transcript failed")
	}
}

// Process decodes and transcribes one job. Failures come back as an error
// event rather than an error.
func (p *AudioWorkerPool) Process(ctx context.Context, job AudioJob) TranscriptEvent {
	log := p.Logger.WithField("session_id", job.SessionID)
	fail := func(msg string) TranscriptEvent {
		return TranscriptEvent{Type: EventTranscriptionError, SessionID: job.SessionID, Message: msg}
	}

	data, err := base64.StdEncoding.DecodeString(stripDataURL(job.AudioBase64))
	if err != nil {
		log.WithError(err).Warn("base64 decode failed")
		return fail("invalid audio_base64")
	}
	filename := chunkFilename(job.Filename)

	start := time.Now()
	out, err := p.Transcriber.Transcribe(ctx, services.AudioInput{
		Filename:  filename,
		Data:      data,
		Language:  job.Language,
		SessionID: job.SessionID,
	})
	if err != nil {
		log.WithError(err).Error("chunk transcription failed")
		return fail(publicMessage(err))
	}
	log.WithField("latency_ms", time.Since(start).Milliseconds()).Debug("chunk transcribed")

	return TranscriptEvent{
		Type:       EventTranscription,
		SessionID:  job.SessionID,
		Text:       out.Text,
		Language:   out.Language,
		Duration:   out.Duration,
		Confidence: out.Confidence,
	}
}

// stripDataURL drops a "data:...;base64," prefix.
func stripDataURL(s string) string {
	if i := strings.Index(s, ","); i >= 0 {
		return s[i+1:]
	}
	return s
}

func chunkFilename(name string) string {
	if name == "" {
		return "chunk.webm"
	}
	return name
}

func publicMessage(err error) string {
	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "transcription failed"
}
