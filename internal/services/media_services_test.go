package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/avatar"
	"github.com/yoockh/yoointerview/internal/providers/stt"
	"github.com/yoockh/yoointerview/internal/utils"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeClassifier struct {
	sample models.EmotionSample
	calls  int
}

func (f *fakeClassifier) Classify(context.Context, []byte) models.EmotionSample {
	f.calls++
	return f.sample
}
func (f *fakeClassifier) Available(context.Context) bool { return true }
func (f *fakeClassifier) Name() string                   { return "fake" }

func TestEmotionServiceAnalyze(t *testing.T) {
	fc := &fakeClassifier{sample: models.EmotionSample{
		Emotions:     map[string]float64{"happy": 0.9, "neutral": 0.1},
		Dominant:     "happy",
		Confidence:   0.9,
		FaceDetected: true,
	}}
	svc := NewEmotionService(fc, nil, quietLogger())
	ctx := context.Background()
	img := pngBytes(t)

	got, err := svc.Analyze(ctx, img)
	require.NoError(t, err)
	assert.Equal(t, "happy", got.Dominant)

	got, err = svc.AnalyzeBase64(ctx, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(img))
	require.NoError(t, err)
	assert.True(t, got.FaceDetected)
	assert.Equal(t, 2, fc.calls)

	h := svc.Health(ctx)
	assert.Equal(t, "healthy", h.Status)
	assert.True(t, h.ModelLoaded)
	assert.Equal(t, "fake", h.Backend)
}

func TestEmotionServiceRejectsBadInput(t *testing.T) {
	fc := &fakeClassifier{}
	svc := NewEmotionService(fc, nil, quietLogger())
	ctx := context.Background()

	cases := map[string]func() error{
		"empty bytes": func() error { _, err := svc.Analyze(ctx, nil); return err },
		"not an image": func() error {
			_, err := svc.Analyze(ctx, []byte("definitely not a picture"))
			return err
		},
		"bad base64":    func() error { _, err := svc.AnalyzeBase64(ctx, "!!!"); return err },
		"missing image": func() error { _, err := svc.AnalyzeBase64(ctx, "   "); return err },
		"too large": func() error {
			_, err := svc.Analyze(ctx, make([]byte, MaxImageBytes+1))
			return err
		},
	}
	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.Equal(t, 400, utils.HTTPStatus(err))
		})
	}
	assert.Zero(t, fc.calls)
}

func TestEmotionServiceBatchSkipsBadFrames(t *testing.T) {
	fc := &fakeClassifier{sample: models.EmotionSample{Dominant: "neutral", Confidence: 0.6, FaceDetected: true}}
	svc := NewEmotionService(fc, nil, quietLogger())
	good := base64.StdEncoding.EncodeToString(pngBytes(t))

	res, err := svc.BatchAnalyze(context.Background(), []models.EmotionFrame{
		{ImageData: good, Timestamp: 1700000000.5},
		{ImageData: "garbage"},
		{ImageData: good, Timestamp: 1700000001},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.FramesAnalyzed)
	assert.Len(t, res.Timeline, 2)
	assert.Equal(t, int64(1700000000), res.Timeline[0].Timestamp.Unix())
	assert.Equal(t, 500_000_000, res.Timeline[0].Timestamp.Nanosecond())
	assert.Equal(t, "neutral", res.Aggregated.MostCommon)
	assert.InDelta(t, 100.0, res.Aggregated.Distribution["neutral"], 1e-9)

	_, err = svc.BatchAnalyze(context.Background(), []models.EmotionFrame{{ImageData: "garbage"}})
	assert.Equal(t, 400, utils.HTTPStatus(err))
}

type fakeSTT struct {
	out      *models.Transcription
	err      error
	language string
	audio    stt.Audio
}

func (f *fakeSTT) Transcribe(_ context.Context, a stt.Audio, language string) (*models.Transcription, error) {
	f.audio, f.language = a, language
	if f.err != nil {
		return nil, f.err
	}
	out := *f.out
	return &out, nil
}

func (f *fakeSTT) Translate(context.Context, stt.Audio) (*models.Transcription, error) {
	return nil, stt.ErrTranslateUnsupported
}
func (f *fakeSTT) Name() string { return "fake" }
func (f *fakeSTT) Close() error { return nil }

type fakeUploader struct {
	objects map[string][]byte
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, name, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(r)
	f.objects[name] = b
	return "gs://bucket/" + name, nil
}

func TestTranscriptionServiceValidate(t *testing.T) {
	svc := NewTranscriptionService(&fakeSTT{}, nil, 10<<20, "", quietLogger())

	ext, err := svc.Validate("Answer.WEBM", 100)
	require.NoError(t, err)
	assert.Equal(t, ".webm", ext)

	_, err = svc.Validate("notes.txt", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file type. Allowed: .m4a, .mp3, .ogg, .wav, .webm")

	_, err = svc.Validate("a.mp3", 0)
	assert.Equal(t, 400, utils.HTTPStatus(err))

	_, err = svc.Validate("a.mp3", 10<<20+1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file too large. Maximum size: 10MB")
}

func TestTranscriptionServiceTranscribe(t *testing.T) {
	conf := 0.8
	provider := &fakeSTT{out: &models.Transcription{Text: "hello", Language: "en", Duration: 2.5, Confidence: &conf}}
	up := &fakeUploader{objects: map[string][]byte{}}
	svc := NewTranscriptionService(provider, up, 10<<20, "en", quietLogger())
	ctx := context.Background()

	out, err := svc.Transcribe(ctx, AudioInput{Filename: "a.wav", Data: []byte("RIFF")})
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Text)
	assert.Equal(t, "en", provider.language)
	assert.Equal(t, ".wav", provider.audio.Ext)
	assert.Empty(t, out.AudioPath)
	assert.Empty(t, up.objects)

	out, err = svc.Transcribe(ctx, AudioInput{Filename: "a.wav", Data: []byte("RIFF"), Language: "id", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "id", provider.language)
	assert.True(t, strings.HasPrefix(out.AudioPath, "gs://bucket/answers/s1/"))
	assert.Len(t, up.objects, 1)

	up.err = errors.New("gcs down")
	out, err = svc.Transcribe(ctx, AudioInput{Filename: "a.wav", Data: []byte("RIFF"), SessionID: "s1"})
	require.NoError(t, err)
	assert.Empty(t, out.AudioPath)

	provider.err = errors.New("whisper down")
	_, err = svc.Transcribe(ctx, AudioInput{Filename: "a.wav", Data: []byte("RIFF")})
	require.Error(t, err)
	assert.Equal(t, 503, utils.HTTPStatus(err))
	assert.True(t, errors.Is(err, utils.ErrUpstream))

	_, err = svc.Translate(ctx, AudioInput{Filename: "a.wav", Data: []byte("RIFF")})
	assert.Equal(t, 503, utils.HTTPStatus(err))
}

type fakeGenerator struct {
	talk avatar.Talk
	err  error
}

func (f *fakeGenerator) Submit(_ context.Context, t avatar.Talk) (*models.AvatarJob, error) {
	f.talk = t
	if f.err != nil {
		return nil, f.err
	}
	return &models.AvatarJob{JobID: "tlk_1", Status: models.AvatarCreated}, nil
}

func (f *fakeGenerator) Poll(_ context.Context, id string) (*models.AvatarJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.AvatarJob{JobID: id, Status: models.AvatarDone, VideoURL: "https://cdn/v.mp4"}, nil
}

func TestAvatarService(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewAvatarService(gen, map[string]string{"amy": "https://img/amy.jpg"}, quietLogger())
	ctx := context.Background()

	job, err := svc.Generate(ctx, models.AvatarRequest{Text: "  Welcome  "})
	require.NoError(t, err)
	assert.Equal(t, "tlk_1", job.JobID)
	assert.Equal(t, "Welcome", gen.talk.Text)
	assert.Equal(t, DefaultVoiceID, gen.talk.VoiceID)
	assert.Equal(t, "https://img/amy.jpg", gen.talk.SourceURL)

	_, err = svc.Generate(ctx, models.AvatarRequest{Text: "hi", PresenterID: "david"})
	require.NoError(t, err)
	assert.Empty(t, gen.talk.SourceURL)

	_, err = svc.Generate(ctx, models.AvatarRequest{Text: " "})
	assert.Equal(t, 400, utils.HTTPStatus(err))

	st, err := svc.Status(ctx, "tlk_1")
	require.NoError(t, err)
	assert.Equal(t, models.AvatarDone, st.Status)

	gen.err = avatar.ErrNotConfigured
	_, err = svc.Generate(ctx, models.AvatarRequest{Text: "hi"})
	assert.Equal(t, 503, utils.HTTPStatus(err))
	assert.True(t, errors.Is(err, avatar.ErrNotConfigured))

	assert.Len(t, svc.Voices(), 3)
	assert.Len(t, svc.Presenters(), 2)
}
