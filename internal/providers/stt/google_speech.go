package stt

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/yoockh/yoointerview/internal/models"
)

type GoogleSpeech struct {
	c *speech.Client

	DefaultLanguage string
}

func NewGoogleSpeech(ctx context.Context, credentialsFile string) (*GoogleSpeech, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{c: c, DefaultLanguage: "en-US"}, nil
}

func (g *GoogleSpeech) Name() string { return "google-speech" }

func (g *GoogleSpeech) Close() error { return g.c.Close() }

// encodingFor maps a container extension to a recognizer encoding. Anything
// else (m4a) is left unspecified for the API to detect.
func encodingFor(ext string) (speechpb.RecognitionConfig_AudioEncoding, int32) {
	switch ext {
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16, 0
	case ".ogg":
		return speechpb.RecognitionConfig_OGG_OPUS, 48000
	case ".webm":
		return speechpb.RecognitionConfig_WEBM_OPUS, 48000
	case ".mp3":
		return speechpb.RecognitionConfig_MP3, 16000
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, 0
	}
}

// language example: "en-US", "id-ID"
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio Audio, language string) (*models.Transcription, error) {
	if language == "" {
		language = g.DefaultLanguage
	}
	enc, rate := encodingFor(audio.Ext)

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   enc,
			SampleRateHertz:            rate,
			LanguageCode:               language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.Data},
		},
	})
	if err != nil {
		return nil, err
	}

	var text string
	var confSum float64
	var n int
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		if alt.Transcript == "" {
			continue
		}
		if text != "" {
			text += " "
		}
		text += alt.Transcript
		confSum += float64(alt.Confidence)
		n++
	}

	t := &models.Transcription{Text: text, Language: language}
	if n > 0 {
		c := confSum / float64(n)
		t.Confidence = &c
	}
	if d := resp.GetTotalBilledTime(); d != nil {
		t.Duration = d.AsDuration().Seconds()
	}
	return t, nil
}

func (g *GoogleSpeech) Translate(context.Context, Audio) (*models.Transcription, error) {
	return nil, ErrTranslateUnsupported
}
