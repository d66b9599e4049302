package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		assert.Equal(t, "en", r.FormValue("language"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "answer.wav", hdr.Filename)
		assert.Equal(t, []byte("RIFF"), data)

		_, _ = w.Write([]byte(`{"text":" I like Go. ","language":"english","duration":3.5,
			"segments":[{"avg_logprob":-0.2},{"avg_logprob":-0.4}]}`))
	}))
	defer srv.Close()

	w := NewWhisper(srv.URL, "key", "")
	out, err := w.Transcribe(context.Background(), Audio{Data: []byte("RIFF"), Filename: "answer.wav", Ext: ".wav"}, "en")
	require.NoError(t, err)
	assert.Equal(t, "I like Go.", out.Text)
	assert.Equal(t, "english", out.Language)
	assert.Equal(t, 3.5, out.Duration)
	require.NotNil(t, out.Confidence)
	assert.InDelta(t, -0.3, *out.Confidence, 1e-9)
}

func TestWhisperTranscribeWithoutSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"hi"}`))
	}))
	defer srv.Close()

	out, err := NewWhisper(srv.URL, "", "").Transcribe(context.Background(), Audio{Data: []byte("x"), Ext: ".mp3"}, "")
	require.NoError(t, err)
	assert.Nil(t, out.Confidence)
}

func TestWhisperTranslateAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/audio/translations" {
			_, _ = w.Write([]byte(`{"text":"Hello there","duration":1}`))
			return
		}
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	w := NewWhisper(srv.URL, "", "")
	out, err := w.Translate(context.Background(), Audio{Data: []byte("x"), Ext: ".ogg"})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", out.Text)
	assert.Equal(t, "en", out.Language)

	_, err = w.Transcribe(context.Background(), Audio{Data: []byte("x"), Ext: ".ogg"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
