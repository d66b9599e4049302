package routes

import (
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yoointerview/internal/models"
)

func dialWS(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/interview/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestWSUnknownSessionCloses4004(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t, nil))
	defer srv.Close()

	conn := dialWS(t, srv, "missing")
	defer conn.Close()

	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 4004, ce.Code)
}

func TestWSLiveChannel(t *testing.T) {
	r := newTestRouter(t, nil)
	srv := httptest.NewServer(r)
	defer srv.Close()

	w := doJSON(t, r, http.MethodPost, "/api/interview/start", map[string]any{"job_role": "Dev", "duration_minutes": 10}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[models.InterviewResponse](t, w).SessionID

	conn := dialWS(t, srv, id)
	defer conn.Close()

	var ack map[string]any
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "emotion_data",
		"data": map[string]any{"dominant_emotion": "happy", "confidence": 0.7, "face_detected": true},
	}))
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, "received", ack["status"])

	// no redis: the chunk is transcribed inline after the ack
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":         "audio_chunk",
		"audio_base64": base64.StdEncoding.EncodeToString([]byte("opus")),
		"filename":     "chunk.webm",
	}))
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, "received", ack["status"])
	var ev map[string]any
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "transcription", ev["type"])
	assert.Equal(t, "hello there", ev["text"])

	var errMsg map[string]any
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "bogus"}))
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, "error", errMsg["type"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "end_session"}))
	var ended struct {
		Type    string                 `json:"type"`
		Summary models.InterviewReport `json:"summary"`
	}
	require.NoError(t, conn.ReadJSON(&ended))
	assert.Equal(t, "session_ended", ended.Type)
	assert.Equal(t, 1, ended.Summary.EmotionAnalysis.TotalFrames)
	assert.Equal(t, "happy", ended.Summary.EmotionAnalysis.MostCommon)

	w = doJSON(t, r, http.MethodGet, "/api/interview/status/"+id, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWSOversizedMessageClosesChannel(t *testing.T) {
	r := newTestRouter(t, nil)
	srv := httptest.NewServer(r)
	defer srv.Close()

	w := doJSON(t, r, http.MethodPost, "/api/interview/start", map[string]any{"job_role": "Dev", "duration_minutes": 10}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[models.InterviewResponse](t, w).SessionID

	conn := dialWS(t, srv, id)
	defer conn.Close()

	// the router allows 1MB clips; twice that is past the frame limit
	huge := base64.StdEncoding.EncodeToString(make([]byte, 2<<20))
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_ = conn.WriteJSON(map[string]any{"type": "audio_chunk", "audio_base64": huge})

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var ne net.Error
	if errors.As(err, &ne) {
		assert.False(t, ne.Timeout(), "server should drop the connection, not stall")
	}

	// the session itself is untouched
	w = doJSON(t, r, http.MethodGet, "/api/interview/status/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
