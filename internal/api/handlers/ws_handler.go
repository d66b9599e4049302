package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
	"github.com/yoockh/yoointerview/internal/workers"
)

const (
	closeInvalidSession = 4004

	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 25 * time.Second

	// room for the JSON envelope and a data URL prefix
	wsFrameHeadroom = 64 << 10
)

type WSHandler struct {
	interviews services.InterviewService
	emotions   services.EmotionService
	audio      *workers.AudioWorkerPool
	redis      *redis.Client // optional
	readLimit  int64
	log        *logrus.Logger
	upgrader   websocket.Upgrader
}

// NewWSHandler sizes the per-message read limit from maxAudioBytes, the
// largest clip an audio_chunk may carry before base64 encoding.
func NewWSHandler(interviews services.InterviewService, emotions services.EmotionService, audio *workers.AudioWorkerPool,
	rdb *redis.Client, allowedOrigins []string, maxAudioBytes int64, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		interviews: interviews,
		emotions:   emotions,
		audio:      audio,
		redis:      rdb,
		readLimit:  wsReadLimit(maxAudioBytes),
		log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

func wsReadLimit(maxAudioBytes int64) int64 {
	if maxAudioBytes <= 0 {
		return wsFrameHeadroom
	}
	return int64(base64.StdEncoding.EncodedLen(int(maxAudioBytes))) + wsFrameHeadroom
}

// originChecker accepts requests without an Origin header and those from a
// configured origin. "*" allows everything.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := map[string]struct{}{}
	for _, o := range allowed {
		set[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

type wsClientMsg struct {
	Type string `json:"type"`

	// emotion_data
	Data *models.EmotionSample `json:"data"`

	// video_frame
	Image string `json:"image"`

	// audio_chunk
	AudioBase64 string `json:"audio_base64"`
	Filename    string `json:"filename"`
	Language    string `json:"language"`
}

type wsServerMsg struct {
	Type    string                  `json:"type"`
	Data    any                     `json:"data,omitempty"`
	Summary *models.InterviewReport `json:"summary,omitempty"`
	Code    utils.Code              `json:"code,omitempty"`
	Message string                  `json:"message,omitempty"`
}

var ackMsg = map[string]string{"status": "received"}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.writeText(b)
}

func (w *wsConn) writeControl(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(messageType, data, time.Now().Add(5*time.Second))
}

func (w *wsConn) writeErr(err error) error {
	msg := wsServerMsg{Type: "error", Code: utils.CodeInternal, Message: "internal error"}
	if ae, ok := asAppError(err); ok {
		msg.Code, msg.Message = ae.Code, ae.Message
	}
	return w.writeJSON(msg)
}

// InterviewWS is the live channel of one interview session.
func (h *WSHandler) InterviewWS(c *gin.Context) {
	sessionID := c.Param("session_id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()
	wc := &wsConn{c: conn}

	log := h.log.WithField("session_id", sessionID)
	if !h.interviews.Exists(sessionID) {
		_ = wc.writeControl(websocket.CloseMessage, websocket.FormatCloseMessage(closeInvalidSession, "Invalid session"))
		return
	}
	log.Info("live channel connected")
	defer log.Info("live channel closed")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	var events <-chan *redis.Message
	if h.redis != nil {
		pubsub := h.redis.Subscribe(ctx, workers.EventsChannel(sessionID))
		defer pubsub.Close()
		events = pubsub.Channel()
	}

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		h.readLoop(ctx, wc, sessionID, log)
	}()

	// writer: pubsub events + keepalive -> WS
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wc.writeControl(websocket.PingMessage, nil); err != nil {
				return
			}
		case m, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			// forward as-is (payload is JSON)
			if err := wc.writeText([]byte(m.Payload)); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) readLoop(ctx context.Context, wc *wsConn, sessionID string, log *logrus.Entry) {
	conn := wc.c
	conn.SetReadLimit(h.readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "invalid json"})
			continue
		}

		switch msg.Type {
		case "emotion_data":
			if msg.Data != nil {
				if _, err := h.interviews.RecordEmotion(ctx, sessionID, *msg.Data); err != nil {
					_ = wc.writeErr(err)
					continue
				}
			}
			_ = wc.writeJSON(ackMsg)

		case "video_frame":
			sample, err := h.emotions.AnalyzeBase64(ctx, msg.Image)
			if err == nil {
				sample, err = h.interviews.RecordEmotion(ctx, sessionID, sample)
			}
			if err != nil {
				_ = wc.writeErr(err)
				continue
			}
			_ = wc.writeJSON(wsServerMsg{Type: "analysis_result", Data: sample})

		case "audio_chunk":
			if msg.AudioBase64 == "" {
				_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "audio_base64 required"})
				continue
			}
			ev, err := h.audio.Submit(ctx, workers.AudioJob{
				SessionID:   sessionID,
				AudioBase64: msg.AudioBase64,
				Filename:    msg.Filename,
				Language:    msg.Language,
			})
			if _, ok := asAppError(err); ok {
				_ = wc.writeErr(err)
				continue
			}
			if err != nil {
				log.WithError(err).Warn("enqueue audio failed")
				_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeUnavailable, Message: "failed to enqueue audio"})
				continue
			}
			_ = wc.writeJSON(ackMsg)
			if ev != nil {
				_ = wc.writeJSON(ev)
			}

		case "end_session":
			rep, err := h.interviews.End(ctx, sessionID)
			if err != nil {
				_ = wc.writeErr(err)
				return
			}
			_ = wc.writeJSON(wsServerMsg{Type: "session_ended", Summary: rep})
			return

		default:
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "unknown message type"})
		}
	}
}
