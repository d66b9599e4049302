package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Settings struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	LLMProvider     string // openai | vertex
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	VertexProjectID string
	VertexLocation  string
	VertexModel     string
	LLMTimeout      time.Duration
	LLMHistoryLimit int

	STTProvider     string // whisper | google
	WhisperModel    string
	MaxAudioSizeMB  int
	STTLanguage     string
	GoogleCredsFile string

	FaceAnalyzerURL string

	DIDAPIKey    string
	DIDAPIURL    string
	DIDSourceURL string

	InterviewMinMinutes int
	InterviewMaxMinutes int
	ConcludedSessionTTL time.Duration

	EngagementPositive []string
	EngagementNegative []string

	AuthEnabled bool
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	RedisAddr   string
	MongoURI    string
	MongoDB     string
	PostgresURI string
	GCSBucket   string
}

// Load reads settings from the environment. Call godotenv.Load before it.
func Load() *Settings {
	return &Settings{
		Port:        getenv("PORT", "8000"),
		GinMode:     os.Getenv("GIN_MODE"),
		CORSOrigins: splitList(getenv("CORS_ORIGINS", "http://localhost:3000")),

		LLMProvider:     strings.ToLower(getenv("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:     getenv("OPENAI_MODEL", "gpt-4"),
		VertexProjectID: os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation:  getenv("VERTEX_LOCATION", "us-central1"),
		VertexModel:     os.Getenv("VERTEX_MODEL"),
		LLMTimeout:      getDuration("LLM_TIMEOUT", 30*time.Second),
		LLMHistoryLimit: getInt("LLM_HISTORY_LIMIT", 20),

		STTProvider:     strings.ToLower(getenv("STT_PROVIDER", "whisper")),
		WhisperModel:    getenv("WHISPER_MODEL", "whisper-1"),
		MaxAudioSizeMB:  getInt("MAX_AUDIO_SIZE_MB", 10),
		STTLanguage:     os.Getenv("STT_LANGUAGE"),
		GoogleCredsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		FaceAnalyzerURL: os.Getenv("FACE_ANALYZER_URL"),

		DIDAPIKey:    os.Getenv("DID_API_KEY"),
		DIDAPIURL:    getenv("DID_API_URL", "https://api.d-id.com"),
		DIDSourceURL: os.Getenv("DID_SOURCE_URL"),

		InterviewMinMinutes: getInt("INTERVIEW_MIN_MINUTES", 5),
		InterviewMaxMinutes: getInt("INTERVIEW_MAX_MINUTES", 60),
		ConcludedSessionTTL: getDuration("CONCLUDED_SESSION_TTL", 30*time.Minute),

		EngagementPositive: splitList(getenv("ENGAGEMENT_POSITIVE_LABELS", "happy,focused,confident")),
		EngagementNegative: splitList(getenv("ENGAGEMENT_NEGATIVE_LABELS", "nervous,distracted,confused")),

		AuthEnabled: getBool("AUTH_ENABLED", false),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTIssuer:   os.Getenv("JWT_ISSUER"),
		JWTAudience: os.Getenv("JWT_AUDIENCE"),

		RedisAddr:   firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL"),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDB:     getenv("MONGO_DB", "yoointerview"),
		PostgresURI: os.Getenv("POSTGRES_URI"),
		GCSBucket:   os.Getenv("GCS_BUCKET"),
	}
}

func (s *Settings) MaxAudioBytes() int64 {
	return int64(s.MaxAudioSizeMB) * 1024 * 1024
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

// getDuration accepts "30s" style values or plain seconds.
func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
