package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// ErrNotConfigured marks an optional backend whose environment is unset.
var ErrNotConfigured = errors.New("not configured")

type App struct {
	Port string

	GeminiAPIKey    string
	GeminiTextModel string
	GeminiLiveModel string
	GeminiVoice     string

	LLMBackend     string // genai|vertex
	VertexProject  string
	VertexLocation string

	StoreDriver string // sqlite|mongo
	SQLitePath  string

	GCSBucket  string
	STTEnabled bool

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// Browser origins allowed to open websockets; empty means same-origin.
	WSAllowedOrigins []string
}

func Load() App {
	return App{
		Port: env("PORT", "8080"),

		GeminiAPIKey:    firstEnv("GEMINI_API_KEY", "API_KEY"),
		GeminiTextModel: env("GEMINI_TEXT_MODEL", "gemini-3-flash-preview"),
		GeminiLiveModel: env("GEMINI_LIVE_MODEL", "gemini-2.5-flash-native-audio-preview-12-2025"),
		GeminiVoice:     env("GEMINI_VOICE", "Kore"),

		LLMBackend:     strings.ToLower(env("LLM_BACKEND", "genai")),
		VertexProject:  os.Getenv("VERTEX_PROJECT"),
		VertexLocation: env("VERTEX_LOCATION", "us-central1"),

		StoreDriver: strings.ToLower(env("STORE_DRIVER", "sqlite")),
		SQLitePath:  env("SQLITE_PATH", "barta.db"),

		GCSBucket:  os.Getenv("GCS_BUCKET"),
		STTEnabled: boolEnv("STT_ENABLED"),

		JWTSecret:   os.Getenv("SUPABASE_JWT_SECRET"),
		JWTIssuer:   os.Getenv("SUPABASE_JWT_ISSUER"),
		JWTAudience: os.Getenv("SUPABASE_JWT_AUDIENCE"),

		WSAllowedOrigins: listEnv("WS_ALLOWED_ORIGINS"),
	}
}

func env(key, def string) string {
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

func boolEnv(key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return b
}

func listEnv(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
