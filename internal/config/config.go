package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	GenAI     GenAIConfig
	R2        R2Config
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	PipelinePerHour int
	ProjectPerMin   int
}

// GenAIConfig holds endpoints, model names and pacing for the generation provider
type GenAIConfig struct {
	BaseURL      string
	Origin       string
	PlannerModel string
	ImageModel   string
	TTSModel     string
	VideoModel   string
	TTSVoice     string
	CookieDelay  time.Duration // inter-request delay under cookie auth
	KeyDelay     time.Duration // inter-request delay under API-key auth
	PollInterval time.Duration
	MaxPolls     int
	Mock         bool
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("genai.base_url", "GENAI_BASE_URL")
	_ = viper.BindEnv("genai.origin", "GENAI_ORIGIN")
	_ = viper.BindEnv("genai.planner_model", "GENAI_PLANNER_MODEL")
	_ = viper.BindEnv("genai.image_model", "GENAI_IMAGE_MODEL")
	_ = viper.BindEnv("genai.tts_model", "GENAI_TTS_MODEL")
	_ = viper.BindEnv("genai.video_model", "GENAI_VIDEO_MODEL")
	_ = viper.BindEnv("genai.tts_voice", "GENAI_TTS_VOICE")
	_ = viper.BindEnv("genai.cookie_delay_ms", "GENAI_COOKIE_DELAY_MS")
	_ = viper.BindEnv("genai.key_delay_ms", "GENAI_KEY_DELAY_MS")
	_ = viper.BindEnv("genai.poll_interval_ms", "GENAI_POLL_INTERVAL_MS")
	_ = viper.BindEnv("genai.max_polls", "GENAI_MAX_POLLS")
	_ = viper.BindEnv("genai.mock", "GENAI_MOCK")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.pipeline_per_hour", 10)
	viper.SetDefault("ratelimit.project_per_min", 60)

	// Generation provider defaults
	viper.SetDefault("genai.base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("genai.origin", "https://aistudio.google.com")
	viper.SetDefault("genai.planner_model", "gemini-2.5-flash")
	viper.SetDefault("genai.image_model", "imagen-4.0-generate-001")
	viper.SetDefault("genai.tts_model", "gemini-2.5-flash-preview-tts")
	viper.SetDefault("genai.video_model", "veo-3.1-generate-preview")
	viper.SetDefault("genai.tts_voice", "Kore")
	viper.SetDefault("genai.cookie_delay_ms", 5000)
	viper.SetDefault("genai.key_delay_ms", 12000)
	viper.SetDefault("genai.poll_interval_ms", 10000)
	viper.SetDefault("genai.max_polls", 60)
	viper.SetDefault("genai.mock", false)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			PipelinePerHour: viper.GetInt("ratelimit.pipeline_per_hour"),
			ProjectPerMin:   viper.GetInt("ratelimit.project_per_min"),
		},
		GenAI: GenAIConfig{
			BaseURL:      viper.GetString("genai.base_url"),
			Origin:       viper.GetString("genai.origin"),
			PlannerModel: viper.GetString("genai.planner_model"),
			ImageModel:   viper.GetString("genai.image_model"),
			TTSModel:     viper.GetString("genai.tts_model"),
			VideoModel:   viper.GetString("genai.video_model"),
			TTSVoice:     viper.GetString("genai.tts_voice"),
			CookieDelay:  time.Duration(viper.GetInt("genai.cookie_delay_ms")) * time.Millisecond,
			KeyDelay:     time.Duration(viper.GetInt("genai.key_delay_ms")) * time.Millisecond,
			PollInterval: time.Duration(viper.GetInt("genai.poll_interval_ms")) * time.Millisecond,
			MaxPolls:     viper.GetInt("genai.max_polls"),
			Mock:         viper.GetBool("genai.mock"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
	}

	return cfg, nil
}
