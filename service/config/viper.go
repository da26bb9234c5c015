package config

import (
	"time"

	"github.com/spf13/viper"
	"golang.org/x/xerrors"
)

// settings mirrors the environment keys. Durations are expressed in the
// units their key names carry.
type settings struct {
	ServerPort                string `mapstructure:"SERVER_PORT"`
	ServerWriteTimeoutSeconds int    `mapstructure:"SERVER_WRITE_TIMEOUT_SECONDS"`
	ModeMaxShutdownSeconds    int    `mapstructure:"MODE_MAX_SHUTDOWN_SECONDS"`
	LogLevel                  string `mapstructure:"LOG_LEVEL"`
	LogFile                   string `mapstructure:"LOG_FILE"`
	DetectionsLogFile         string `mapstructure:"DETECTIONS_LOG_FILE"`

	UserAgent           string `mapstructure:"USER_AGENT"`
	FetchTimeoutSeconds int    `mapstructure:"FETCH_TIMEOUT_SECONDS"`
	FetchMaxRetries     uint64 `mapstructure:"FETCH_MAX_RETRIES"`
	FetchRetryBackoffMS int    `mapstructure:"FETCH_RETRY_BACKOFF_MS"`
	FetchMaxBytes       int64  `mapstructure:"FETCH_MAX_BYTES"`

	InferenceType string `mapstructure:"INFERENCE_TYPE"`
	ModelPrototxt string `mapstructure:"MODEL_PROTOTXT"`
	ModelWeights  string `mapstructure:"MODEL_WEIGHTS"`

	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int    `mapstructure:"REDIS_DB"`
	CacheTTLSeconds int    `mapstructure:"CACHE_TTL_SECONDS"`

	WebhookURL string `mapstructure:"WEBHOOK_URL"`
}

type viperService struct {
	s settings
}

// NewViper reads configuration from an optional .env file and the process
// environment, falling back to the hardcoded defaults.
func NewViper(envFile string) (IService, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing .env is fine, the environment alone is enough in production
	_ = v.ReadInConfig()

	def := NewHardCoded()
	v.SetDefault("SERVER_PORT", def.GetServerPort())
	v.SetDefault("SERVER_WRITE_TIMEOUT_SECONDS", int(def.GetServerWriteTimeout().Seconds()))
	v.SetDefault("MODE_MAX_SHUTDOWN_SECONDS", def.GetModeMaxShutdownTime())
	v.SetDefault("LOG_LEVEL", def.GetLogLevel())
	v.SetDefault("LOG_FILE", def.GetLogFile())
	v.SetDefault("DETECTIONS_LOG_FILE", def.GetDetectionsLogFile())
	v.SetDefault("USER_AGENT", def.GetUserAgent())
	v.SetDefault("FETCH_TIMEOUT_SECONDS", int(def.GetFetchTimeout().Seconds()))
	v.SetDefault("FETCH_MAX_RETRIES", def.GetFetchMaxRetries())
	v.SetDefault("FETCH_RETRY_BACKOFF_MS", def.GetFetchRetryBackoff().Milliseconds())
	v.SetDefault("FETCH_MAX_BYTES", def.GetFetchMaxBytes())
	v.SetDefault("INFERENCE_TYPE", def.GetInferenceType())
	v.SetDefault("MODEL_PROTOTXT", def.GetModelParameters().PrototxtPath)
	v.SetDefault("MODEL_WEIGHTS", def.GetModelParameters().WeightsPath)
	v.SetDefault("REDIS_ADDR", def.GetRedisAddr())
	v.SetDefault("REDIS_PASSWORD", def.GetRedisPassword())
	v.SetDefault("REDIS_DB", def.GetRedisDB())
	v.SetDefault("CACHE_TTL_SECONDS", int(def.GetCacheTTL().Seconds()))
	v.SetDefault("WEBHOOK_URL", def.GetWebhookURL())

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, xerrors.Errorf("unmarshalling configuration: %w", err)
	}

	if s.InferenceType != InferenceCaffe && s.InferenceType != InferenceFake {
		return nil, xerrors.Errorf("unknown INFERENCE_TYPE %q", s.InferenceType)
	}

	return &viperService{s: s}, nil
}

func (svc *viperService) GetServerPort() string {
	return svc.s.ServerPort
}

func (svc *viperService) GetServerWriteTimeout() time.Duration {
	return time.Duration(svc.s.ServerWriteTimeoutSeconds) * time.Second
}

func (svc *viperService) GetModeMaxShutdownTime() int {
	return svc.s.ModeMaxShutdownSeconds
}

func (svc *viperService) GetLogLevel() string {
	return svc.s.LogLevel
}

func (svc *viperService) GetLogFile() string {
	return svc.s.LogFile
}

func (svc *viperService) GetDetectionsLogFile() string {
	return svc.s.DetectionsLogFile
}

func (svc *viperService) GetUserAgent() string {
	return svc.s.UserAgent
}

func (svc *viperService) GetFetchTimeout() time.Duration {
	return time.Duration(svc.s.FetchTimeoutSeconds) * time.Second
}

func (svc *viperService) GetFetchMaxRetries() uint64 {
	return svc.s.FetchMaxRetries
}

func (svc *viperService) GetFetchRetryBackoff() time.Duration {
	return time.Duration(svc.s.FetchRetryBackoffMS) * time.Millisecond
}

func (svc *viperService) GetFetchMaxBytes() int64 {
	return svc.s.FetchMaxBytes
}

func (svc *viperService) GetInferenceType() string {
	return svc.s.InferenceType
}

func (svc *viperService) GetModelParameters() ModelParameters {
	params := defaultModelParameters
	params.PrototxtPath = svc.s.ModelPrototxt
	params.WeightsPath = svc.s.ModelWeights
	return params
}

func (svc *viperService) GetRedisAddr() string {
	return svc.s.RedisAddr
}

func (svc *viperService) GetRedisPassword() string {
	return svc.s.RedisPassword
}

func (svc *viperService) GetRedisDB() int {
	return svc.s.RedisDB
}

func (svc *viperService) GetCacheTTL() time.Duration {
	return time.Duration(svc.s.CacheTTLSeconds) * time.Second
}

func (svc *viperService) GetWebhookURL() string {
	return svc.s.WebhookURL
}
