package config

import "time"

const (
	InferenceCaffe = "caffe"
	InferenceFake  = "fake"
)

type IService interface {
	GetServerPort() string
	GetServerWriteTimeout() time.Duration
	GetModeMaxShutdownTime() int
	GetLogLevel() string
	GetLogFile() string
	GetDetectionsLogFile() string

	GetUserAgent() string
	GetFetchTimeout() time.Duration
	GetFetchMaxRetries() uint64
	GetFetchRetryBackoff() time.Duration
	GetFetchMaxBytes() int64

	GetInferenceType() string
	GetModelParameters() ModelParameters

	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetCacheTTL() time.Duration

	GetWebhookURL() string
}

// ModelParameters locate the open_nsfw caffe artifacts and carry the fixed
// preprocessing the model was trained with.
type ModelParameters struct {
	PrototxtPath string
	WeightsPath  string
	ResizeTo     int
	CropTo       int
	Mean         [3]float64 // B, G, R
	InputLayer   string
	OutputLayer  string
}
