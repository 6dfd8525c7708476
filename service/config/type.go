package config

import "time"

const (
	DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel    = "google/gemini-2.0-pro-exp-02-05:free"
	DefaultPrompt   = "What is happening in this frame?"
)

type IService interface {
	GetModeMaxShutdownTime() int
	GetDataFolder() string
	GetLogsFolder() string
	// GetAnalysesJournal is the file results are journaled to. Empty keeps
	// results in memory only, for the lifetime of the session.
	GetAnalysesJournal() string

	GetVisionAPIKey() string
	GetVisionEndpoint() string
	GetVisionModel() string
	GetVisionPrompt() string
	GetVisionTimeout() time.Duration

	GetSampleStride() int
	GetJPEGQuality() int
	GetResultLogCapacity() int
	GetAnalysisQueueSize() int
	GetPreviewQueueSize() int
	GetStatsPeriodicTimeout() int

	GetCameraDevice() string
	GetFramerType() string
	GetWebPort() string
}
