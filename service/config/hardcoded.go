package config

import (
	"time"
)

type hardcodedService struct {
}

func NewHardCoded() IService {
	return &hardcodedService{}
}

func (svc *hardcodedService) GetModeMaxShutdownTime() int {
	return 5
}

func (svc *hardcodedService) GetDataFolder() string {
	return "./data"
}

func (svc *hardcodedService) GetLogsFolder() string {
	return "./logs"
}

func (svc *hardcodedService) GetAnalysesJournal() string {
	return ""
}

func (svc *hardcodedService) GetVisionAPIKey() string {
	// There is no sensible default for a credential.
	return ""
}

func (svc *hardcodedService) GetVisionEndpoint() string {
	return DefaultEndpoint
}

func (svc *hardcodedService) GetVisionModel() string {
	return DefaultModel
}

func (svc *hardcodedService) GetVisionPrompt() string {
	return DefaultPrompt
}

func (svc *hardcodedService) GetVisionTimeout() time.Duration {
	return 60 * time.Second
}

func (svc *hardcodedService) GetSampleStride() int {
	return 30
}

func (svc *hardcodedService) GetJPEGQuality() int {
	return 95
}

func (svc *hardcodedService) GetResultLogCapacity() int {
	return 500
}

func (svc *hardcodedService) GetAnalysisQueueSize() int {
	return 4
}

func (svc *hardcodedService) GetPreviewQueueSize() int {
	return 2
}

func (svc *hardcodedService) GetStatsPeriodicTimeout() int {
	return 30
}

func (svc *hardcodedService) GetCameraDevice() string {
	return "0"
}

func (svc *hardcodedService) GetFramerType() string {
	return "device"
}

func (svc *hardcodedService) GetWebPort() string {
	return "8080"
}
