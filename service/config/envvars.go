package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// envVarsService reads settings from the process environment (populated from
// .env by godotenv in dev) and falls back to the hardcoded defaults.
type envVarsService struct {
	IService
	lookup func(string) (string, bool)
}

func NewEnvVars() IService {
	return newEnvVars(os.LookupEnv)
}

func newEnvVars(lookup func(string) (string, bool)) IService {
	return &envVarsService{
		IService: NewHardCoded(),
		lookup:   lookup,
	}
}

func (svc *envVarsService) str(key string, def string) string {
	if v, ok := svc.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (svc *envVarsService) num(key string, def int) int {
	v, ok := svc.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func (svc *envVarsService) GetModeMaxShutdownTime() int {
	return svc.num("MODE_MAX_SHUTDOWN_SECS", svc.IService.GetModeMaxShutdownTime())
}

func (svc *envVarsService) GetDataFolder() string {
	return svc.str("DATA_FOLDER", svc.IService.GetDataFolder())
}

func (svc *envVarsService) GetLogsFolder() string {
	return svc.str("LOGS_FOLDER", svc.IService.GetLogsFolder())
}

func (svc *envVarsService) GetAnalysesJournal() string {
	return svc.str("ANALYSES_JOURNAL", svc.IService.GetAnalysesJournal())
}

func (svc *envVarsService) GetVisionAPIKey() string {
	return svc.str("VISION_API_KEY", svc.IService.GetVisionAPIKey())
}

func (svc *envVarsService) GetVisionEndpoint() string {
	return svc.str("VISION_ENDPOINT", svc.IService.GetVisionEndpoint())
}

func (svc *envVarsService) GetVisionModel() string {
	return svc.str("VISION_MODEL", svc.IService.GetVisionModel())
}

func (svc *envVarsService) GetVisionPrompt() string {
	return svc.str("VISION_PROMPT", svc.IService.GetVisionPrompt())
}

func (svc *envVarsService) GetVisionTimeout() time.Duration {
	secs := svc.num("VISION_TIMEOUT_SECS", 0)
	if secs <= 0 {
		return svc.IService.GetVisionTimeout()
	}
	return time.Duration(secs) * time.Second
}

func (svc *envVarsService) GetSampleStride() int {
	return svc.num("SAMPLE_STRIDE", svc.IService.GetSampleStride())
}

func (svc *envVarsService) GetJPEGQuality() int {
	return svc.num("JPEG_QUALITY", svc.IService.GetJPEGQuality())
}

func (svc *envVarsService) GetResultLogCapacity() int {
	return svc.num("RESULT_LOG_CAPACITY", svc.IService.GetResultLogCapacity())
}

func (svc *envVarsService) GetAnalysisQueueSize() int {
	return svc.num("ANALYSIS_QUEUE_SIZE", svc.IService.GetAnalysisQueueSize())
}

func (svc *envVarsService) GetCameraDevice() string {
	return svc.str("CAMERA_DEVICE", svc.IService.GetCameraDevice())
}

func (svc *envVarsService) GetFramerType() string {
	return svc.str("FRAMER_TYPE", svc.IService.GetFramerType())
}

func (svc *envVarsService) GetWebPort() string {
	return svc.str("WEB_PORT", svc.IService.GetWebPort())
}
