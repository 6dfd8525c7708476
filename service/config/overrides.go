package config

// Overrides holds command-line values. Zero values leave the underlying
// setting untouched.
type Overrides struct {
	APIKey     string
	Endpoint   string
	Model      string
	Prompt     string
	Stride     int
	Device     string
	FramerType string
	WebPort    string
}

type overridesService struct {
	IService
	o Overrides
}

func WithOverrides(base IService, o Overrides) IService {
	return &overridesService{IService: base, o: o}
}

func pick(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func (svc *overridesService) GetVisionAPIKey() string {
	return pick(svc.o.APIKey, svc.IService.GetVisionAPIKey())
}

func (svc *overridesService) GetVisionEndpoint() string {
	return pick(svc.o.Endpoint, svc.IService.GetVisionEndpoint())
}

func (svc *overridesService) GetVisionModel() string {
	return pick(svc.o.Model, svc.IService.GetVisionModel())
}

func (svc *overridesService) GetVisionPrompt() string {
	return pick(svc.o.Prompt, svc.IService.GetVisionPrompt())
}

func (svc *overridesService) GetSampleStride() int {
	if svc.o.Stride > 0 {
		return svc.o.Stride
	}
	return svc.IService.GetSampleStride()
}

func (svc *overridesService) GetCameraDevice() string {
	return pick(svc.o.Device, svc.IService.GetCameraDevice())
}

func (svc *overridesService) GetFramerType() string {
	return pick(svc.o.FramerType, svc.IService.GetFramerType())
}

func (svc *overridesService) GetWebPort() string {
	return pick(svc.o.WebPort, svc.IService.GetWebPort())
}
