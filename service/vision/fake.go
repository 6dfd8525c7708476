package vision

import (
	"context"
	"sync"
)

// Fake is an in-memory IService for offline runs and tests.
type Fake struct {
	mu sync.Mutex

	AnalyzeFunc func(ctx context.Context, credential, imageDataURL, prompt string) (string, error)
	CheckFunc   func(ctx context.Context, credential string) error

	AnalyzeCalls int
	CheckCalls   int
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Analyze(ctx context.Context, credential, imageDataURL, prompt string) (string, error) {
	f.mu.Lock()
	f.AnalyzeCalls++
	fn := f.AnalyzeFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, credential, imageDataURL, prompt)
	}
	return NoDescription, nil
}

func (f *Fake) Check(ctx context.Context, credential string) error {
	f.mu.Lock()
	f.CheckCalls++
	fn := f.CheckFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, credential)
	}
	if credential == "" {
		return ErrMissingCredential
	}
	return nil
}

func (f *Fake) Calls() (analyze, check int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.AnalyzeCalls, f.CheckCalls
}

var _ IService = (*Fake)(nil)
