package session

import "fmt"

// Sampler selects every stride-th frame, starting with frame 0.
type Sampler struct {
	stride int
}

func NewSampler(stride int) (Sampler, error) {
	if stride <= 0 {
		return Sampler{}, fmt.Errorf("session: sampling stride must be positive, got %d", stride)
	}
	return Sampler{stride: stride}, nil
}

func (s Sampler) Stride() int {
	return s.stride
}

// Selects reports whether the frame at index should be analyzed. The zero
// Sampler selects nothing.
func (s Sampler) Selects(index int) bool {
	return s.stride > 0 && index >= 0 && index%s.stride == 0
}
