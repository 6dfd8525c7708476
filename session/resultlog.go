package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/khaledhikmat/vision-go/model"
)

// ResultLog keeps analysis results in insertion order. A positive capacity
// bounds it: the oldest entry is evicted to make room for a new one.
type ResultLog struct {
	mu       sync.RWMutex
	capacity int
	entries  []model.AnalysisResult
	evicted  int64
}

func NewResultLog(capacity int) *ResultLog {
	if capacity < 0 {
		capacity = 0
	}
	return &ResultLog{capacity: capacity}
}

func (l *ResultLog) Append(result model.AnalysisResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.capacity > 0 && len(l.entries) >= l.capacity {
		// Shift instead of reslicing so the backing array does not grow forever.
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
		l.evicted++
	}
	l.entries = append(l.entries, result)
}

// Entries returns a copy of the log, oldest first.
func (l *ResultLog) Entries() []model.AnalysisResult {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.AnalysisResult, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ResultLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *ResultLog) Evicted() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.evicted
}

// Render joins every entry as "Frame <i>: <description>" with sep.
func (l *ResultLog) Render(sep string) string {
	rendered, _ := l.RenderWithLast(sep)
	return rendered
}

// RenderWithLast renders the log and returns the frame index of its newest
// entry, -1 when empty, both from the same state.
func (l *ResultLog) RenderWithLast(sep string) (string, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	lines := make([]string, len(l.entries))
	for i, e := range l.entries {
		lines[i] = FormatResult(e)
	}

	last := -1
	if n := len(l.entries); n > 0 {
		last = l.entries[n-1].FrameIndex
	}
	return strings.Join(lines, sep), last
}

func FormatResult(r model.AnalysisResult) string {
	return fmt.Sprintf("Frame %d: %s", r.FrameIndex, r.Description)
}
