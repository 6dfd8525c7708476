// Package console prints analysis outcomes to a terminal.
package console

import (
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/khaledhikmat/vision-go/model"
)

// Presenter writes one line per result or error. It has no preview surface,
// frames are counted and dropped.
type Presenter struct {
	mu     sync.Mutex
	out    io.Writer
	frames int64

	frameColor *color.Color
	textColor  *color.Color
	errorColor *color.Color
	timeColor  *color.Color
}

func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{
		out:        out,
		frameColor: color.New(color.FgCyan, color.Bold),
		textColor:  color.New(color.FgWhite),
		errorColor: color.New(color.FgRed),
		timeColor:  color.New(color.FgHiBlack),
	}
}

func (p *Presenter) ShowFrame(_ []byte) {
	p.mu.Lock()
	p.frames++
	p.mu.Unlock()
}

func (p *Presenter) Frames() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

func (p *Presenter) ShowResult(result model.AnalysisResult, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.timeColor.Fprintf(p.out, "%s ", result.Timestamp.Format("15:04:05"))
	p.frameColor.Fprintf(p.out, "Frame %d: ", result.FrameIndex)
	p.textColor.Fprintln(p.out, result.Description)
}

func (p *Presenter) ShowError(frameIndex int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.timeColor.Fprintf(p.out, "%s ", time.Now().Format("15:04:05"))
	if frameIndex >= 0 {
		p.errorColor.Fprintf(p.out, "Frame %d: %v\n", frameIndex, err)
		return
	}
	p.errorColor.Fprintf(p.out, "%v\n", err)
}
