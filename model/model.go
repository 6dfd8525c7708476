package model

import (
	"fmt"
	"runtime/debug"
	"time"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// Source is a frame source: a local camera device or a synthetic generator.
type Source struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Device     string `json:"device"`     // Device index ("0") or a capture URL
	FramerType string `json:"framerType"` // "device" or "random"
}

// AnalysisResult is one description produced for one sampled frame.
type AnalysisResult struct {
	SessionID   string    `json:"sessionId"`
	FrameIndex  int       `json:"frameIndex"`
	Description string    `json:"description"`
	LatencyMs   int64     `json:"latencyMs"`
	Timestamp   time.Time `json:"timestamp"`
}

type FramerStats struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	FPS       int    `json:"fps"`
	Frames    int    `json:"frames"`
	Errors    int    `json:"errors"`
	Uptime    int64  `json:"uptime"`
	Timestamp int64  `json:"timestamp"`
}

type StreamerStats struct {
	Name        string  `json:"name"`
	Source      string  `json:"source"`
	FPS         int     `json:"fps"`
	Frames      int     `json:"frames"`
	Errors      int     `json:"errors"`
	Uptime      int64   `json:"uptime"`
	AvgProcTime float64 `json:"avgProcTime"`
	Timestamp   int64   `json:"timestamp"`
}

type SessionStats struct {
	ID           string  `json:"id"`
	Analyzed     int64   `json:"analyzed"`
	Failed       int64   `json:"failed"`
	Dropped      int64   `json:"dropped"`
	Evicted      int64   `json:"evicted"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
	Uptime       int64   `json:"uptime"`
	Timestamp    int64   `json:"timestamp"`
}
