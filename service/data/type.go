package data

import "github.com/khaledhikmat/vision-go/model"

// IService journals operational records. Credentials and analysis results are
// session state and never go through it.
type IService interface {
	NewError(err interface{}) error
	NewFramerStats(stats model.FramerStats) error
	NewStreamerStats(stats model.StreamerStats) error
	NewSessionStats(stats model.SessionStats) error
}
