package data

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/khaledhikmat/vision-go/model"
	"github.com/khaledhikmat/vision-go/service/config"
)

type folderConfig struct {
	config.IService
	folder string
}

func (c folderConfig) GetDataFolder() string { return c.folder }

func newTestDB(t *testing.T) (IService, string) {
	t.Helper()
	folder := filepath.Join(t.TempDir(), "data")
	return NewFilesDB(folderConfig{IService: config.NewHardCoded(), folder: folder}), folder
}

func readJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal %s: %v", path, err)
	}
}

func TestStatsAreAppended(t *testing.T) {
	db, folder := newTestDB(t)

	for i := 1; i <= 3; i++ {
		if err := db.NewSessionStats(model.SessionStats{ID: "s", Analyzed: int64(i)}); err != nil {
			t.Fatalf("NewSessionStats: %v", err)
		}
	}

	var got []model.SessionStats
	readJSON(t, filepath.Join(folder, "session-stats.json"), &got)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[2].Analyzed != 3 || got[2].Timestamp == 0 {
		t.Errorf("unexpected last record: %+v", got[2])
	}
}

func TestErrorKinds(t *testing.T) {
	db, folder := newTestDB(t)

	db.NewError(model.GenError("session_analyzer", errors.New("status 500"), nil, "error analyzing frame %d", 30))
	db.NewError(errors.New("plain"))
	db.NewError("not an error")

	var got []struct {
		Processor string `json:"processor"`
		Inner     string `json:"innerError"`
		Message   string `json:"message"`
	}
	readJSON(t, filepath.Join(folder, "errors.json"), &got)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].Processor != "session_analyzer" || got[0].Message != "error analyzing frame 30" || got[0].Inner != "status 500" {
		t.Errorf("custom error record = %+v", got[0])
	}
	if got[1].Processor != "N/A" || got[1].Message != "plain" {
		t.Errorf("plain error record = %+v", got[1])
	}
	if got[2].Message != "not an error" || got[2].Inner != "" {
		t.Errorf("value record = %+v", got[2])
	}
}

func TestCorruptJournal(t *testing.T) {
	db, folder := newTestDB(t)
	os.MkdirAll(folder, 0755)
	os.WriteFile(filepath.Join(folder, "framer-stats.json"), []byte("{"), 0644)

	if err := db.NewFramerStats(model.FramerStats{Name: "x"}); err == nil {
		t.Fatal("expected an error for a corrupt journal")
	}
}
