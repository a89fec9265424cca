// Package session tracks labeling sessions and their append-only history.
//
// A session covers one continuous run of the annotator. Its counters live in
// a State owned by the controller; at save time the State is frozen into a
// Summary and appended to the JSON ledger at <outputFolder>/session_history.json.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// FileName is the session ledger filename inside the output folder.
const FileName = "session_history.json"

// TimeFormat is the layout for start_time and end_time fields.
const TimeFormat = "2006-01-02 15:04:05"

// IDFormat is the layout for session ids.
const IDFormat = "20060102_150405"

// Summary is one persisted session, as stored in the ledger.
type Summary struct {
	SessionID       string `json:"session_id"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	ImagesAnnotated int    `json:"images_annotated"`
	SuitableImages  int    `json:"suitable_images"`
}

// State is the mutable in-memory counters for the session in progress.
type State struct {
	ID              string
	StartTime       time.Time
	ImagesAnnotated int
	SuitableImages  int
}

// NewState starts a fresh session beginning at t.
func NewState(t time.Time) State {
	return State{ID: NewID(t), StartTime: t}
}

// Summary freezes the state into a persistable summary ending at end.
func (s State) Summary(end time.Time) Summary {
	return Summary{
		SessionID:       s.ID,
		StartTime:       s.StartTime.Format(TimeFormat),
		EndTime:         end.Format(TimeFormat),
		ImagesAnnotated: s.ImagesAnnotated,
		SuitableImages:  s.SuitableImages,
	}
}

var (
	idMu      sync.Mutex
	lastStamp time.Time
)

// NewID derives a session id from t at second granularity. Two sessions
// started within the same second would otherwise collide, so ids issued by
// this process are kept strictly increasing by bumping the stamp one second
// past the previous one when needed.
func NewID(t time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()

	t = t.Truncate(time.Second)
	if !lastStamp.IsZero() && !t.After(lastStamp) {
		t = lastStamp.Add(time.Second)
	}
	lastStamp = t
	return t.Format(IDFormat)
}

// LoadHistory reads the session ledger at path. A missing file or malformed
// JSON yields an empty history; this never fails the caller.
func LoadHistory(path string) []Summary {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			klog.Warningf("unable to read session history %s: %v", path, err)
		}
		return []Summary{}
	}

	var history []Summary
	if err := json.Unmarshal(data, &history); err != nil {
		klog.Warningf("malformed session history %s, treating as empty: %v", path, err)
		return []Summary{}
	}

	return history
}

// Append loads the current history, appends summary, and rewrites the whole
// ledger file.
func Append(path string, summary Summary) error {
	history := LoadHistory(path)
	history = append(history, summary)

	data, err := json.MarshalIndent(history, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal session history: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session history: %w", err)
	}

	return nil
}

// TotalSuitable sums suitable_images across all summaries.
func TotalSuitable(history []Summary) int {
	total := 0
	for _, s := range history {
		total += s.SuitableImages
	}
	return total
}

// Count returns the number of sessions in history.
func Count(history []Summary) int {
	return len(history)
}
