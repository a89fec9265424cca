// Package store persists annotation records to an append-only CSV log.
//
// The log lives at <outputFolder>/annotations.csv with the header
// image_name,label,session_id,timestamp. Rows are never rewritten or
// deduplicated; the read path collapses the log to a per-image lookup
// used to decide which images have already been annotated.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"k8s.io/klog/v2"
)

// FileName is the annotation log filename inside the output folder.
const FileName = "annotations.csv"

// TimeFormat is the timestamp layout used in log rows.
const TimeFormat = "2006-01-02 15:04:05"

var header = []string{"image_name", "label", "session_id", "timestamp"}

// Record is one row of the annotation log.
type Record struct {
	ImageName string
	Label     string
	SessionID string
	Timestamp time.Time
}

// Append writes one annotation row for imagePath to the log in outputFolder.
// The header row is written first iff the log file does not exist yet. The
// row is flushed and synced before Append returns.
func Append(imagePath, label, outputFolder, sessionID string) error {
	return AppendAt(imagePath, label, outputFolder, sessionID, time.Now())
}

// AppendAt is Append with an explicit timestamp.
func AppendAt(imagePath, label, outputFolder, sessionID string, ts time.Time) error {
	if err := os.MkdirAll(outputFolder, 0755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	csvPath := filepath.Join(outputFolder, FileName)
	_, statErr := os.Stat(csvPath)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(csvPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open annotation log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := []string{filepath.Base(imagePath), label, sessionID, ts.Format(TimeFormat)}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write annotation row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush annotation row: %w", err)
	}

	// Durable before return; appends must survive an immediate crash.
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync annotation log: %w", err)
	}

	return nil
}

// LoadExisting reads the full annotation log in outputFolder and returns a
// lookup keyed by image name. When an image appears in multiple rows the
// last row wins. A missing log file yields an empty map and no error;
// malformed rows are skipped with a warning.
func LoadExisting(outputFolder string) (map[string]Record, error) {
	annotated := map[string]Record{}

	csvPath := filepath.Join(outputFolder, FileName)
	f, err := os.Open(csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			return annotated, nil
		}
		return nil, fmt.Errorf("failed to open annotation log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation log: %w", err)
	}

	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 4 {
			klog.Warningf("skipping malformed annotation row %d in %s", i+1, csvPath)
			continue
		}

		ts, err := time.ParseInLocation(TimeFormat, row[3], time.Local)
		if err != nil {
			klog.Warningf("skipping annotation row %d with bad timestamp %q", i+1, row[3])
			continue
		}

		annotated[row[0]] = Record{
			ImageName: row[0],
			Label:     row[1],
			SessionID: row[2],
			Timestamp: ts,
		}
	}

	return annotated, nil
}
