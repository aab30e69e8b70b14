package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var runsBucket = []byte("runs")

// RunRecord summarizes one pipeline invocation.
type RunRecord struct {
	Mode       string    `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Articles   int       `json:"articles"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}

// Journal keeps an append-only log of run summaries, separate from the
// record documents so external scripts reading the JSON dataset never see it.
type Journal struct {
	db *bolt.DB
}

func OpenJournal(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(runsBucket)
		return createErr
	})
	if err != nil {
		return nil, fmt.Errorf("creating journal bucket: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one run summary, keyed by start time.
func (j *Journal) Record(rec *RunRecord) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		key := rec.StartedAt.UTC().Format(time.RFC3339Nano)
		return b.Put([]byte(key), data)
	})
}

// Recent returns up to limit run records, newest first.
func (j *Journal) Recent(limit int) ([]*RunRecord, error) {
	var runs []*RunRecord
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(runsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			runs = append(runs, &rec)
		}
		return nil
	})
	return runs, err
}
