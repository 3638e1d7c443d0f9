// Package metrics collects the counters of a sync run and renders the final
// run report.
package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// Metrics collects counters for one invocation.
// It uses atomic operations for counter updates.
type Metrics struct {
	mu sync.RWMutex

	filesProcessed int64 // Files decoded successfully
	filesFailed    int64 // Files skipped after a fetch or parse error
	codesExtracted int64 // Domain codes extracted across all files
	keysPublished  int64 // Cache keys written

	publishTime time.Duration // Time spent writing to the cache
	startTime   time.Time     // When the run started
}

// NewMetrics creates a new Metrics instance with initialized counters
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// RecordFileProcessed counts a successfully extracted file and its codes
func (m *Metrics) RecordFileProcessed(codes int) {
	atomic.AddInt64(&m.filesProcessed, 1)
	atomic.AddInt64(&m.codesExtracted, int64(codes))
}

// RecordFileFailed increments the failed files counter
func (m *Metrics) RecordFileFailed() {
	atomic.AddInt64(&m.filesFailed, 1)
}

// RecordKeysPublished adds n to the published keys counter
func (m *Metrics) RecordKeysPublished(n int) {
	atomic.AddInt64(&m.keysPublished, int64(n))
}

// RecordPublishTime records time spent publishing to the cache
func (m *Metrics) RecordPublishTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishTime += d
}

// Report is the summary of one run, logged at the end of every invocation
// and optionally uploaded to the bucket.
type Report struct {
	StartTime      time.Time     `json:"startTime"`
	EndTime        time.Time     `json:"endTime"`
	Duration       time.Duration `json:"duration"`
	PublishTime    time.Duration `json:"publishTime"`
	FilesProcessed int64         `json:"filesProcessed"`
	FilesFailed    int64         `json:"filesFailed"`
	CodesExtracted int64         `json:"codesExtracted"`
	KeysPublished  int64         `json:"keysPublished"`
}

// GenerateReport snapshots the counters into a Report
func (m *Metrics) GenerateReport() Report {
	endTime := time.Now()

	m.mu.RLock()
	publishTime := m.publishTime
	m.mu.RUnlock()

	return Report{
		StartTime:      m.startTime,
		EndTime:        endTime,
		Duration:       endTime.Sub(m.startTime),
		PublishTime:    publishTime,
		FilesProcessed: atomic.LoadInt64(&m.filesProcessed),
		FilesFailed:    atomic.LoadInt64(&m.filesFailed),
		CodesExtracted: atomic.LoadInt64(&m.codesExtracted),
		KeysPublished:  atomic.LoadInt64(&m.keysPublished),
	}
}

// MarshalJSON renders durations as Go duration strings
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	return json.Marshal(&struct {
		Alias
		Duration    string `json:"duration"`
		PublishTime string `json:"publishTime"`
	}{
		Alias:       Alias(r),
		Duration:    r.Duration.String(),
		PublishTime: r.PublishTime.String(),
	})
}

// String returns a human-readable summary
func (r Report) String() string {
	return fmt.Sprintf(
		"Sync completed in %s\n"+
			"Files processed: %d\n"+
			"Files failed: %d\n"+
			"Codes extracted: %d\n"+
			"Keys published: %d",
		r.Duration,
		r.FilesProcessed,
		r.FilesFailed,
		r.CodesExtracted,
		r.KeysPublished,
	)
}
