// Package pipeline runs one sync: it verifies the required folders, extracts
// the QA domain codes, runs the remaining folder processors and publishes the
// results to the cache.
package pipeline

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gurre/files2cache/cache"
	"github.com/gurre/files2cache/logger"
	"github.com/gurre/files2cache/metrics"
	"github.com/gurre/files2cache/qa"
	"github.com/gurre/files2cache/store"
	"github.com/rs/zerolog"
)

// Namespace under which QA codes are published.
const NamespaceQA = "qa"

// Gate verifies that the required folders exist.
type Gate interface {
	Check(ctx context.Context) error
}

// Extractor extracts QA domain codes.
type Extractor interface {
	Extract(ctx context.Context, files []string) (qa.Result, error)
}

// Options configures a Pipeline.
type Options struct {
	// QAFiles lists the file names read from qa/
	QAFiles []string
	// ReportKey, when set, is the bucket key the JSON run report is written to
	ReportKey string
}

// Result is the outcome of a successful run.
type Result struct {
	QA        qa.Result
	Folders   map[string]map[string][]string // Results of the other folder processors by name
	Published int                            // Cache keys written
	Report    metrics.Report
}

// Pipeline wires the sync steps together. It runs everything sequentially.
type Pipeline struct {
	opts       Options
	bucket     store.Bucket
	gate       Gate
	extractor  Extractor
	processors []Processor
	publisher  cache.Publisher
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// New creates a Pipeline with all required dependencies. processors run
// after QA extraction in the given order.
func New(
	opts Options,
	bucket store.Bucket,
	gate Gate,
	extractor Extractor,
	processors []Processor,
	publisher cache.Publisher,
	m *metrics.Metrics,
	log zerolog.Logger,
) *Pipeline {
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &Pipeline{
		opts:       opts,
		bucket:     bucket,
		gate:       gate,
		extractor:  extractor,
		processors: processors,
		publisher:  publisher,
		metrics:    m,
		log:        logger.Component(log, "pipeline"),
	}
}

// Run executes one sync. Missing folders, missing configuration, processor
// failures and cache failures abort the run; individual QA files that cannot
// be read are skipped by the extractor.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	if err := p.gate.Check(ctx); err != nil {
		return Result{}, fmt.Errorf("folder check failed: %w", err)
	}
	p.log.Info().Str("bucket", p.bucket.Name()).Msg("All folders exist. Initiating processing.")

	qaResult, err := p.extractor.Extract(ctx, p.opts.QAFiles)
	if err != nil {
		return Result{}, fmt.Errorf("qa extraction failed: %w", err)
	}

	result := Result{
		QA:      qaResult,
		Folders: make(map[string]map[string][]string, len(p.processors)),
	}

	for _, proc := range p.processors {
		values, err := proc.Process(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("%s processing failed: %w", proc.Name(), err)
		}
		result.Folders[proc.Name()] = values
	}
	p.log.Info().Msg("Folders processing completed.")

	start := time.Now()
	published, err := p.publisher.Publish(ctx, NamespaceQA, qaResult.Values)
	p.metrics.RecordPublishTime(time.Since(start))
	p.metrics.RecordKeysPublished(published)
	if err != nil {
		return Result{}, fmt.Errorf("cache publish failed: %w", err)
	}
	result.Published = published
	p.log.Info().Int("keys", published).Msg("All keys created in cache.")

	result.Report = p.metrics.GenerateReport()
	p.log.Info().
		Int64("filesProcessed", result.Report.FilesProcessed).
		Int64("filesFailed", result.Report.FilesFailed).
		Int64("codesExtracted", result.Report.CodesExtracted).
		Int64("keysPublished", result.Report.KeysPublished).
		Dur("duration", result.Report.Duration).
		Msg("sync completed")

	if p.opts.ReportKey != "" {
		if err := p.uploadReport(ctx, result.Report); err != nil {
			return Result{}, err
		}
	}

	return result, nil
}

func (p *Pipeline) uploadReport(ctx context.Context, report metrics.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := p.bucket.Put(ctx, p.opts.ReportKey, data, "application/json"); err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}
	p.log.Info().Str("key", p.opts.ReportKey).Msg("report uploaded")
	return nil
}
