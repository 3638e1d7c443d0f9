// Package qa extracts domain codes from the JSON files of the qa/ folder.
package qa

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gurre/files2cache/config"
	"github.com/gurre/files2cache/folders"
	"github.com/gurre/files2cache/logger"
	"github.com/gurre/files2cache/metrics"
	"github.com/gurre/files2cache/store"
	"github.com/rs/zerolog"
)

// ExtractionError wraps the failure to fetch or decode one file. Extraction
// errors are logged and skipped; they never abort a run.
type ExtractionError struct {
	Key string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("error processing %q: %v", e.Key, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Result maps each file's base name to its codes.
type Result struct {
	// Values holds the codes of every file that was extracted successfully,
	// keyed by file name without extension.
	Values map[string][]string
	// Files lists the base names in Values in processing order.
	Files []string
	// Errors lists the files that were skipped.
	Errors []*ExtractionError
}

// Last returns the most recently extracted file and its codes.
func (r Result) Last() (string, []string, bool) {
	if len(r.Files) == 0 {
		return "", nil, false
	}
	name := r.Files[len(r.Files)-1]
	return name, r.Values[name], true
}

// Extractor reads the configured QA files from the bucket.
type Extractor struct {
	bucket  store.Bucket
	gate    *folders.Gate
	decoder Decoder
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewExtractor creates an Extractor. A nil metrics collector is replaced by a
// private one.
func NewExtractor(bucket store.Bucket, gate *folders.Gate, decoder Decoder, m *metrics.Metrics, log zerolog.Logger) *Extractor {
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &Extractor{
		bucket:  bucket,
		gate:    gate,
		decoder: decoder,
		metrics: m,
		log:     logger.Component(log, "qa"),
	}
}

// Extract reads qa/<file> for every entry of files and decodes its codes.
//
// An empty file list fails with config.MissingConfigurationError before the
// bucket is touched, and an empty qa/ folder fails with
// folders.EmptyFolderError. Per-file failures are logged and recorded in
// Result.Errors while the remaining files are still processed.
func (e *Extractor) Extract(ctx context.Context, files []string) (Result, error) {
	if len(files) == 0 {
		return Result{}, &config.MissingConfigurationError{Key: config.KeyQAJSONFiles}
	}

	e.log.Debug().Strs("files", files).Msg("starting QA extraction")

	if err := e.gate.RequireNonEmpty(ctx, folders.QA); err != nil {
		return Result{}, err
	}

	result := Result{
		Values: make(map[string][]string, len(files)),
		Files:  make([]string, 0, len(files)),
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		key := folders.QA + file
		codes, err := e.extractFile(ctx, key)
		if err != nil {
			extractionErr := &ExtractionError{Key: key, Err: err}
			e.metrics.RecordFileFailed()
			e.log.Error().Err(err).Str("key", key).Msg("error processing QA file")
			result.Errors = append(result.Errors, extractionErr)
			continue
		}

		name := BaseName(file)
		if _, seen := result.Values[name]; seen {
			e.log.Warn().Str("name", name).Str("key", key).Msg("base name already extracted, overwriting")
		} else {
			result.Files = append(result.Files, name)
		}
		result.Values[name] = codes

		e.metrics.RecordFileProcessed(len(codes))
		e.log.Info().Str("name", name).Str("key", key).Int("codes", len(codes)).Msg("extracted domain codes")
	}

	e.log.Debug().Int("extracted", len(result.Files)).Int("failed", len(result.Errors)).Msg("finished QA extraction")
	return result, nil
}

func (e *Extractor) extractFile(ctx context.Context, key string) ([]string, error) {
	data, err := e.bucket.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return e.decoder.Decode(data)
}

// BaseName strips the final extension from a file name. Names whose only dot
// is the leading one are returned unchanged.
func BaseName(file string) string {
	ext := path.Ext(file)
	if ext == "" || ext == path.Base(file) {
		return file
	}
	return strings.TrimSuffix(file, ext)
}
