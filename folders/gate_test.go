package folders

import (
	"context"
	"errors"
	"testing"

	"github.com/gurre/files2cache/store"
	"github.com/rs/zerolog"
)

// countingBucket wraps a MemoryBucket and records List calls
type countingBucket struct {
	*store.MemoryBucket
	prefixes []string
	limits   []int32
	err      error
}

func (c *countingBucket) List(ctx context.Context, prefix string, limit int32) ([]string, error) {
	c.prefixes = append(c.prefixes, prefix)
	c.limits = append(c.limits, limit)
	if c.err != nil {
		return nil, c.err
	}
	return c.MemoryBucket.List(ctx, prefix, limit)
}

func newBucket(t *testing.T, keys ...string) *countingBucket {
	t.Helper()
	mem := store.NewMemoryBucket("test-bucket")
	for _, k := range keys {
		if err := mem.Put(context.Background(), k, []byte("{}"), ""); err != nil {
			t.Fatalf("failed to seed %s: %v", k, err)
		}
	}
	return &countingBucket{MemoryBucket: mem}
}

func TestCheckAllPresent(t *testing.T) {
	bucket := newBucket(t, "qa/a.json", "qa/b.json", "cw3/c.json", "eq3/e.json")
	gate := NewGate(bucket, zerolog.Nop())

	if err := gate.Check(context.Background()); err != nil {
		t.Fatalf("expected all folders to be found, got: %v", err)
	}

	if len(bucket.prefixes) != 3 {
		t.Fatalf("expected one probe per folder, got %v", bucket.prefixes)
	}
	for i, want := range Required {
		if bucket.prefixes[i] != want {
			t.Errorf("probe %d: expected %s, got %s", i, want, bucket.prefixes[i])
		}
		if bucket.limits[i] != 1 {
			t.Errorf("probe %d: expected limit 1, got %d", i, bucket.limits[i])
		}
	}
}

func TestCheckMissingFolder(t *testing.T) {
	testCases := []struct {
		name    string
		keys    []string
		missing string
	}{
		{"qa missing", []string{"cw3/c.json", "eq3/e.json"}, QA},
		{"cw3 missing", []string{"qa/a.json", "eq3/e.json"}, CW3},
		{"eq3 missing", []string{"qa/a.json", "cw3/c.json"}, EQ3},
		{"all missing", nil, QA},
		// A key named "qa" without the slash is not the qa/ folder
		{"prefix without slash", []string{"qa", "cw3/c.json", "eq3/e.json"}, QA},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gate := NewGate(newBucket(t, tc.keys...), zerolog.Nop())

			err := gate.Check(context.Background())
			var missing *MissingFolderError
			if !errors.As(err, &missing) {
				t.Fatalf("expected MissingFolderError, got %v", err)
			}
			if missing.Prefix != tc.missing {
				t.Errorf("expected missing prefix %s, got %s", tc.missing, missing.Prefix)
			}
		})
	}
}

func TestCheckStopsAtFirstMissing(t *testing.T) {
	bucket := newBucket(t, "eq3/e.json")
	gate := NewGate(bucket, zerolog.Nop())

	_ = gate.Check(context.Background())
	if len(bucket.prefixes) != 1 {
		t.Errorf("expected check to stop after the first empty prefix, got probes %v", bucket.prefixes)
	}
}

func TestCheckListError(t *testing.T) {
	bucket := newBucket(t)
	bucket.err = errors.New("throttled")
	gate := NewGate(bucket, zerolog.Nop())

	err := gate.Check(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var missing *MissingFolderError
	if errors.As(err, &missing) {
		t.Error("store failure must not be reported as a missing folder")
	}
}

func TestRequireNonEmpty(t *testing.T) {
	gate := NewGate(newBucket(t, "qa/a.json"), zerolog.Nop())

	if err := gate.RequireNonEmpty(context.Background(), QA); err != nil {
		t.Errorf("expected qa/ to be non-empty, got %v", err)
	}

	err := gate.RequireNonEmpty(context.Background(), CW3)
	var empty *EmptyFolderError
	if !errors.As(err, &empty) || empty.Prefix != CW3 {
		t.Errorf("expected EmptyFolderError for cw3/, got %v", err)
	}
}
