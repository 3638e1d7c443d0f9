package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestMemoryBucketRoundTrip(t *testing.T) {
	ctx := context.Background()
	bucket := NewMemoryBucket("mem")

	if err := bucket.Put(ctx, "qa/b.json", []byte("b"), ""); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := bucket.Put(ctx, "qa/a.json", []byte("a"), ""); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := bucket.Put(ctx, "eq3/x.json", []byte("x"), ""); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	keys, err := bucket.List(ctx, "qa/", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"qa/a.json", "qa/b.json"}) {
		t.Errorf("expected sorted qa keys, got %v", keys)
	}

	keys, err = bucket.List(ctx, "qa/", 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"qa/a.json"}) {
		t.Errorf("expected limit to apply, got %v", keys)
	}

	data, err := bucket.Get(ctx, "qa/a.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "a" {
		t.Errorf("expected content a, got %q", data)
	}

	// Returned slices must not alias stored content
	data[0] = 'z'
	again, _ := bucket.Get(ctx, "qa/a.json")
	if string(again) != "a" {
		t.Errorf("stored content was mutated through returned slice: %q", again)
	}
}

func TestMemoryBucketMissing(t *testing.T) {
	_, err := NewMemoryBucket("mem").Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryBucketCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewMemoryBucket("mem").List(ctx, "", 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
