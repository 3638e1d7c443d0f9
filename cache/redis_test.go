package cache

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestPublisher(t *testing.T, cfg RedisConfig) (*RedisPublisher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	p := NewRedisPublisherWithClient(client, cfg, zerolog.Nop())
	t.Cleanup(func() { _ = p.Close() })
	return p, mr
}

func TestKey(t *testing.T) {
	testCases := []struct {
		prefix, namespace, name string
		want                    string
	}{
		{"files2cache", "qa", "domains", "files2cache:qa:domains"},
		{"", "qa", "domains", "qa:domains"},
		{"p", "", "domains", "p:domains"},
	}
	for _, tc := range testCases {
		if got := Key(tc.prefix, tc.namespace, tc.name); got != tc.want {
			t.Errorf("Key(%q,%q,%q) = %q, want %q", tc.prefix, tc.namespace, tc.name, got, tc.want)
		}
	}
}

func TestPublishWritesLists(t *testing.T) {
	p, mr := newTestPublisher(t, RedisConfig{KeyPrefix: "test"})

	n, err := p.Publish(context.Background(), "qa", map[string][]string{
		"domains": {"A", "B"},
		"status":  {"1", "2", "3"},
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 keys published, got %d", n)
	}

	got, err := mr.List("test:qa:domains")
	if err != nil {
		t.Fatalf("failed to read list: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("expected [A B], got %v", got)
	}

	got, _ = mr.List("test:qa:status")
	if !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}

	if ttl := mr.TTL("test:qa:domains"); ttl != 0 {
		t.Errorf("expected no TTL, got %v", ttl)
	}
}

func TestPublishReplacesStaleValues(t *testing.T) {
	p, mr := newTestPublisher(t, RedisConfig{KeyPrefix: "test"})

	if _, err := mr.Push("test:qa:domains", "OLD1", "OLD2", "OLD3"); err != nil {
		t.Fatalf("failed to seed list: %v", err)
	}

	if _, err := p.Publish(context.Background(), "qa", map[string][]string{"domains": {"NEW"}}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	got, _ := mr.List("test:qa:domains")
	if !reflect.DeepEqual(got, []string{"NEW"}) {
		t.Errorf("expected stale values to be replaced, got %v", got)
	}
}

func TestPublishEmptySequenceDeletesKey(t *testing.T) {
	mr := miniredis.RunT(t)
	var buf bytes.Buffer
	p := NewRedisPublisherWithClient(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		RedisConfig{KeyPrefix: "test", TTL: time.Hour},
		zerolog.New(&buf),
	)
	defer p.Close()

	if _, err := mr.Push("test:qa:empty", "OLD"); err != nil {
		t.Fatalf("failed to seed list: %v", err)
	}

	n, err := p.Publish(context.Background(), "qa", map[string][]string{"empty": {}, "full": {"A"}})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected only the non-empty sequence to be counted, got %d", n)
	}
	if mr.Exists("test:qa:empty") {
		t.Error("expected key to be removed for an empty sequence")
	}
	if !strings.Contains(buf.String(), "key cleared in cache") {
		t.Errorf("expected the cleared key to be logged, got %s", buf.String())
	}
	if strings.Count(buf.String(), "key created in cache") != 1 {
		t.Errorf("expected one created key in the log, got %s", buf.String())
	}
}

func TestPublishAppliesTTL(t *testing.T) {
	p, mr := newTestPublisher(t, RedisConfig{KeyPrefix: "test", TTL: time.Hour})

	if _, err := p.Publish(context.Background(), "qa", map[string][]string{"domains": {"A"}}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if ttl := mr.TTL("test:qa:domains"); ttl != time.Hour {
		t.Errorf("expected 1h TTL, got %v", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if mr.Exists("test:qa:domains") {
		t.Error("expected key to expire")
	}
}

func TestPublishChunksLargeSequences(t *testing.T) {
	p, mr := newTestPublisher(t, RedisConfig{KeyPrefix: "test", BatchSize: 3})

	codes := make([]string, 10)
	for i := range codes {
		codes[i] = fmt.Sprintf("C%02d", i)
	}

	if _, err := p.Publish(context.Background(), "qa", map[string][]string{"big": codes}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	got, _ := mr.List("test:qa:big")
	if !reflect.DeepEqual(got, codes) {
		t.Errorf("expected order to be preserved across chunks, got %v", got)
	}
}

func TestPublishConnectionFailure(t *testing.T) {
	p, mr := newTestPublisher(t, RedisConfig{KeyPrefix: "test"})
	mr.Close()

	n, err := p.Publish(context.Background(), "qa", map[string][]string{"domains": {"A"}})
	if err == nil {
		t.Fatal("expected error when Redis is unreachable")
	}
	if n != 0 {
		t.Errorf("expected no keys published, got %d", n)
	}
	if !strings.Contains(err.Error(), "test:qa:domains") {
		t.Errorf("expected error to name the key, got %v", err)
	}
}

func TestNewRedisPublisher(t *testing.T) {
	mr := miniredis.RunT(t)

	p, err := NewRedisPublisher(context.Background(), RedisConfig{Addrs: []string{mr.Addr()}}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRedisPublisher failed: %v", err)
	}
	defer p.Close()

	if _, ok := p.client.(*redis.Client); !ok {
		t.Errorf("expected single-node client, got %T", p.client)
	}
	if p.batchSize != 500 {
		t.Errorf("expected default batch size 500, got %d", p.batchSize)
	}
}

func TestNewRedisPublisherRequiresAddr(t *testing.T) {
	_, err := NewRedisPublisher(context.Background(), RedisConfig{}, zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "redis address is required") {
		t.Errorf("expected 'redis address is required' error, got %v", err)
	}
}

func TestNewRedisPublisherPingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisPublisher(context.Background(), RedisConfig{Addrs: []string{addr}}, zerolog.Nop()); err == nil {
		t.Error("expected ping failure")
	}
}

func TestNewClientClusterSelection(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     RedisConfig
		cluster bool
	}{
		{"single address", RedisConfig{Addrs: []string{"a:6379"}}, false},
		{"several addresses", RedisConfig{Addrs: []string{"a:6379", "b:6379"}}, true},
		{"forced cluster", RedisConfig{Addrs: []string{"cfg:6379"}, Cluster: true}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := newClient(tc.cfg)
			if err != nil {
				t.Fatalf("newClient failed: %v", err)
			}
			defer client.Close()

			_, isCluster := client.(*redis.ClusterClient)
			if isCluster != tc.cluster {
				t.Errorf("expected cluster=%v, got %T", tc.cluster, client)
			}
		})
	}
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher(zerolog.Nop())
	n, err := p.Publish(context.Background(), "qa", map[string][]string{"domains": {"A"}})
	if err != nil || n != 0 {
		t.Errorf("expected (0, nil), got (%d, %v)", n, err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("expected Close to succeed, got %v", err)
	}
}
