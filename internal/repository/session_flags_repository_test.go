package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type stubRedis struct {
	data   map[string]string
	getErr error
}

func newStubRedis() *stubRedis { return &stubRedis{data: map[string]string{}} }

func (s *stubRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if s.getErr != nil {
		return redis.NewStringResult("", s.getErr)
	}
	v, ok := s.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *stubRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	s.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (s *stubRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := s.data[k]; ok {
			delete(s.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func newTestRepo(client RedisClient) *SessionFlagRepository {
	return NewSessionFlagRepository(client, trace.NewNoopTracerProvider().Tracer("test"))
}

func TestLoadEmpty(t *testing.T) {
	repo := newTestRepo(newStubRedis())

	flags, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flags.RememberDevice || flags.Marker != "" {
		t.Fatalf("expected zero flags, got %+v", flags)
	}
}

func TestSaveAndLoad(t *testing.T) {
	client := newStubRedis()
	repo := newTestRepo(client)

	saved, err := repo.Save(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.data["session:remember_device"] != "true" {
		t.Fatalf("expected remember flag to be written, got %q", client.data["session:remember_device"])
	}

	loaded, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded != saved {
		t.Fatalf("expected %+v, got %+v", saved, loaded)
	}
}

func TestSaveWithoutRememberKeepsFlagUnset(t *testing.T) {
	client := newStubRedis()
	repo := newTestRepo(client)

	if _, err := repo.Save(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := client.data["session:remember_device"]; ok {
		t.Fatal("remember flag should not be written")
	}
	if client.data["session:marker"] == "" {
		t.Fatal("expected marker to be written")
	}
}

func TestClearMarker(t *testing.T) {
	client := newStubRedis()
	repo := newTestRepo(client)
	if _, err := repo.Save(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.ClearMarker(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flags, _ := repo.Load(context.Background())
	if flags.Marker != "" {
		t.Fatalf("expected marker cleared, got %q", flags.Marker)
	}
	if !flags.RememberDevice {
		t.Fatal("remember flag should survive logout")
	}
}

func TestLoadPropagatesErrors(t *testing.T) {
	client := newStubRedis()
	client.getErr = errors.New("boom")

	if _, err := newTestRepo(client).Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewSessionMarker(t *testing.T) {
	marker, err := NewSessionMarker()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(marker, "active_") {
		t.Fatalf("expected active_ prefix, got %q", marker)
	}
	raw, err := base58.Decode(strings.TrimPrefix(marker, "active_"))
	if err != nil {
		t.Fatalf("marker is not base58: %v", err)
	}
	if len(raw) != 16 {
		t.Fatalf("expected 16 random bytes, got %d", len(raw))
	}
}

func TestNewSessionMarkerRandFailure(t *testing.T) {
	orig := randRead
	t.Cleanup(func() { randRead = orig })
	randRead = func([]byte) (int, error) { return 0, errors.New("no entropy") }

	if _, err := NewSessionMarker(); err == nil {
		t.Fatal("expected error")
	}
}
