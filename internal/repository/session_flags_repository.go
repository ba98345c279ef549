package repository

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	rememberDeviceKey = "session:remember_device"
	sessionMarkerKey  = "session:marker"
	markerPrefix      = "active_"
)

// SessionFlags are the device-local login hints kept across restarts.
type SessionFlags struct {
	RememberDevice bool   `json:"remember_device"`
	Marker         string `json:"marker,omitempty"`
}

type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var randRead = rand.Read

// SessionFlagRepository stores the remember-device flag and the active
// session marker in Redis.
type SessionFlagRepository struct {
	redis  RedisClient
	tracer trace.Tracer
}

func NewSessionFlagRepository(client RedisClient, tracer trace.Tracer) *SessionFlagRepository {
	return &SessionFlagRepository{redis: client, tracer: tracer}
}

func (r *SessionFlagRepository) Load(ctx context.Context) (SessionFlags, error) {
	_, span := r.tracer.Start(ctx, "session-flag-repo.load")
	defer span.End()

	var flags SessionFlags
	remember, err := r.get(ctx, rememberDeviceKey)
	if err != nil {
		return flags, err
	}
	flags.RememberDevice = remember == "true"

	flags.Marker, err = r.get(ctx, sessionMarkerKey)
	if err != nil {
		return flags, err
	}
	return flags, nil
}

// Save writes a fresh session marker. The remember flag is only ever set,
// never cleared, matching the opt-in toggle of the login screen.
func (r *SessionFlagRepository) Save(ctx context.Context, remember bool) (SessionFlags, error) {
	_, span := r.tracer.Start(ctx, "session-flag-repo.save")
	defer span.End()

	marker, err := NewSessionMarker()
	if err != nil {
		return SessionFlags{}, err
	}
	if err := r.redis.Set(ctx, sessionMarkerKey, marker, 0).Err(); err != nil {
		return SessionFlags{}, fmt.Errorf("write session marker: %w", err)
	}
	if remember {
		if err := r.redis.Set(ctx, rememberDeviceKey, "true", 0).Err(); err != nil {
			return SessionFlags{}, fmt.Errorf("write remember flag: %w", err)
		}
	}
	return SessionFlags{RememberDevice: remember, Marker: marker}, nil
}

func (r *SessionFlagRepository) ClearMarker(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "session-flag-repo.clear-marker")
	defer span.End()

	return r.redis.Del(ctx, sessionMarkerKey).Err()
}

func (r *SessionFlagRepository) get(ctx context.Context, key string) (string, error) {
	v, err := r.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

// NewSessionMarker returns "active_" followed by a base58 random token.
func NewSessionMarker() (string, error) {
	buf := make([]byte, 16)
	if _, err := randRead(buf); err != nil {
		return "", fmt.Errorf("generate session marker: %w", err)
	}
	return markerPrefix + base58.Encode(buf), nil
}
