// README: Idempotency-Key middleware backed by Redis; replays the first successful response.
package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	idempotencyLock   = 30 * time.Second
	idempotencyPrefix = "idempotency:"
)

type CachedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	BodyHash    string `json:"body_hash"`
}

type IdempotencyStore interface {
	Load(ctx context.Context, key string) (*CachedResponse, bool, error)
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
	Save(ctx context.Context, key string, resp CachedResponse, ttl time.Duration) error
}

type RedisIdempotencyStore struct {
	rdb *redis.Client
}

func NewRedisIdempotencyStore(rdb *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb}
}

func (s *RedisIdempotencyStore) Load(ctx context.Context, key string) (*CachedResponse, bool, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("decode cached response: %w", err)
	}
	return &cached, true, nil
}

func (s *RedisIdempotencyStore) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key+":lock", "1", ttl).Result()
}

func (s *RedisIdempotencyStore) Unlock(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key+":lock").Err()
}

func (s *RedisIdempotencyStore) Save(ctx context.Context, key string, resp CachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, data, ttl).Err()
}

type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the cached 2xx response for a repeated Idempotency-Key
// from the same caller. Reusing a key with a different body is a 409. Store
// errors let the request through.
func Idempotency(store IdempotencyStore, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			abort(c, http.StatusBadRequest, "invalid_body", "failed to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		bodyHash := hashBody(body)
		cacheKey := idempotencyPrefix + CallerUID(c) + ":" + key

		cached, found, err := store.Load(ctx, cacheKey)
		if err != nil {
			log.WarnContext(ctx, "idempotency lookup failed", "error", err)
			c.Next()
			return
		}
		if found {
			if cached.BodyHash != bodyHash {
				abort(c, http.StatusConflict, "idempotency_conflict", "idempotency key already used with different request")
				return
			}
			c.Header("Idempotent-Replayed", "true")
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		locked, err := store.Lock(ctx, cacheKey, idempotencyLock)
		if err != nil {
			log.WarnContext(ctx, "idempotency lock failed", "error", err)
			c.Next()
			return
		}
		if !locked {
			abort(c, http.StatusConflict, "request_in_progress", "a request with this idempotency key is already being processed")
			return
		}
		defer func() {
			if err := store.Unlock(context.WithoutCancel(ctx), cacheKey); err != nil {
				log.WarnContext(ctx, "idempotency unlock failed", "error", err)
			}
		}()

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status < 200 || status >= 300 {
			return
		}
		resp := CachedResponse{
			StatusCode:  status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
			BodyHash:    bodyHash,
		}
		if err := store.Save(context.WithoutCancel(ctx), cacheKey, resp, idempotencyTTL); err != nil {
			log.WarnContext(ctx, "idempotency save failed", "error", err)
		}
	}
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
