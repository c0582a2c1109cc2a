// internal/middleware/idempotency.go
package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/loan-manager/internal/utils"
)

const (
	IdempotencyKeyHeader   = "Idempotency-Key"
	IdempotentReplayHeader = "Idempotent-Replayed"

	// How long the in-progress lock lives if the handler never finishes.
	provisionalLockTTL = 60 * time.Second
	redisOpTimeout     = 2 * time.Second
	maxIdempotencyKey  = 128
)

type idempEntry struct {
	InProgress bool      `json:"inProgress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodySHA256 string    `json:"bodySha256"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Idempotency replays the stored response when a request repeats an
// Idempotency-Key with the same body. Requests without the header pass through.
func Idempotency(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		idemKey := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if idemKey == "" {
			c.Next()
			return
		}
		if len(idemKey) > maxIdempotencyKey {
			utils.BadRequestResponse(c, "Idempotency-Key must be at most 128 characters", nil)
			c.Abort()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			var err error
			if body, err = io.ReadAll(c.Request.Body); err != nil {
				utils.BadRequestResponse(c, "Failed to read request body", nil)
				c.Abort()
				return
			}
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		bhash := bodyHash(body)

		key := buildKey(c.Request.Method, c.FullPath(), idemKey)
		ctx, cancel := context.WithTimeout(c.Request.Context(), redisOpTimeout)
		defer cancel()

		ok, err := provisionalSet(ctx, rdb, key, idempEntry{InProgress: true, BodySHA256: bhash, CreatedAt: time.Now().UTC()})
		if err != nil {
			logrus.WithError(err).Error("idempotency store unavailable")
			utils.ServiceUnavailableResponse(c, "Idempotency store unavailable")
			c.Abort()
			return
		}

		if !ok {
			cur, err := loadEntry(ctx, rdb, key)
			if err != nil && !errors.Is(err, redis.Nil) {
				logrus.WithError(err).WithField("key", key).Warn("failed to load idempotency entry")
			}

			if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
				utils.ConflictResponse(c, "Idempotency-Key reused with a different request body")
				c.Abort()
				return
			}
			if !cur.InProgress && cur.Code != 0 {
				c.Header(IdempotentReplayHeader, "true")
				c.Data(cur.Code, "application/json; charset=utf-8", cur.Body)
				c.Abort()
				return
			}
			utils.ConflictResponse(c, "A request with this Idempotency-Key is already in progress")
			c.Abort()
			return
		}

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw
		c.Next()

		// Server errors release the key so the client can retry.
		storeCtx, storeCancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer storeCancel()

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			if err := rdb.Del(storeCtx, key).Err(); err != nil {
				logrus.WithError(err).WithField("key", key).Warn("failed to release idempotency key")
			}
			return
		}

		final := idempEntry{
			Code:       status,
			Body:       blw.body.Bytes(),
			BodySHA256: bhash,
			CreatedAt:  time.Now().UTC(),
		}
		if err := saveFinal(storeCtx, rdb, key, final, ttl); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("failed to store idempotent response")
		}
	}
}

func buildKey(method, route, idemKey string) string {
	return "idempotency:" + method + ":" + route + ":" + idemKey
}

func bodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func provisionalSet(ctx context.Context, rdb *redis.Client, key string, entry idempEntry) (bool, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, key, raw, provisionalLockTTL).Result()
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (idempEntry, error) {
	var entry idempEntry
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return entry, err
	}
	err = json.Unmarshal(raw, &entry)
	return entry, err
}

func saveFinal(ctx context.Context, rdb *redis.Client, key string, entry idempEntry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, raw, ttl).Err()
}
