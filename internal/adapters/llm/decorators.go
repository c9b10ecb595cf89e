package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"review_insights/internal/domain"
)

// Limited paces calls to next at rps calls per second.
type Limited struct {
	next domain.LLM
	rl   *rate.Limiter
}

// NewLimited returns next unchanged when rps <= 0.
func NewLimited(next domain.LLM, rps float64) domain.LLM {
	if rps <= 0 {
		return next
	}
	return &Limited{next: next, rl: rate.NewLimiter(rate.Limit(rps), 1)}
}

func (l *Limited) Chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	if err := l.rl.Wait(ctx); err != nil {
		return "", err
	}
	return l.next.Chat(ctx, req)
}

// Cached memoizes successful responses by model, temperature, system and
// prompt. Cache failures never fail the call.
type Cached struct {
	next  domain.LLM
	cache domain.Cache
	model string
	ttl   time.Duration
}

func NewCached(next domain.LLM, cache domain.Cache, model string, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache, model: model, ttl: ttl}
}

func (c *Cached) Chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	key := CacheKey(c.model, req)
	var hit string
	if ok, err := c.cache.Get(ctx, key, &hit); err != nil {
		log.Warn().Err(err).Msg("llm cache get failed")
	} else if ok {
		return hit, nil
	}

	out, err := c.next.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, key, out, int(c.ttl.Seconds())); err != nil {
		log.Warn().Err(err).Msg("llm cache set failed")
	}
	return out, nil
}

// CacheKey is stable for identical requests against the same model.
func CacheKey(model string, req domain.ChatRequest) string {
	h := sha256.New()
	for _, part := range []string{model, strconv.FormatFloat(req.Temperature, 'f', -1, 64), req.System, req.Prompt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "llm:" + hex.EncodeToString(h.Sum(nil))
}
