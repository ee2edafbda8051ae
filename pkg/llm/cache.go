package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jingkaihe/distill/pkg/logger"
)

// WithCache memoizes successful completions by prompt. Identical chunks
// across sources in one batch are sent to the provider once.
func WithCache(cfg CacheConfig) Middleware {
	return func(next Completer) Completer {
		if cfg.Size <= 0 {
			return next
		}
		cache, err := lru.New[string, string](cfg.Size)
		if err != nil {
			return next
		}
		return CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
			sum := sha256.Sum256([]byte(prompt))
			key := hex.EncodeToString(sum[:])
			if text, ok := cache.Get(key); ok {
				logger.G(ctx).WithField("prompt_hash", key[:12]).Debug("completion cache hit")
				return text, nil
			}
			text, err := next.Complete(ctx, prompt)
			if err != nil {
				return "", err
			}
			cache.Add(key, text)
			return text, nil
		})
	}
}
