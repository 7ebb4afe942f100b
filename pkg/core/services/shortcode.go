package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
)

const (
	charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	DefaultCodeLength   = 8
	DefaultCodeAttempts = 10
)

// CodeChecker reports whether a code is already used within a domain.
type CodeChecker interface {
	ShortCodeExists(ctx context.Context, domainID, code string) (bool, error)
}

// ShortCodeGenerator draws random codes and checks them against the store.
// The check is best-effort: the store's (domain, code) unique index has the final say.
type ShortCodeGenerator struct {
	checker  CodeChecker
	length   int
	attempts int
	logger   *slog.Logger
	random   func(length int) (string, error)
}

func NewShortCodeGenerator(checker CodeChecker, length, attempts int, logger *slog.Logger) *ShortCodeGenerator {
	if length < 1 {
		length = DefaultCodeLength
	}
	if attempts < 1 {
		attempts = DefaultCodeAttempts
	}
	return &ShortCodeGenerator{
		checker:  checker,
		length:   length,
		attempts: attempts,
		logger:   logger,
		random:   generateShortCode,
	}
}

// Generate returns a code not yet used under domainID, or ErrExhaustedRetries.
func (g *ShortCodeGenerator) Generate(ctx context.Context, domainID string) (string, error) {
	for attempt := 1; attempt <= g.attempts; attempt++ {
		code, err := g.random(g.length)
		if err != nil {
			return "", fmt.Errorf("draw short code: %w", err)
		}

		exists, err := g.checker.ShortCodeExists(ctx, domainID, code)
		if err != nil {
			return "", fmt.Errorf("check short code: %w", err)
		}
		if !exists {
			return code, nil
		}

		g.logger.Debug("Short code collision", "domain_id", domainID, "attempt", attempt)
	}
	return "", fmt.Errorf("domain %s after %d attempts: %w", domainID, g.attempts, domain.ErrExhaustedRetries)
}

func generateShortCode(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range b {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}
