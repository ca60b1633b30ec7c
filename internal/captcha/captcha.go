package captcha

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// Service issues and checks per-session challenge codes. A code lives
// from Generate until it is validated, replaced, or its TTL runs out;
// there is no per-attempt expiry beyond that.
type Service struct {
	store Store
	ttl   time.Duration
}

func NewService(store Store, ttl time.Duration) *Service {
	return &Service{store: store, ttl: ttl}
}

// Generate creates a fresh code for the session, replacing any
// previous one.
func (s *Service) Generate(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("captcha: empty session id")
	}
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, codeLength)
	for i, b := range buf {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	if err := s.store.Set(ctx, sessionID, string(code), s.ttl); err != nil {
		return "", err
	}
	return string(code), nil
}

// Validate compares the submitted code against the stored one,
// case-insensitively, and consumes the challenge on success.
func (s *Service) Validate(ctx context.Context, sessionID, submitted string) (bool, error) {
	if sessionID == "" || submitted == "" {
		return false, nil
	}
	stored, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !strings.EqualFold(stored, strings.TrimSpace(submitted)) {
		return false, nil
	}
	_ = s.store.Del(ctx, sessionID)
	return true, nil
}
