package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/polkiloo/warehouse/internal/config"
)

func TestNewTokenStrategy(t *testing.T) {
	strategy := newTokenStrategy(strategyParams{Config: &config.Config{JWTSecret: "top-secret"}})
	hmacStrategy, ok := strategy.(*HMACStrategy)
	if !ok {
		t.Fatalf("expected *HMACStrategy, got %T", strategy)
	}
	if string(hmacStrategy.secret) != "top-secret" {
		t.Fatalf("unexpected secret: %q", string(hmacStrategy.secret))
	}
	if hmacStrategy.ttl != 12*time.Hour {
		t.Fatalf("unexpected ttl: %s", hmacStrategy.ttl)
	}
}

func TestNewTokenStrategyAcceptsTokensMintedWithSameSecret(t *testing.T) {
	strategy := newTokenStrategy(strategyParams{Config: &config.Config{JWTSecret: "top-secret"}})

	token, err := NewHMACStrategy("top-secret", Options{}).IssueToken(17)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if id, err := strategy.ParseToken(token); err != nil || id != 17 {
		t.Fatalf("expected user 17, got %d err=%v", id, err)
	}

	foreign, _ := NewHMACStrategy("other-secret", Options{}).IssueToken(17)
	if _, err := strategy.ParseToken(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign token, got %v", err)
	}
}
