package auth

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// forge signs an arbitrary payload with the strategy key.
func forge(s *HMACStrategy, raw string) string {
	payload := encoding.EncodeToString([]byte(raw))
	return payload + "." + s.sign(payload)
}

func TestNewHMACStrategy_Defaults(t *testing.T) {
	strategy := NewHMACStrategy("secret", Options{})
	if string(strategy.secret) != "secret" {
		t.Fatalf("unexpected secret: %q", string(strategy.secret))
	}
	if strategy.ttl != 12*time.Hour {
		t.Fatalf("unexpected ttl: %s", strategy.ttl)
	}
	if strategy.now == nil {
		t.Fatal("expected clock default")
	}
}

func TestNewHMACStrategy_CustomTTL(t *testing.T) {
	ttl := 2 * time.Hour
	strategy := NewHMACStrategy("secret", Options{TTL: ttl})
	if strategy.ttl != ttl {
		t.Fatalf("unexpected ttl: %s", strategy.ttl)
	}
}

func TestHMACStrategy_IssueAndParse(t *testing.T) {
	strategy := NewHMACStrategy("secret", Options{TTL: time.Minute, Now: fixedClock})
	token, err := strategy.IssueToken(42)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if strings.ContainsAny(token, "+/= ") {
		t.Fatalf("token must be header safe: %q", token)
	}
	userID, err := strategy.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if userID != 42 {
		t.Fatalf("unexpected user id: %d", userID)
	}
}

func TestHMACStrategy_IssueRejectsNonPositiveUser(t *testing.T) {
	strategy := NewHMACStrategy("secret", Options{})
	if _, err := strategy.IssueToken(0); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHMACStrategy_ParseRejects(t *testing.T) {
	strategy := NewHMACStrategy("secret", Options{Now: fixedClock})
	other := NewHMACStrategy("other-secret", Options{Now: fixedClock})
	valid, _ := strategy.IssueToken(7)
	foreign, _ := other.IssueToken(7)
	future := fixedNow.Add(time.Minute).Unix()

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no separator", "abc"},
		{"empty signature", strings.Split(valid, ".")[0] + "."},
		{"tampered signature", strings.Split(valid, ".")[0] + ".tampered"},
		{"other secret", foreign},
		{"bad payload encoding", "!!!." + strategy.sign("!!!")},
		{"missing expiry", forge(strategy, "10")},
		{"bad user id", forge(strategy, fmt.Sprintf("abc:%d", future))},
		{"zero user id", forge(strategy, fmt.Sprintf("0:%d", future))},
		{"bad expiry", forge(strategy, "10:not-a-number")},
		{"expired", forge(strategy, fmt.Sprintf("10:%d", fixedNow.Add(-time.Minute).Unix()))},
		{"expires now", forge(strategy, fmt.Sprintf("10:%d", fixedNow.Unix()))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := strategy.ParseToken(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestHMACStrategy_ExpiresAfterTTL(t *testing.T) {
	now := fixedNow
	strategy := NewHMACStrategy("secret", Options{TTL: time.Hour, Now: func() time.Time { return now }})
	token, _ := strategy.IssueToken(5)

	now = fixedNow.Add(59 * time.Minute)
	if _, err := strategy.ParseToken(token); err != nil {
		t.Fatalf("expected token valid within ttl: %v", err)
	}
	now = fixedNow.Add(time.Hour)
	if _, err := strategy.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token expired after ttl, got %v", err)
	}
}

func TestHMACStrategy_Name(t *testing.T) {
	strategy := NewHMACStrategy("secret", Options{})
	if strategy.Name() != "hmac" {
		t.Fatalf("unexpected name: %s", strategy.Name())
	}
}
