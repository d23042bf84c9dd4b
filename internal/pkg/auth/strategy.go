package auth

import "time"

// Strategy verifies bearer tokens for warehouse staff. Tokens are minted
// out of band, see HMACStrategy.IssueToken.
type Strategy interface {
	ParseToken(token string) (int64, error)
	Name() string
}

type Options struct {
	TTL time.Duration
	Now func() time.Time
}
