package model

import "time"

// Kind tags a credential as access or refresh.
type Kind string

const (
	// KindAccess is a short-lived access credential.
	KindAccess Kind = "access"
	// KindRefresh is a long-lived refresh credential.
	KindRefresh Kind = "refresh"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// TokenCodec encodes and decodes signed, time-bounded credentials.
type TokenCodec interface {
	Encode(kind Kind, subject int64, version int64, ttl time.Duration) (string, error)
	Decode(kind Kind, raw string) (Claims, error)
}

// Claims is the decoded content of a credential.
type Claims struct {
	Subject   int64
	Version   int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is returned to callers by login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
