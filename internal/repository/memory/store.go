// Package memory provides in-process implementations of the session stores.
// They honor the same atomicity contract as the Postgres repositories and back
// the service and transport tests.
package memory

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dunet/session-server/internal/model"
	"github.com/dunet/session-server/internal/token"
)

// ErrDuplicateHash mirrors the unique index on token_hash.
var ErrDuplicateHash = errors.New("duplicate refresh token hash")

var (
	_ model.RefreshStore  = (*Store)(nil)
	_ model.IdentityStore = (*Store)(nil)
)

// Store keeps refresh records and identity versions in maps guarded by one mutex.
type Store struct {
	mu         sync.Mutex
	now        func() time.Time
	records    map[uuid.UUID]*model.RefreshRecord
	byHash     map[string]uuid.UUID
	identities map[int64]*model.Identity
}

// NewStore constructs an empty Store. A nil now defaults to time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:        now,
		records:    make(map[uuid.UUID]*model.RefreshRecord),
		byHash:     make(map[string]uuid.UUID),
		identities: make(map[int64]*model.Identity),
	}
}

// CreateIdentity registers an identity at version 0.
func (s *Store) CreateIdentity(ctx context.Context, id int64) (model.Identity, error) {
	if err := ctx.Err(); err != nil {
		return model.Identity{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.identities[id]; ok {
		return *existing, nil
	}
	now := s.now()
	ident := &model.Identity{ID: id, CreatedAt: now, UpdatedAt: now}
	s.identities[id] = ident
	return *ident, nil
}

// Version returns the current session version of an identity.
func (s *Store) Version(ctx context.Context, identityID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.identities[identityID]
	if !ok {
		return 0, model.ErrNotFound
	}
	return ident.Version, nil
}

// IncrementVersion bumps the session version and returns the new value.
func (s *Store) IncrementVersion(ctx context.Context, identityID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.identities[identityID]
	if !ok {
		return 0, model.ErrNotFound
	}
	ident.Version++
	ident.UpdatedAt = s.now()
	return ident.Version, nil
}

// Put inserts a new active record for raw.
func (s *Store) Put(ctx context.Context, identityID int64, raw string, ttl time.Duration) (model.RefreshRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.RefreshRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(identityID, raw, ttl)
}

func (s *Store) insertLocked(identityID int64, raw string, ttl time.Duration) (model.RefreshRecord, error) {
	hash := token.Hash(raw)
	key := hex.EncodeToString(hash)
	if _, dup := s.byHash[key]; dup {
		return model.RefreshRecord{}, ErrDuplicateHash
	}

	now := s.now()
	rec := &model.RefreshRecord{
		ID:         uuid.New(),
		IdentityID: identityID,
		TokenHash:  hash,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
	s.records[rec.ID] = rec
	s.byHash[key] = rec.ID
	return copyRecord(rec), nil
}

// FindByRaw looks a record up by the hash of raw.
func (s *Store) FindByRaw(ctx context.Context, raw string) (model.RefreshRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.RefreshRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byHash[hex.EncodeToString(token.Hash(raw))]
	if !ok {
		return model.RefreshRecord{}, model.ErrNotFound
	}
	return copyRecord(s.records[id]), nil
}

// Rotate revokes old and links it to a new successor atomically.
func (s *Store) Rotate(ctx context.Context, old model.RefreshRecord, identityID int64, newRaw string, ttl time.Duration) (model.RefreshRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.RefreshRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.records[old.ID]
	if !ok {
		return model.RefreshRecord{}, model.ErrNotFound
	}
	if parent.RevokedAt != nil {
		return model.RefreshRecord{}, model.ErrAlreadyRotated
	}

	child, err := s.insertLocked(identityID, newRaw, ttl)
	if err != nil {
		return model.RefreshRecord{}, err
	}

	now := s.now()
	childID := child.ID
	parent.RevokedAt = &now
	parent.ReplacedBy = &childID
	return child, nil
}

// Revoke revokes a single record if it is still active.
func (s *Store) Revoke(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[id]; ok && rec.RevokedAt == nil {
		now := s.now()
		rec.RevokedAt = &now
	}
	return nil
}

// RevokeAll revokes every active record of an identity.
func (s *Store) RevokeAll(ctx context.Context, identityID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, rec := range s.records {
		if rec.IdentityID == identityID && rec.RevokedAt == nil {
			revokedAt := now
			rec.RevokedAt = &revokedAt
		}
	}
	return nil
}

// RevokeChain follows replaced_by from id and revokes every active successor.
func (s *Store) RevokeChain(ctx context.Context, id uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := s.now()
	for rec, ok := s.records[id]; ok; {
		if rec.RevokedAt == nil {
			revokedAt := now
			rec.RevokedAt = &revokedAt
			n++
		}
		if rec.ReplacedBy == nil {
			break
		}
		rec, ok = s.records[*rec.ReplacedBy]
	}
	return n, nil
}

// DeleteExpired drops records that expired before the cutoff.
func (s *Store) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, rec := range s.records {
		if rec.ExpiresAt.Before(before) {
			delete(s.byHash, hex.EncodeToString(rec.TokenHash))
			delete(s.records, id)
			n++
		}
	}
	for _, rec := range s.records {
		if rec.ReplacedBy != nil {
			if _, ok := s.records[*rec.ReplacedBy]; !ok {
				rec.ReplacedBy = nil
			}
		}
	}
	return n, nil
}

// Get returns a record by id. It exists for tests and diagnostics.
func (s *Store) Get(id uuid.UUID) (model.RefreshRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return model.RefreshRecord{}, false
	}
	return copyRecord(rec), true
}

func copyRecord(rec *model.RefreshRecord) model.RefreshRecord {
	out := *rec
	out.TokenHash = append([]byte(nil), rec.TokenHash...)
	if rec.RevokedAt != nil {
		t := *rec.RevokedAt
		out.RevokedAt = &t
	}
	if rec.ReplacedBy != nil {
		id := *rec.ReplacedBy
		out.ReplacedBy = &id
	}
	return out
}
