package repositories

import (
	"context"
	"fmt"
	"time"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerSessionRepository stores sessions with a Badger TTL matching their
// expiry, so stale entries vanish on their own.
type BadgerSessionRepository struct {
	db *badger.DB
}

// NewBadgerSessionRepository creates a new BadgerSessionRepository
func NewBadgerSessionRepository(db *badger.DB) *BadgerSessionRepository {
	return &BadgerSessionRepository{db: db}
}

// Create persists a session until its ExpiresAt.
func (r *BadgerSessionRepository) Create(ctx context.Context, session *models.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}
	data, err := marshalEntity(session)
	if err != nil {
		return err
	}
	return update(r.db, func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(SessionKeyPrefix+session.ID), data).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// Get returns a live session. Expired sessions report ErrNotFound.
func (r *BadgerSessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, []byte(SessionKeyPrefix+id), &session)
	})
	if err != nil {
		return nil, err
	}
	if session.IsExpired() {
		return nil, ErrNotFound
	}
	return &session, nil
}

// Delete removes a session. Missing sessions are not an error.
func (r *BadgerSessionRepository) Delete(ctx context.Context, id string) error {
	return update(r.db, func(txn *badger.Txn) error {
		return txn.Delete([]byte(SessionKeyPrefix + id))
	})
}

// DeleteExpired removes sessions whose expiry has passed but whose TTL has
// not been collected yet.
func (r *BadgerSessionRepository) DeleteExpired(ctx context.Context) (int, error) {
	var stale [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(SessionKeyPrefix), func(key, val []byte) error {
			var s models.Session
			if err := unmarshalEntity(val, &s); err != nil {
				return err
			}
			if s.IsExpired() {
				stale = append(stale, key)
			}
			return nil
		})
	})
	if err != nil || len(stale) == 0 {
		return 0, err
	}
	err = update(r.db, func(txn *badger.Txn) error {
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(stale), nil
}
