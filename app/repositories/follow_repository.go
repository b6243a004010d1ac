package repositories

import (
	"context"
	"fmt"
	"sort"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerFollowRepository stores follow edges twice: follow:<user>:<author>
// holds the edge and follower:<author>:<user> is the reverse index.
type BadgerFollowRepository struct {
	db *badger.DB
}

// NewBadgerFollowRepository creates a new BadgerFollowRepository
func NewBadgerFollowRepository(db *badger.DB) *BadgerFollowRepository {
	return &BadgerFollowRepository{db: db}
}

// Create stores the edge unless it already exists.
func (r *BadgerFollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := pairKey(FollowKeyPrefix, follow.UserID, follow.AuthorID)
		ok, err := exists(txn, key)
		if err != nil || ok {
			return err
		}
		if err := setEntity(txn, key, follow); err != nil {
			return err
		}
		return txn.Set(pairKey(FollowerKeyPrefix, follow.AuthorID, follow.UserID), nil)
	})
}

// Delete removes the edge if present.
func (r *BadgerFollowRepository) Delete(ctx context.Context, userID, authorID int) error {
	return update(r.db, func(txn *badger.Txn) error {
		if err := txn.Delete(pairKey(FollowKeyPrefix, userID, authorID)); err != nil {
			return err
		}
		return txn.Delete(pairKey(FollowerKeyPrefix, authorID, userID))
	})
}

// Exists reports whether userID follows authorID.
func (r *BadgerFollowRepository) Exists(ctx context.Context, userID, authorID int) (bool, error) {
	var ok bool
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		ok, err = exists(txn, pairKey(FollowKeyPrefix, userID, authorID))
		return err
	})
	return ok, err
}

// ListAuthorIDs returns the IDs of every author userID follows, ascending.
func (r *BadgerFollowRepository) ListAuthorIDs(ctx context.Context, userID int) ([]int, error) {
	ids := []int{}
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("%s%d:", FollowKeyPrefix, userID))
		return scanPrefix(txn, prefix, func(_, val []byte) error {
			var f models.Follow
			if err := unmarshalEntity(val, &f); err != nil {
				return err
			}
			ids = append(ids, f.AuthorID)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Ints(ids)
	return ids, nil
}

// CountFollowers counts users following authorID.
func (r *BadgerFollowRepository) CountFollowers(ctx context.Context, authorID int) (int, error) {
	var n int
	err := r.db.View(func(txn *badger.Txn) error {
		n = countPrefix(txn, []byte(fmt.Sprintf("%s%d:", FollowerKeyPrefix, authorID)))
		return nil
	})
	return n, err
}

// CountFollowing counts authors userID follows.
func (r *BadgerFollowRepository) CountFollowing(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.db.View(func(txn *badger.Txn) error {
		n = countPrefix(txn, []byte(fmt.Sprintf("%s%d:", FollowKeyPrefix, userID)))
		return nil
	})
	return n, err
}
