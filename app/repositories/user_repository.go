package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerUserRepository implements UserRepository using BadgerDB.
// Usernames are indexed under UsernameKeyPrefix.
type BadgerUserRepository struct {
	db *badger.DB
}

// NewBadgerUserRepository creates a new BadgerUserRepository
func NewBadgerUserRepository(db *badger.DB) *BadgerUserRepository {
	return &BadgerUserRepository{db: db}
}

// Create stores a new user, failing with ErrDuplicate when the username is taken.
func (r *BadgerUserRepository) Create(ctx context.Context, user *models.User) error {
	return update(r.db, func(txn *badger.Txn) error {
		nameKey := []byte(UsernameKeyPrefix + user.Username)
		taken, err := exists(txn, nameKey)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("username %q: %w", user.Username, ErrDuplicate)
		}

		id, err := getNextID(txn, UserSeqKey)
		if err != nil {
			return err
		}
		rec := newUserRecord(user)
		rec.ID = id

		if err := setEntity(txn, intKey(UserKeyPrefix, id), rec); err != nil {
			return err
		}
		if err := txn.Set(nameKey, []byte(strconv.Itoa(id))); err != nil {
			return err
		}
		user.ID = id
		return nil
	})
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	var rec userRecord
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, intKey(UserKeyPrefix, id), &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec.model(), nil
}

// GetByUsername retrieves a user by username
func (r *BadgerUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var rec userRecord
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getIndexedID(txn, []byte(UsernameKeyPrefix+username))
		if err != nil {
			return err
		}
		return getEntity(txn, intKey(UserKeyPrefix, id), &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec.model(), nil
}

// Update saves profile fields. Renames move the username index entry.
func (r *BadgerUserRepository) Update(ctx context.Context, user *models.User) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := intKey(UserKeyPrefix, user.ID)
		var current userRecord
		if err := getEntity(txn, key, &current); err != nil {
			return err
		}

		if current.Username != user.Username {
			nameKey := []byte(UsernameKeyPrefix + user.Username)
			_, err := getIndexedID(txn, nameKey)
			if err == nil {
				return fmt.Errorf("username %q: %w", user.Username, ErrDuplicate)
			}
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			if err := txn.Delete([]byte(UsernameKeyPrefix + current.Username)); err != nil {
				return err
			}
			if err := txn.Set(nameKey, []byte(strconv.Itoa(user.ID))); err != nil {
				return err
			}
		}
		return setEntity(txn, key, newUserRecord(user))
	})
}
