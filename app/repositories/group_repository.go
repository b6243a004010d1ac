package repositories

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerGroupRepository implements GroupRepository using BadgerDB
type BadgerGroupRepository struct {
	db *badger.DB
}

// NewBadgerGroupRepository creates a new BadgerGroupRepository
func NewBadgerGroupRepository(db *badger.DB) *BadgerGroupRepository {
	return &BadgerGroupRepository{db: db}
}

// Create stores a group, failing with ErrDuplicate when the slug is taken.
func (r *BadgerGroupRepository) Create(ctx context.Context, group *models.Group) error {
	return update(r.db, func(txn *badger.Txn) error {
		slugKey := []byte(GroupSlugPrefix + group.Slug)
		taken, err := exists(txn, slugKey)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("group slug %q: %w", group.Slug, ErrDuplicate)
		}

		id, err := getNextID(txn, GroupSeqKey)
		if err != nil {
			return err
		}
		rec := newGroupRecord(group)
		rec.ID = id
		if err := setEntity(txn, intKey(GroupKeyPrefix, id), rec); err != nil {
			return err
		}
		if err := txn.Set(slugKey, []byte(strconv.Itoa(id))); err != nil {
			return err
		}
		group.ID = id
		return nil
	})
}

// GetByID retrieves a group by ID
func (r *BadgerGroupRepository) GetByID(ctx context.Context, id int) (*models.Group, error) {
	var rec groupRecord
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, intKey(GroupKeyPrefix, id), &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec.model(), nil
}

// GetBySlug retrieves a group by its URL slug
func (r *BadgerGroupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var rec groupRecord
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getIndexedID(txn, []byte(GroupSlugPrefix+slug))
		if err != nil {
			return err
		}
		return getEntity(txn, intKey(GroupKeyPrefix, id), &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec.model(), nil
}

// List returns every group ordered by title.
func (r *BadgerGroupRepository) List(ctx context.Context) ([]*models.Group, error) {
	var groups []*models.Group
	err := r.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(GroupKeyPrefix), func(_, val []byte) error {
			var rec groupRecord
			if err := unmarshalEntity(val, &rec); err != nil {
				return err
			}
			groups = append(groups, rec.model())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Title < groups[j].Title })
	return groups, nil
}

// Delete removes the group, its posts and their comments in one transaction.
func (r *BadgerGroupRepository) Delete(ctx context.Context, id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := intKey(GroupKeyPrefix, id)
		var rec groupRecord
		if err := getEntity(txn, key, &rec); err != nil {
			return err
		}

		var postIDs []int
		err := scanPrefix(txn, []byte(PostKeyPrefix), func(_, val []byte) error {
			var p postRecord
			if err := unmarshalEntity(val, &p); err != nil {
				return err
			}
			if p.GroupID != nil && *p.GroupID == id {
				postIDs = append(postIDs, p.ID)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, postID := range postIDs {
			if err := deletePostTxn(txn, postID); err != nil {
				return err
			}
		}

		if err := txn.Delete([]byte(GroupSlugPrefix + rec.Slug)); err != nil {
			return err
		}
		return txn.Delete(key)
	})
}
