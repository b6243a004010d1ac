package repositories

import (
	"context"
	"sort"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// Create creates a new post
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) error {
	return update(r.db, func(txn *badger.Txn) error {
		// Get next ID
		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		rec := newPostRecord(post)
		rec.ID = id

		// Save post
		if err := setEntity(txn, intKey(PostKeyPrefix, id), rec); err != nil {
			return err
		}
		post.ID = id
		return nil
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	var rec postRecord
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, intKey(PostKeyPrefix, id), &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec.model(), nil
}

// List returns the posts matching filter, newest first, sliced by offset and limit.
// A non-positive limit returns everything after offset.
func (r *BadgerPostRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error) {
	posts, err := r.matching(filter)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(posts)
	return window(posts, limit, offset), nil
}

// Count returns how many posts match filter.
func (r *BadgerPostRepository) Count(ctx context.Context, filter PostFilter) (int, error) {
	posts, err := r.matching(filter)
	if err != nil {
		return 0, err
	}
	return len(posts), nil
}

func (r *BadgerPostRepository) matching(filter PostFilter) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(PostKeyPrefix), func(_, val []byte) error {
			var rec postRecord
			if err := unmarshalEntity(val, &rec); err != nil {
				return err
			}
			if p := rec.model(); filter.Matches(p) {
				posts = append(posts, p)
			}
			return nil
		})
	})
	return posts, err
}

// Update replaces the editable fields of an existing post. The author is kept.
func (r *BadgerPostRepository) Update(ctx context.Context, post *models.Post) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := intKey(PostKeyPrefix, post.ID)

		// Verify post exists
		var current postRecord
		if err := getEntity(txn, key, &current); err != nil {
			return err
		}

		rec := newPostRecord(post)
		rec.AuthorID = current.AuthorID
		rec.PubDate = current.PubDate
		return setEntity(txn, key, rec)
	})
}

// Delete deletes a post by ID along with its comments
func (r *BadgerPostRepository) Delete(ctx context.Context, id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		ok, err := exists(txn, intKey(PostKeyPrefix, id))
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return deletePostTxn(txn, id)
	})
}

// deletePostTxn removes a post and every comment filed under it.
func deletePostTxn(txn *badger.Txn, postID int) error {
	var commentKeys [][]byte
	var commentIDs []int
	err := scanPrefix(txn, commentPrefix(postID), func(key, val []byte) error {
		var rec commentRecord
		if err := unmarshalEntity(val, &rec); err != nil {
			return err
		}
		commentKeys = append(commentKeys, key)
		commentIDs = append(commentIDs, rec.ID)
		return nil
	})
	if err != nil {
		return err
	}
	for i, key := range commentKeys {
		if err := txn.Delete(key); err != nil {
			return err
		}
		if err := txn.Delete(intKey(CommentIDPrefix, commentIDs[i])); err != nil {
			return err
		}
	}
	return txn.Delete(intKey(PostKeyPrefix, postID))
}

func sortNewestFirst(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].PubDate.Equal(posts[j].PubDate) {
			return posts[i].PubDate.After(posts[j].PubDate)
		}
		return posts[i].ID > posts[j].ID
	})
}

// window applies offset and limit to an ordered slice.
func window[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
