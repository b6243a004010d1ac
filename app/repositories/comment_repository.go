package repositories

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB.
// Comments live under comment:<postID>:<id>; comment_id:<id> maps back to the post.
type BadgerCommentRepository struct {
	db *badger.DB
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db}
}

func commentPrefix(postID int) []byte {
	return []byte(fmt.Sprintf("%s%d:", CommentKeyPrefix, postID))
}

func commentKey(postID, id int) []byte {
	return pairKey(CommentKeyPrefix, postID, id)
}

// Create stores a comment on an existing post.
func (r *BadgerCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return update(r.db, func(txn *badger.Txn) error {
		// Verify post exists
		ok, err := exists(txn, intKey(PostKeyPrefix, comment.PostID))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("post %d: %w", comment.PostID, ErrNotFound)
		}

		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		rec := newCommentRecord(comment)
		rec.ID = id

		if err := setEntity(txn, commentKey(rec.PostID, id), rec); err != nil {
			return err
		}
		if err := txn.Set(intKey(CommentIDPrefix, id), []byte(strconv.Itoa(rec.PostID))); err != nil {
			return err
		}
		comment.ID = id
		return nil
	})
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	var rec commentRecord
	err := r.db.View(func(txn *badger.Txn) error {
		postID, err := getIndexedID(txn, intKey(CommentIDPrefix, id))
		if err != nil {
			return err
		}
		return getEntity(txn, commentKey(postID, id), &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec.model(), nil
}

// ListByPost returns the comments on a post, newest first.
func (r *BadgerCommentRepository) ListByPost(ctx context.Context, postID int) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, commentPrefix(postID), func(_, val []byte) error {
			var rec commentRecord
			if err := unmarshalEntity(val, &rec); err != nil {
				return err
			}
			comments = append(comments, rec.model())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(comments, func(i, j int) bool {
		if !comments[i].Created.Equal(comments[j].Created) {
			return comments[i].Created.After(comments[j].Created)
		}
		return comments[i].ID > comments[j].ID
	})
	return comments, nil
}

// CountByPost counts the comments on a post.
func (r *BadgerCommentRepository) CountByPost(ctx context.Context, postID int) (int, error) {
	var n int
	err := r.db.View(func(txn *badger.Txn) error {
		n = countPrefix(txn, commentPrefix(postID))
		return nil
	})
	return n, err
}

// Update replaces the text of an existing comment.
func (r *BadgerCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return update(r.db, func(txn *badger.Txn) error {
		postID, err := getIndexedID(txn, intKey(CommentIDPrefix, comment.ID))
		if err != nil {
			return err
		}
		key := commentKey(postID, comment.ID)
		var current commentRecord
		if err := getEntity(txn, key, &current); err != nil {
			return err
		}
		current.Text = comment.Text
		return setEntity(txn, key, &current)
	})
}

// Delete deletes a comment by ID
func (r *BadgerCommentRepository) Delete(ctx context.Context, id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		postID, err := getIndexedID(txn, intKey(CommentIDPrefix, id))
		if err != nil {
			return err
		}
		if err := txn.Delete(commentKey(postID, id)); err != nil {
			return err
		}
		return txn.Delete(intKey(CommentIDPrefix, id))
	})
}
