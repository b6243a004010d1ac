package repositories

import (
	"context"
	"sort"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerFlatPageRepository implements FlatPageRepository using BadgerDB
type BadgerFlatPageRepository struct {
	db *badger.DB
}

// NewBadgerFlatPageRepository creates a new BadgerFlatPageRepository
func NewBadgerFlatPageRepository(db *badger.DB) *BadgerFlatPageRepository {
	return &BadgerFlatPageRepository{db: db}
}

// Save creates or replaces the page stored at page.URL.
func (r *BadgerFlatPageRepository) Save(ctx context.Context, page *models.FlatPage) error {
	return update(r.db, func(txn *badger.Txn) error {
		return setEntity(txn, []byte(FlatPageKeyPrefix+page.URL), page)
	})
}

// GetByURL retrieves a page by its URL
func (r *BadgerFlatPageRepository) GetByURL(ctx context.Context, url string) (*models.FlatPage, error) {
	var page models.FlatPage
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, []byte(FlatPageKeyPrefix+url), &page)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// List returns every page ordered by URL.
func (r *BadgerFlatPageRepository) List(ctx context.Context) ([]*models.FlatPage, error) {
	var pages []*models.FlatPage
	err := r.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(FlatPageKeyPrefix), func(_, val []byte) error {
			var page models.FlatPage
			if err := unmarshalEntity(val, &page); err != nil {
				return err
			}
			pages = append(pages, &page)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].URL < pages[j].URL })
	return pages, nil
}

// Delete removes the page at url.
func (r *BadgerFlatPageRepository) Delete(ctx context.Context, url string) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := []byte(FlatPageKeyPrefix + url)
		ok, err := exists(txn, key)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return txn.Delete(key)
	})
}
