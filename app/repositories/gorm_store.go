package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yatube/app/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// OpenMySQL connects to MySQL through GORM and migrates the schema.
func OpenMySQL(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	return OpenSQL(mysql.Open(dsn), log)
}

// OpenSQL opens any GORM dialector with the store's settings and migrates
// the schema.
func OpenSQL(dialector gorm.Dialector, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(gormPrinter{log: log.With().Str("component", "gorm").Logger()}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&userRecord{},
		&groupRecord{},
		&postRecord{},
		&commentRecord{},
		&followRecord{},
		&flatPageRecord{},
		&sessionRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// NewGormStore wires every SQL repository onto db.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:     &GormUserRepository{db: db},
		Groups:    &GormGroupRepository{db: db},
		Posts:     &GormPostRepository{db: db},
		Comments:  &GormCommentRepository{db: db},
		Follows:   &GormFollowRepository{db: db},
		FlatPages: &GormFlatPageRepository{db: db},
		Sessions:  &GormSessionRepository{db: db},
	}
}

type gormPrinter struct {
	log zerolog.Logger
}

func (p gormPrinter) Printf(format string, args ...interface{}) {
	p.log.Warn().Msgf(format, args...)
}

// gormErr maps driver errors onto the package sentinels.
func gormErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

// GormUserRepository implements UserRepository on SQL.
type GormUserRepository struct {
	db *gorm.DB
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	rec := newUserRecord(user)
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return gormErr(err)
	}
	user.ID = rec.ID
	return nil
}

func (r *GormUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, gormErr(err)
	}
	return rec.model(), nil
}

func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&rec).Error; err != nil {
		return nil, gormErr(err)
	}
	return rec.model(), nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	res := r.db.WithContext(ctx).Model(&userRecord{ID: user.ID}).Select("*").Omit("id", "date_joined").Updates(newUserRecord(user))
	if res.Error != nil {
		return gormErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.ensureExists(ctx, user.ID)
	}
	return nil
}

func (r *GormUserRepository) ensureExists(ctx context.Context, id int) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GormGroupRepository implements GroupRepository on SQL.
type GormGroupRepository struct {
	db *gorm.DB
}

func (r *GormGroupRepository) Create(ctx context.Context, group *models.Group) error {
	rec := newGroupRecord(group)
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return gormErr(err)
	}
	group.ID = rec.ID
	return nil
}

func (r *GormGroupRepository) GetByID(ctx context.Context, id int) (*models.Group, error) {
	var rec groupRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, gormErr(err)
	}
	return rec.model(), nil
}

func (r *GormGroupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var rec groupRecord
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&rec).Error; err != nil {
		return nil, gormErr(err)
	}
	return rec.model(), nil
}

func (r *GormGroupRepository) List(ctx context.Context) ([]*models.Group, error) {
	var recs []groupRecord
	if err := r.db.WithContext(ctx).Order("title").Find(&recs).Error; err != nil {
		return nil, err
	}
	groups := make([]*models.Group, 0, len(recs))
	for i := range recs {
		groups = append(groups, recs[i].model())
	}
	return groups, nil
}

func (r *GormGroupRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&groupRecord{}, id).Error; err != nil {
			return gormErr(err)
		}
		posts := tx.Model(&postRecord{}).Select("id").Where("group_id = ?", id)
		if err := tx.Where("post_id IN (?)", posts).Delete(&commentRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&postRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&groupRecord{}, id).Error
	})
}

// GormPostRepository implements PostRepository on SQL.
type GormPostRepository struct {
	db *gorm.DB
}

func (r *GormPostRepository) Create(ctx context.Context, post *models.Post) error {
	rec := newPostRecord(post)
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return gormErr(err)
	}
	post.ID = rec.ID
	return nil
}

func (r *GormPostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	var rec postRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, gormErr(err)
	}
	return rec.model(), nil
}

func (r *GormPostRepository) filtered(ctx context.Context, filter PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&postRecord{})
	if filter.GroupID != 0 {
		q = q.Where("group_id = ?", filter.GroupID)
	}
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.AuthorIDs != nil {
		if len(filter.AuthorIDs) == 0 {
			q = q.Where("1 = 0")
		} else {
			q = q.Where("author_id IN ?", filter.AuthorIDs)
		}
	}
	return q
}

func (r *GormPostRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error) {
	q := r.filtered(ctx, filter).Order("pub_date DESC").Order("id DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []postRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	posts := make([]*models.Post, 0, len(recs))
	for i := range recs {
		posts = append(posts, recs[i].model())
	}
	return posts, nil
}

func (r *GormPostRepository) Count(ctx context.Context, filter PostFilter) (int, error) {
	var n int64
	if err := r.filtered(ctx, filter).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

// Update writes text, group and image. Author and pub date are never touched.
func (r *GormPostRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(&postRecord{ID: post.ID}).Select("text", "group_id", "image").Updates(newPostRecord(post))
	if res.Error != nil {
		return gormErr(res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero rows when nothing changed.
		if _, err := r.GetByID(ctx, post.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *GormPostRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&postRecord{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("post_id = ?", id).Delete(&commentRecord{}).Error
	})
}

// GormCommentRepository implements CommentRepository on SQL.
type GormCommentRepository struct {
	db *gorm.DB
}

func (r *GormCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&postRecord{}).Where("id = ?", comment.PostID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("post %d: %w", comment.PostID, ErrNotFound)
	}
	rec := newCommentRecord(comment)
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return gormErr(err)
	}
	comment.ID = rec.ID
	return nil
}

func (r *GormCommentRepository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	var rec commentRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, gormErr(err)
	}
	return rec.model(), nil
}

func (r *GormCommentRepository) ListByPost(ctx context.Context, postID int) ([]*models.Comment, error) {
	var recs []commentRecord
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("created DESC").Order("id DESC").Find(&recs).Error
	if err != nil {
		return nil, err
	}
	comments := make([]*models.Comment, 0, len(recs))
	for i := range recs {
		comments = append(comments, recs[i].model())
	}
	return comments, nil
}

func (r *GormCommentRepository) CountByPost(ctx context.Context, postID int) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&commentRecord{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *GormCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	if _, err := r.GetByID(ctx, comment.ID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&commentRecord{ID: comment.ID}).Update("text", comment.Text).Error
}

func (r *GormCommentRepository) Delete(ctx context.Context, id int) error {
	res := r.db.WithContext(ctx).Delete(&commentRecord{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GormFollowRepository implements FollowRepository on SQL.
type GormFollowRepository struct {
	db *gorm.DB
}

func (r *GormFollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	rec := &followRecord{UserID: follow.UserID, AuthorID: follow.AuthorID, Created: follow.Created}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec).Error
}

func (r *GormFollowRepository) Delete(ctx context.Context, userID, authorID int) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&followRecord{}).Error
}

func (r *GormFollowRepository) Exists(ctx context.Context, userID, authorID int) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&followRecord{}).Where("user_id = ? AND author_id = ?", userID, authorID).Count(&n).Error
	return n > 0, err
}

func (r *GormFollowRepository) ListAuthorIDs(ctx context.Context, userID int) ([]int, error) {
	ids := []int{}
	err := r.db.WithContext(ctx).Model(&followRecord{}).Where("user_id = ?", userID).Order("author_id").Pluck("author_id", &ids).Error
	return ids, err
}

func (r *GormFollowRepository) CountFollowers(ctx context.Context, authorID int) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&followRecord{}).Where("author_id = ?", authorID).Count(&n).Error
	return int(n), err
}

func (r *GormFollowRepository) CountFollowing(ctx context.Context, userID int) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&followRecord{}).Where("user_id = ?", userID).Count(&n).Error
	return int(n), err
}

// GormFlatPageRepository implements FlatPageRepository on SQL.
type GormFlatPageRepository struct {
	db *gorm.DB
}

func (r *GormFlatPageRepository) Save(ctx context.Context, page *models.FlatPage) error {
	rec := &flatPageRecord{URL: page.URL, Title: page.Title, Content: page.Content}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
}

func (r *GormFlatPageRepository) GetByURL(ctx context.Context, url string) (*models.FlatPage, error) {
	var rec flatPageRecord
	if err := r.db.WithContext(ctx).Where("url = ?", url).First(&rec).Error; err != nil {
		return nil, gormErr(err)
	}
	return &models.FlatPage{URL: rec.URL, Title: rec.Title, Content: rec.Content}, nil
}

func (r *GormFlatPageRepository) List(ctx context.Context) ([]*models.FlatPage, error) {
	var recs []flatPageRecord
	if err := r.db.WithContext(ctx).Order("url").Find(&recs).Error; err != nil {
		return nil, err
	}
	pages := make([]*models.FlatPage, 0, len(recs))
	for _, rec := range recs {
		pages = append(pages, &models.FlatPage{URL: rec.URL, Title: rec.Title, Content: rec.Content})
	}
	return pages, nil
}

func (r *GormFlatPageRepository) Delete(ctx context.Context, url string) error {
	res := r.db.WithContext(ctx).Where("url = ?", url).Delete(&flatPageRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GormSessionRepository implements SessionRepository on SQL. Expired rows
// are filtered on read and purged by DeleteExpired.
type GormSessionRepository struct {
	db *gorm.DB
}

func (r *GormSessionRepository) Create(ctx context.Context, session *models.Session) error {
	rec := &sessionRecord{ID: session.ID, UserID: session.UserID, CreatedAt: session.CreatedAt, ExpiresAt: session.ExpiresAt}
	return gormErr(r.db.WithContext(ctx).Create(rec).Error)
}

func (r *GormSessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	var rec sessionRecord
	if err := r.db.WithContext(ctx).Where("id = ? AND expires_at > ?", id, time.Now()).First(&rec).Error; err != nil {
		return nil, gormErr(err)
	}
	return &models.Session{ID: rec.ID, UserID: rec.UserID, CreatedAt: rec.CreatedAt, ExpiresAt: rec.ExpiresAt}, nil
}

func (r *GormSessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&sessionRecord{}).Error
}

func (r *GormSessionRepository) DeleteExpired(ctx context.Context) (int, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", time.Now()).Delete(&sessionRecord{})
	return int(res.RowsAffected), res.Error
}
