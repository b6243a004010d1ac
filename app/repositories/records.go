package repositories

import (
	"time"

	"yatube/app/models"
)

// Storage records. Both the Badger and the GORM backends persist these
// instead of the models so that read-populated fields never reach disk.

type userRecord struct {
	ID           int       `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:150;uniqueIndex"`
	FirstName    string    `json:"first_name" gorm:"size:150"`
	LastName     string    `json:"last_name" gorm:"size:150"`
	Email        string    `json:"email" gorm:"size:254"`
	PasswordHash string    `json:"password_hash" gorm:"size:128"`
	DateJoined   time.Time `json:"date_joined"`
}

func (userRecord) TableName() string { return "users" }

func newUserRecord(u *models.User) *userRecord {
	return &userRecord{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		DateJoined:   u.DateJoined,
	}
}

func (r *userRecord) model() *models.User {
	return &models.User{
		ID:           r.ID,
		Username:     r.Username,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		DateJoined:   r.DateJoined,
	}
}

type groupRecord struct {
	ID          int    `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"size:200"`
	Slug        string `json:"slug" gorm:"size:50;uniqueIndex"`
	Description string `json:"description" gorm:"type:text"`
}

func (groupRecord) TableName() string { return "groups" }

func newGroupRecord(g *models.Group) *groupRecord {
	return &groupRecord{ID: g.ID, Title: g.Title, Slug: g.Slug, Description: g.Description}
}

func (r *groupRecord) model() *models.Group {
	return &models.Group{ID: r.ID, Title: r.Title, Slug: r.Slug, Description: r.Description}
}

type postRecord struct {
	ID       int       `json:"id" gorm:"primaryKey"`
	Text     string    `json:"text" gorm:"type:text"`
	PubDate  time.Time `json:"pub_date" gorm:"index"`
	AuthorID int       `json:"author_id" gorm:"index"`
	GroupID  *int      `json:"group_id,omitempty" gorm:"index"`
	Image    string    `json:"image,omitempty" gorm:"size:255"`
}

func (postRecord) TableName() string { return "posts" }

func newPostRecord(p *models.Post) *postRecord {
	rec := &postRecord{ID: p.ID, Text: p.Text, PubDate: p.PubDate, AuthorID: p.AuthorID, Image: p.Image}
	if p.GroupID != nil {
		id := *p.GroupID
		rec.GroupID = &id
	}
	return rec
}

func (r *postRecord) model() *models.Post {
	p := &models.Post{ID: r.ID, Text: r.Text, PubDate: r.PubDate, AuthorID: r.AuthorID, Image: r.Image}
	if r.GroupID != nil {
		id := *r.GroupID
		p.GroupID = &id
	}
	return p
}

type commentRecord struct {
	ID       int       `json:"id" gorm:"primaryKey"`
	PostID   int       `json:"post_id" gorm:"index"`
	AuthorID int       `json:"author_id"`
	Text     string    `json:"text" gorm:"type:text"`
	Created  time.Time `json:"created"`
}

func (commentRecord) TableName() string { return "comments" }

func newCommentRecord(c *models.Comment) *commentRecord {
	return &commentRecord{ID: c.ID, PostID: c.PostID, AuthorID: c.AuthorID, Text: c.Text, Created: c.Created}
}

func (r *commentRecord) model() *models.Comment {
	return &models.Comment{ID: r.ID, PostID: r.PostID, AuthorID: r.AuthorID, Text: r.Text, Created: r.Created}
}

type followRecord struct {
	UserID   int       `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	AuthorID int       `json:"author_id" gorm:"primaryKey;autoIncrement:false;index"`
	Created  time.Time `json:"created"`
}

func (followRecord) TableName() string { return "follows" }

type flatPageRecord struct {
	URL     string `json:"url" gorm:"primaryKey;size:100"`
	Title   string `json:"title" gorm:"size:200"`
	Content string `json:"content" gorm:"type:text"`
}

func (flatPageRecord) TableName() string { return "flat_pages" }

type sessionRecord struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	UserID    int       `json:"user_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}

func (sessionRecord) TableName() string { return "sessions" }
