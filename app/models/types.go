package models

import "time"

// User is a registered account. Users author posts and comments and follow other users.
type User struct {
	ID           int       `json:"id" validate:"gte=0"`
	Username     string    `json:"username" validate:"required,max=150,username"`
	FirstName    string    `json:"first_name" validate:"max=150"`
	LastName     string    `json:"last_name" validate:"max=150"`
	Email        string    `json:"email" validate:"omitempty,email,max=254"`
	PasswordHash string    `json:"-" validate:"-"`
	DateJoined   time.Time `json:"date_joined"`
}

// Group is a named category posts can be filed under.
type Group struct {
	ID          int    `json:"id" validate:"gte=0"`
	Title       string `json:"title" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"required,max=50,slug"`
	Description string `json:"description"`
}

// Post is a user-authored text entry, optionally grouped and illustrated.
type Post struct {
	ID       int       `json:"id" validate:"gte=0"`
	Text     string    `json:"text" validate:"required"`
	PubDate  time.Time `json:"pub_date" validate:"required"`
	AuthorID int       `json:"author_id" validate:"required,gt=0"`
	GroupID  *int      `json:"group_id,omitempty" validate:"omitempty,gt=0"`
	Image    string    `json:"image,omitempty" validate:"max=255"`

	// Populated by the service layer on read.
	Author       *User      `json:"author,omitempty" validate:"-"`
	Group        *Group     `json:"group,omitempty" validate:"-"`
	CommentCount int        `json:"comment_count" validate:"-"`
	Comments     []*Comment `json:"comments,omitempty" validate:"-"`
}

// Comment is a reply left on a post.
type Comment struct {
	ID       int       `json:"id" validate:"gte=0"`
	PostID   int       `json:"post_id" validate:"required,gt=0"`
	AuthorID int       `json:"author_id" validate:"required,gt=0"`
	Text     string    `json:"text" validate:"required"`
	Created  time.Time `json:"created" validate:"required"`

	Author *User `json:"author,omitempty" validate:"-"`
	Post   *Post `json:"-" validate:"-"`
}

// Follow is a directed subscription edge: UserID follows AuthorID.
type Follow struct {
	UserID   int       `json:"user_id" validate:"required,gt=0"`
	AuthorID int       `json:"author_id" validate:"required,gt=0,nefield=UserID"`
	Created  time.Time `json:"created"`
}

// FlatPage is a static content page addressed by its URL, e.g. "/about-us/".
type FlatPage struct {
	URL     string `json:"url" validate:"required,startswith=/,endswith=/,max=100"`
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content"`
}

// Session ties an opaque cookie token to an authenticated user.
type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
