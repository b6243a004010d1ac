package models

import (
	"errors"
	"time"
)

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.PubDate.IsZero() {
		return errors.New("pub_date cannot be zero")
	}

	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (p *Post) BeforeCreate() {
	if p.PubDate.IsZero() {
		p.PubDate = time.Now()
	}
}

// IsAuthoredBy reports whether u wrote the post.
func (p *Post) IsAuthoredBy(u *User) bool {
	return u != nil && u.ID != 0 && p.AuthorID == u.ID
}

// HasImage reports whether an image is attached.
func (p *Post) HasImage() bool {
	return p.Image != ""
}

// SetGroup files the post under g, or clears the group when g is nil.
func (p *Post) SetGroup(g *Group) {
	p.Group = g
	if g == nil {
		p.GroupID = nil
		return
	}
	id := g.ID
	p.GroupID = &id
}

// InGroup reports whether the post is filed under the group with the given ID.
func (p *Post) InGroup(groupID int) bool {
	return p.GroupID != nil && *p.GroupID == groupID
}

// AddComment adds a comment to the post
func (p *Post) AddComment(comment *Comment) error {
	if comment == nil {
		return errors.New("comment cannot be nil")
	}

	comment.PostID = p.ID
	p.Comments = append(p.Comments, comment)
	p.CommentCount = len(p.Comments)
	return nil
}
