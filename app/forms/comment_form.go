package forms

import (
	"net/http"

	"yatube/app/models"
)

// CommentForm is the reply box under a post.
type CommentForm struct {
	Text   string `form:"text" validate:"required"`
	Errors Errors `form:"-" validate:"-"`
}

// NewCommentForm returns an empty form.
func NewCommentForm() *CommentForm {
	return &CommentForm{Errors: Errors{}}
}

// BindCommentForm reads and validates a submitted comment.
func BindCommentForm(r *http.Request) (*CommentForm, error) {
	if err := parse(r, 1<<20); err != nil {
		return nil, err
	}
	f := NewCommentForm()
	f.Text = field(r, "text")
	check(f, f.Errors)
	return f, nil
}

func (f *CommentForm) Valid() bool {
	return len(f.Errors) == 0
}

// Comment builds the comment the form describes.
func (f *CommentForm) Comment() *models.Comment {
	return &models.Comment{Text: f.Text}
}
