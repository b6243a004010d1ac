package forms

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"yatube/app/models"
	"yatube/app/services"
)

const (
	msgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// PostForm edits a post's text, group and image.
type PostForm struct {
	Text  string `form:"text" validate:"required"`
	Group string `form:"group" validate:"-"`

	// Groups are the selectable choices for Group.
	Groups []*models.Group `form:"-" validate:"-"`
	// Image holds an uploaded file's bytes, nil when nothing was sent.
	Image []byte `form:"-" validate:"-"`
	// CurrentImage is the image already attached to the edited post.
	CurrentImage string `form:"-" validate:"-"`
	ClearImage   bool   `form:"-" validate:"-"`

	Errors Errors `form:"-" validate:"-"`

	groupID *int
}

// NewPostForm returns an empty form.
func NewPostForm(groups []*models.Group) *PostForm {
	return &PostForm{Groups: groups, Errors: Errors{}}
}

// PostFormFor returns a form filled in from an existing post.
func PostFormFor(post *models.Post, groups []*models.Group) *PostForm {
	f := NewPostForm(groups)
	f.Text = post.Text
	f.CurrentImage = post.Image
	if post.GroupID != nil {
		f.Group = strconv.Itoa(*post.GroupID)
	}
	return f
}

// BindPostForm reads and validates a submitted post form. The returned error
// covers malformed requests only; field problems land in Errors.
func BindPostForm(r *http.Request, groups []*models.Group, maxUpload int64) (*PostForm, error) {
	if err := parse(r, maxUpload); err != nil {
		return nil, err
	}
	f := NewPostForm(groups)
	f.Text = field(r, "text")
	f.Group = field(r, "group")
	f.ClearImage = r.PostFormValue("image-clear") != ""

	check(f, f.Errors)
	f.bindGroup()
	if err := f.bindImage(r, maxUpload); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *PostForm) bindGroup() {
	if f.Group == "" {
		return
	}
	id, err := strconv.Atoi(f.Group)
	if err == nil {
		for _, g := range f.Groups {
			if g.ID == id {
				f.groupID = &id
				return
			}
		}
	}
	f.Errors.Add("group", msgInvalidChoice)
}

func (f *PostForm) bindImage(r *http.Request, maxUpload int64) error {
	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUpload+1))
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	switch {
	case int64(len(data)) > maxUpload:
		f.Errors.Add("image", fmt.Sprintf("Ensure the file is at most %d bytes.", maxUpload))
	case len(data) == 0:
		f.Errors.Add("image", "The submitted file is empty.")
	case !services.IsImage(data):
		f.Errors.Add("image", msgInvalidImage)
	default:
		f.Image = data
	}
	return nil
}

// Valid reports whether the form has no errors.
func (f *PostForm) Valid() bool {
	return len(f.Errors) == 0
}

// Selected reports whether the group with id is the chosen one.
func (f *PostForm) Selected(id int) bool {
	return f.Group == strconv.Itoa(id)
}

// Apply copies the text and group onto post.
func (f *PostForm) Apply(post *models.Post) {
	post.Text = f.Text
	post.Group = nil
	post.GroupID = nil
	if f.groupID != nil {
		id := *f.groupID
		post.GroupID = &id
		for _, g := range f.Groups {
			if g.ID == id {
				post.Group = g
			}
		}
	}
}
