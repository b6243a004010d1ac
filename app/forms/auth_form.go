package forms

import (
	"net/http"

	"yatube/app/models"
)

// SignupForm registers a new account.
type SignupForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"omitempty,email,max=254"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`

	Errors Errors `form:"-" validate:"-"`
}

func NewSignupForm() *SignupForm {
	return &SignupForm{Errors: Errors{}}
}

// BindSignupForm reads and validates a signup submission.
func BindSignupForm(r *http.Request) (*SignupForm, error) {
	if err := parse(r, 1<<20); err != nil {
		return nil, err
	}
	f := NewSignupForm()
	f.FirstName = field(r, "first_name")
	f.LastName = field(r, "last_name")
	f.Username = field(r, "username")
	f.Email = field(r, "email")
	// Passwords are taken verbatim.
	f.Password1 = r.PostFormValue("password1")
	f.Password2 = r.PostFormValue("password2")
	check(f, f.Errors)
	return f, nil
}

func (f *SignupForm) Valid() bool {
	return len(f.Errors) == 0
}

// User builds the account the form describes, without a password hash.
func (f *SignupForm) User() *models.User {
	return &models.User{
		Username:  f.Username,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
	}
}

// LoginForm authenticates an existing account.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next" validate:"-"`

	Errors Errors `form:"-" validate:"-"`
}

// NewLoginForm returns an empty form that will return the user to next.
func NewLoginForm(next string) *LoginForm {
	return &LoginForm{Next: SafeNext(next), Errors: Errors{}}
}

// BindLoginForm reads and validates a login submission.
func BindLoginForm(r *http.Request) (*LoginForm, error) {
	if err := parse(r, 1<<20); err != nil {
		return nil, err
	}
	f := NewLoginForm(r.PostFormValue("next"))
	if f.Next == "" {
		f.Next = SafeNext(r.URL.Query().Get("next"))
	}
	f.Username = field(r, "username")
	f.Password = r.PostFormValue("password")
	check(f, f.Errors)
	return f, nil
}

func (f *LoginForm) Valid() bool {
	return len(f.Errors) == 0
}
