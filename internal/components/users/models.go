package users

import (
	"time"

	"github.com/andrasnagy-data/feedback/internal/components/feedback"
	"github.com/andrasnagy-data/feedback/internal/shared/render"
)

type (
	User struct {
		Username     string    `json:"username"`
		PasswordHash string    `json:"-"` // Never serialize password hash
		Email        string    `json:"email"`
		FirstName    string    `json:"first_name"`
		LastName     string    `json:"last_name"`
		CreatedAt    time.Time `json:"created_at"`
	}

	RegisterIn struct {
		// '/' would split the /users/{username} path
		Username  string `form:"username" validate:"required,min=1,max=20,excludesall=/"`
		Password  string `form:"password" validate:"required,min=6,max=55"`
		Email     string `form:"email" validate:"required,email,max=50"`
		FirstName string `form:"first_name" validate:"required,max=30"`
		LastName  string `form:"last_name" validate:"required,max=30"`
	}

	LoginIn struct {
		Username string `form:"username" validate:"required,min=1,max=20,excludesall=/"`
		Password string `form:"password" validate:"required,min=6,max=55"`
	}

	// formPage is the data of the register and login templates
	formPage struct {
		Form    render.Form
		Message string
	}

	// userPage is the data of the user template
	userPage struct {
		User     *User
		Feedback []feedback.Feedback
	}
)
