package feedback

import (
	"time"

	"github.com/andrasnagy-data/feedback/internal/shared/render"
)

type (
	Feedback struct {
		ID        int       `json:"id"`
		Title     string    `json:"title"`
		Content   string    `json:"content"`
		Username  string    `json:"username"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	FeedbackIn struct {
		Title   string `form:"title" validate:"required,max=100"`
		Content string `form:"content" validate:"required"`
	}

	// newFeedbackPage is the data of the feedback_new template
	newFeedbackPage struct {
		Username string
		Form     render.Form
	}

	// editFeedbackPage is the data of the feedback_edit template
	editFeedbackPage struct {
		ID   int
		Form render.Form
	}
)
