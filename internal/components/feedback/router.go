package feedback

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/feedback/internal/shared/authz"
	"github.com/andrasnagy-data/feedback/internal/shared/errs"
	"github.com/andrasnagy-data/feedback/internal/shared/render"
)

type (
	Router struct {
		service  *Service
		renderer *render.Renderer
	}
)

func NewRouter(service *Service, renderer *render.Renderer) *Router {
	return &Router{service: service, renderer: renderer}
}

// Register mounts the feedback routes on r.
func (rt *Router) Register(r chi.Router) {
	r.Get("/users/{username}/feedback/new", rt.NewForm)
	r.Post("/users/{username}/feedback/new", rt.Create)
	r.Get("/feedback/{id:[0-9]+}/update", rt.EditForm)
	r.Post("/feedback/{id:[0-9]+}/update", rt.Update)
	r.Post("/feedback/{id:[0-9]+}/delete", rt.Delete)
}

func formIn(req *http.Request) (FeedbackIn, render.Form) {
	in := FeedbackIn{
		Title:   req.PostFormValue("title"),
		Content: req.PostFormValue("content"),
	}
	return in, render.NewForm(map[string]string{
		"title":   in.Title,
		"content": in.Content,
	})
}

// parseID accepts only ids that fit the SERIAL column, so an out-of-range id is treated
// like any other id that does not exist.
func parseID(raw string) (int, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// resolve loads the feedback named in the URL and checks the caller owns it. A malformed,
// unknown or foreign id all come back as errs.ErrUnauthorized.
func (rt *Router) resolve(req *http.Request) (*Feedback, error) {
	ctx := req.Context()

	id, err := parseID(chi.URLParam(req, "id"))
	if err != nil {
		return nil, authz.Authorize(ctx, "")
	}

	f, err := rt.service.Get(ctx, id)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	owner := ""
	if f != nil {
		owner = f.Username
	}
	if err := authz.Authorize(ctx, owner); err != nil {
		return nil, err
	}
	return f, nil
}

// usernameParam returns the decoded {username} segment. chi matches on the escaped path
// when one exists, so characters like ';' arrive percent-encoded.
func usernameParam(req *http.Request) string {
	raw := chi.URLParam(req, "username")
	if username, err := url.PathUnescape(raw); err == nil {
		return username
	}
	return raw
}

func (rt *Router) render(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	if err := rt.renderer.Render(w, req, status, name, data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// NewForm shows the new-feedback form to the user named in the URL
func (rt *Router) NewForm(w http.ResponseWriter, req *http.Request) {
	username := usernameParam(req)
	if err := authz.Authorize(req.Context(), username); err != nil {
		render.Error(w, req, err)
		return
	}

	rt.render(w, req, http.StatusOK, "feedback_new", newFeedbackPage{
		Username: username,
		Form:     render.NewForm(nil),
	})
}

// Create adds feedback owned by the user named in the URL
func (rt *Router) Create(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	username := usernameParam(req)
	if err := authz.Authorize(ctx, username); err != nil {
		render.Error(w, req, err)
		return
	}

	in, form := formIn(req)

	f, err := rt.service.Create(ctx, username, in)
	if verr, ok := errs.AsValidation(err); ok {
		rt.render(w, req, http.StatusOK, "feedback_new", newFeedbackPage{
			Username: username,
			Form:     form.WithErrors(verr.Fields),
		})
		return
	}
	if errors.Is(err, errs.ErrOwnerNotFound) {
		// the session outlived its user
		render.Error(w, req, errs.ErrUnauthorized)
		return
	}
	if err != nil {
		render.Error(w, req, err)
		return
	}

	logger.Info().Int("id", f.ID).Str("username", username).Msg("Feedback created")
	http.Redirect(w, req, fmt.Sprintf("/users/%s", url.PathEscape(username)), http.StatusFound)
}

// EditForm shows the update form prefilled with the current feedback
func (rt *Router) EditForm(w http.ResponseWriter, req *http.Request) {
	f, err := rt.resolve(req)
	if err != nil {
		render.Error(w, req, err)
		return
	}

	rt.render(w, req, http.StatusOK, "feedback_edit", editFeedbackPage{
		ID: f.ID,
		Form: render.NewForm(map[string]string{
			"title":   f.Title,
			"content": f.Content,
		}),
	})
}

// Update applies the submitted title and content
func (rt *Router) Update(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	f, err := rt.resolve(req)
	if err != nil {
		render.Error(w, req, err)
		return
	}

	in, form := formIn(req)

	updated, err := rt.service.Update(ctx, f.ID, in)
	if verr, ok := errs.AsValidation(err); ok {
		rt.render(w, req, http.StatusOK, "feedback_edit", editFeedbackPage{
			ID:   f.ID,
			Form: form.WithErrors(verr.Fields),
		})
		return
	}
	if err != nil {
		render.Error(w, req, err)
		return
	}

	logger.Info().Int("id", updated.ID).Msg("Feedback updated")
	http.Redirect(w, req, fmt.Sprintf("/users/%s", url.PathEscape(updated.Username)), http.StatusFound)
}

// Delete removes the feedback and returns to its owner's page
func (rt *Router) Delete(w http.ResponseWriter, req *http.Request) {
	logger := hlog.FromRequest(req)

	f, err := rt.resolve(req)
	if err != nil {
		render.Error(w, req, err)
		return
	}

	if err := rt.service.Delete(req.Context(), f.ID); err != nil {
		render.Error(w, req, err)
		return
	}

	logger.Info().Int("id", f.ID).Msg("Feedback deleted")
	http.Redirect(w, req, fmt.Sprintf("/users/%s", url.PathEscape(f.Username)), http.StatusFound)
}
