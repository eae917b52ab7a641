package users

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/feedback/internal/components/feedback"
	"github.com/andrasnagy-data/feedback/internal/shared/authz"
	"github.com/andrasnagy-data/feedback/internal/shared/errs"
	"github.com/andrasnagy-data/feedback/internal/shared/middleware"
	"github.com/andrasnagy-data/feedback/internal/shared/render"
	"github.com/andrasnagy-data/feedback/internal/shared/session"
	"github.com/andrasnagy-data/feedback/internal/shared/validation"
)

const msgLoginFailed = "Invalid username/password."

type (
	Router struct {
		service  *Service
		feedback *feedback.Service
		sessions session.Manager
		renderer *render.Renderer
	}
)

func NewRouter(service *Service, feedbackSvc *feedback.Service, sessions session.Manager, renderer *render.Renderer) *Router {
	return &Router{
		service:  service,
		feedback: feedbackSvc,
		sessions: sessions,
		renderer: renderer,
	}
}

// Register mounts the account routes on r.
func (rt *Router) Register(r chi.Router) {
	r.Get("/", rt.Home)
	r.Get("/register", rt.RegisterForm)
	r.Post("/register", rt.RegisterUser)
	r.Get("/login", rt.LoginForm)
	r.Post("/login", rt.Login)
	r.Get("/logout", rt.Logout)
	r.Get("/users/{username}", rt.Show)
	r.Post("/users/{username}/delete", rt.Delete)
}

func userPath(username string) string {
	return fmt.Sprintf("/users/%s", url.PathEscape(username))
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

// redirectIfAuthenticated sends a signed-in client to its own page. It reports whether it did.
func redirectIfAuthenticated(w http.ResponseWriter, req *http.Request) bool {
	identity, ok := middleware.Identity(req.Context())
	if !ok {
		return false
	}
	http.Redirect(w, req, userPath(identity), http.StatusFound)
	return true
}

// resolve loads the user named in the URL and checks it is the caller. An unknown user and
// somebody else both come back as errs.ErrUnauthorized.
func (rt *Router) resolve(req *http.Request) (*User, error) {
	ctx := req.Context()

	u, err := rt.service.Get(ctx, usernameParam(req))
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	owner := ""
	if u != nil {
		owner = u.Username
	}
	if err := authz.Authorize(ctx, owner); err != nil {
		return nil, err
	}
	return u, nil
}

func (rt *Router) Home(w http.ResponseWriter, req *http.Request) {
	rt.render(w, req, http.StatusOK, "home", nil)
}

func (rt *Router) RegisterForm(w http.ResponseWriter, req *http.Request) {
	if redirectIfAuthenticated(w, req) {
		return
	}
	rt.render(w, req, http.StatusOK, "register", formPage{Form: render.NewForm(nil)})
}

// RegisterUser creates the account and signs the client in as the new user
func (rt *Router) RegisterUser(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	in := RegisterIn{
		Username:  req.PostFormValue("username"),
		Password:  req.PostFormValue("password"),
		Email:     req.PostFormValue("email"),
		FirstName: req.PostFormValue("first_name"),
		LastName:  req.PostFormValue("last_name"),
	}
	form := render.NewForm(map[string]string{
		"username":   in.Username,
		"email":      in.Email,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
	})

	u, err := rt.service.Register(ctx, in)
	if verr, ok := errs.AsValidation(err); ok {
		rt.render(w, req, http.StatusOK, "register", formPage{Form: form.WithErrors(verr.Fields)})
		return
	}
	if errors.Is(err, errs.ErrDuplicateUsername) {
		rt.render(w, req, http.StatusOK, "register", formPage{
			Form: form.WithErrors(map[string]string{"username": "Username already taken."}),
		})
		return
	}
	if err != nil {
		render.Error(w, req, err)
		return
	}

	if err := rt.sessions.Establish(w, req, u.Username); err != nil {
		render.Error(w, req, err)
		return
	}

	logger.Info().Str("username", u.Username).Msg("User registered")
	http.Redirect(w, req, userPath(u.Username), http.StatusFound)
}

func (rt *Router) LoginForm(w http.ResponseWriter, req *http.Request) {
	if redirectIfAuthenticated(w, req) {
		return
	}
	rt.render(w, req, http.StatusOK, "login", formPage{Form: render.NewForm(nil)})
}

// Login checks the credentials and establishes the session
func (rt *Router) Login(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	in := LoginIn{
		Username: req.PostFormValue("username"),
		Password: req.PostFormValue("password"),
	}
	form := render.NewForm(map[string]string{"username": in.Username})

	if err := validation.Struct(in); err != nil {
		verr, _ := errs.AsValidation(err)
		rt.render(w, req, http.StatusOK, "login", formPage{Form: form.WithErrors(verr.Fields)})
		return
	}

	logger.Debug().Str("username", in.Username).Msg("Login attempt")

	u, err := rt.service.Authenticate(ctx, in.Username, in.Password)
	if errors.Is(err, errs.ErrAuthenticationFailed) {
		logger.Warn().Str("username", in.Username).Msg("Login failed: invalid credentials")
		rt.render(w, req, http.StatusUnauthorized, "login", formPage{Form: form, Message: msgLoginFailed})
		return
	}
	if err != nil {
		render.Error(w, req, err)
		return
	}

	if err := rt.sessions.Establish(w, req, u.Username); err != nil {
		logger.Error().Err(err).Str("username", u.Username).Msg("Login failed: could not establish session")
		render.Error(w, req, err)
		return
	}

	logger.Debug().Str("username", u.Username).Msg("Login successful")
	http.Redirect(w, req, userPath(u.Username), http.StatusFound)
}

// Logout clears the session. It succeeds for anonymous clients too.
func (rt *Router) Logout(w http.ResponseWriter, req *http.Request) {
	if err := rt.sessions.Clear(w, req); err != nil {
		render.Error(w, req, err)
		return
	}
	http.Redirect(w, req, "/login", http.StatusFound)
}

// Show renders the caller's own page with their feedback
func (rt *Router) Show(w http.ResponseWriter, req *http.Request) {
	u, err := rt.resolve(req)
	if err != nil {
		render.Error(w, req, err)
		return
	}

	list, err := rt.feedback.ListByOwner(req.Context(), u.Username)
	if err != nil {
		render.Error(w, req, err)
		return
	}

	rt.render(w, req, http.StatusOK, "user", userPage{User: u, Feedback: list})
}

// Delete removes the caller's account and feedback, then ends their sessions
func (rt *Router) Delete(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	u, err := rt.resolve(req)
	if err != nil {
		render.Error(w, req, err)
		return
	}

	if err := rt.service.Delete(ctx, u.Username); err != nil {
		render.Error(w, req, err)
		return
	}

	// the account is gone either way; a stale session elsewhere resolves to nobody
	if err := rt.sessions.Revoke(ctx, u.Username); err != nil {
		logger.Error().Err(err).Str("username", u.Username).Msg("Failed to revoke sessions")
	}
	if err := rt.sessions.Clear(w, req); err != nil {
		render.Error(w, req, err)
		return
	}

	logger.Info().Str("username", u.Username).Msg("User deleted")
	http.Redirect(w, req, "/login", http.StatusFound)
}
