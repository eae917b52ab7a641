package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/andrasnagy-data/feedback/internal/shared/config"
	"github.com/andrasnagy-data/feedback/internal/shared/errs"
	"github.com/andrasnagy-data/feedback/internal/shared/validation"
)

// Service is the credential store: registration, authentication and account removal.
type Service struct {
	repo   repoer
	cost   int
	logger zerolog.Logger
	// dummyHash is compared against when the user does not exist, so a missing user costs
	// as much as a wrong password.
	dummyHash []byte
}

func NewService(repo repoer, cfg *config.Config, logger zerolog.Logger) (*Service, error) {
	cost := cfg.PasswordCost()

	dummyHash, err := bcrypt.GenerateFromPassword([]byte("not a real password"), cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	return &Service{
		repo:      repo,
		cost:      cost,
		logger:    logger.With().Str("component", "users").Logger(),
		dummyHash: dummyHash,
	}, nil
}

// Register validates in, hashes the password and stores the user. It fails with a
// validation error on bad input and errs.ErrDuplicateUsername when the name is taken.
func (s *Service) Register(ctx context.Context, in RegisterIn) (*User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, errs.Field("password", "Password is too long.")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, User{
		Username:     in.Username,
		PasswordHash: string(hash),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("username", u.Username).Msg("User registered")
	return u, nil
}

// Authenticate returns the user only when password matches. An unknown username and a wrong
// password both yield errs.ErrAuthenticationFailed; store failures propagate as they are.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, errs.ErrAuthenticationFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errs.ErrAuthenticationFailed
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Delete removes the user and everything they own.
func (s *Service) Delete(ctx context.Context, username string) error {
	if err := s.repo.Delete(ctx, username); err != nil {
		return err
	}

	s.logger.Debug().Str("username", username).Msg("User deleted")
	return nil
}
