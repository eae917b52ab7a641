package feedback

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/andrasnagy-data/feedback/internal/shared/validation"
)

// Service owns Feedback records. It checks input shape; ownership checks belong to callers.
type Service struct {
	repo   repoer
	logger zerolog.Logger
}

func NewService(repo repoer, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "feedback").Logger(),
	}
}

// Create stores new feedback for owner. It fails with a validation error on bad input and
// errs.ErrOwnerNotFound when owner is not a registered user.
func (s *Service) Create(ctx context.Context, owner string, in FeedbackIn) (*Feedback, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	f, err := s.repo.Create(ctx, owner, in)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int("id", f.ID).Str("username", owner).Msg("Feedback created")
	return f, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Feedback, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, owner string) ([]Feedback, error) {
	return s.repo.ListByOwner(ctx, owner)
}

// Update replaces title and content of feedback id.
func (s *Service) Update(ctx context.Context, id int, in FeedbackIn) (*Feedback, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	f, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int("id", id).Msg("Feedback updated")
	return f, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Debug().Int("id", id).Msg("Feedback deleted")
	return nil
}
