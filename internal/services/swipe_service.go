package services

import (
	"context"
	"time"

	"sixdegrees-service/internal/config"
	"sixdegrees-service/internal/metrics"
	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/repositories"
)

type SwipeResult struct {
	Swipe   *models.Swipe `json:"swipe"`
	Matched bool          `json:"matched"`
	Match   *models.Match `json:"match,omitempty"`
}

type SwipeService struct {
	swipes repositories.SwipeRepository
	users  repositories.UserRepository
	cfg    config.SwipesConfig
	now    func() time.Time
}

func NewSwipeService(swipes repositories.SwipeRepository, users repositories.UserRepository, cfg config.SwipesConfig) *SwipeService {
	return &SwipeService{swipes: swipes, users: users, cfg: cfg, now: time.Now}
}

func (s *SwipeService) Discover(ctx context.Context, userID int64) ([]models.PublicUser, error) {
	return s.swipes.Discover(ctx, userID, s.cfg.DiscoverLimit)
}

func (s *SwipeService) Swipe(ctx context.Context, actorID, targetID int64, action string) (*SwipeResult, error) {
	if action != models.SwipeLike && action != models.SwipePass {
		return nil, invalid("action", "must be like or pass")
	}
	if actorID == targetID {
		return nil, invalid("target_user_id", "cannot swipe yourself")
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	swipe, match, err := s.swipes.Record(ctx, actorID, targetID, action)
	if err != nil {
		return nil, err
	}
	metrics.IncSwipe(action)
	return &SwipeResult{Swipe: swipe, Matched: match != nil, Match: match}, nil
}

func (s *SwipeService) Undo(ctx context.Context, actorID int64) (*models.Swipe, error) {
	return s.swipes.UndoLatest(ctx, actorID, s.cfg.UndoWindow, s.now())
}

func (s *SwipeService) Matches(ctx context.Context, userID int64) ([]models.Match, error) {
	return s.swipes.ListMatches(ctx, userID)
}
