package services

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"sixdegrees-service/internal/config"
	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/repositories"
	"sixdegrees-service/internal/rewards"
)

const (
	maxTargetLength  = 200
	maxMessageLength = 2000
	expiryBatchSize  = 100
)

type CreateRequestInput struct {
	Target             string `json:"target"`
	TargetOrganization string `json:"target_organization"`
	Message            string `json:"message"`
	CreditReward       int64  `json:"credit_reward"`
	CashRewardCents    int64  `json:"cash_reward_cents"`
}

type RequestService struct {
	requests repositories.RequestRepository
	chains   repositories.ChainRepository
	policy   config.RewardsConfig
	now      func() time.Time
}

func NewRequestService(requests repositories.RequestRepository, chains repositories.ChainRepository, policy config.RewardsConfig) *RequestService {
	return &RequestService{requests: requests, chains: chains, policy: policy, now: time.Now}
}

func (s *RequestService) Create(ctx context.Context, creatorID int64, in CreateRequestInput) (*models.ConnectionRequest, error) {
	in.Target = strings.TrimSpace(in.Target)
	in.TargetOrganization = strings.TrimSpace(in.TargetOrganization)
	in.Message = strings.TrimSpace(in.Message)

	switch {
	case in.Target == "":
		return nil, invalid("target", "is required")
	case utf8.RuneCountInString(in.Target) > maxTargetLength:
		return nil, invalid("target", "is too long")
	case utf8.RuneCountInString(in.TargetOrganization) > maxTargetLength:
		return nil, invalid("target_organization", "is too long")
	case in.Message == "":
		return nil, invalid("message", "is required")
	case utf8.RuneCountInString(in.Message) > maxMessageLength:
		return nil, invalid("message", "is too long")
	case in.CreditReward < s.policy.MinCreditReward:
		return nil, invalid("credit_reward", "is below the minimum reward")
	case in.CreditReward > rewards.MaxAmount:
		return nil, invalid("credit_reward", "exceeds the maximum reward")
	case in.CashRewardCents < 0:
		return nil, invalid("cash_reward_cents", "must not be negative")
	case in.CashRewardCents > 0 && in.CashRewardCents < s.policy.MinCashRewardCents:
		return nil, invalid("cash_reward_cents", "is below the minimum cash reward")
	case in.CashRewardCents > rewards.MaxAmount:
		return nil, invalid("cash_reward_cents", "exceeds the maximum cash reward")
	}

	return s.requests.Create(ctx, models.NewConnectionRequest{
		CreatorID:          creatorID,
		Target:             in.Target,
		TargetOrganization: in.TargetOrganization,
		Message:            in.Message,
		CreditReward:       in.CreditReward,
		CashRewardCents:    in.CashRewardCents,
		ShareID:            uuid.NewString(),
		ExpiresAt:          s.now().Add(s.policy.RequestTTL).UTC(),
	})
}

// Get returns the request when the viewer created it or joined its chain.
func (s *RequestService) Get(ctx context.Context, viewerID, requestID int64) (*models.ConnectionRequest, error) {
	return viewableRequest(ctx, s.requests, s.chains, viewerID, requestID)
}

func (s *RequestService) ListMine(ctx context.Context, userID int64) ([]models.ConnectionRequest, error) {
	reqs, err := s.requests.ListByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []models.ConnectionRequest{}
	}
	return reqs, nil
}

func (s *RequestService) ListJoined(ctx context.Context, userID int64) ([]models.ConnectionRequest, error) {
	reqs, err := s.requests.ListJoined(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []models.ConnectionRequest{}
	}
	return reqs, nil
}

func (s *RequestService) Cancel(ctx context.Context, userID, requestID int64) (*models.ConnectionRequest, error) {
	return s.requests.Cancel(ctx, requestID, userID)
}

// ExpireDue expires overdue requests in batches and returns how many closed.
func (s *RequestService) ExpireDue(ctx context.Context) (int, error) {
	total := 0
	for {
		expired, err := s.requests.ExpireDue(ctx, s.now().UTC(), expiryBatchSize)
		if err != nil {
			return total, err
		}
		total += len(expired)
		if len(expired) < expiryBatchSize {
			break
		}
	}
	if total > 0 {
		slog.Info("expired connection requests", "count", total)
	}
	return total, nil
}

func viewableRequest(ctx context.Context, requests repositories.RequestRepository, chains repositories.ChainRepository, viewerID, requestID int64) (*models.ConnectionRequest, error) {
	req, err := requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CreatorID == viewerID {
		return req, nil
	}
	ok, err := chains.IsParticipant(ctx, requestID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repositories.ErrForbidden
	}
	return req, nil
}
