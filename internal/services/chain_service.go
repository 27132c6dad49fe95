package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"sixdegrees-service/internal/clickguard"
	"sixdegrees-service/internal/config"
	"sixdegrees-service/internal/metrics"
	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/repositories"
	"sixdegrees-service/internal/rewards"
)

const maxFreezeHours = 720

type ChainService struct {
	requests     repositories.RequestRepository
	chains       repositories.ChainRepository
	guard        clickguard.Guard
	policy       config.RewardsConfig
	dedupeWindow time.Duration
	now          func() time.Time
}

func NewChainService(requests repositories.RequestRepository, chains repositories.ChainRepository, guard clickguard.Guard, policy config.RewardsConfig, dedupeWindow time.Duration) *ChainService {
	return &ChainService{
		requests:     requests,
		chains:       chains,
		guard:        guard,
		policy:       policy,
		dedupeWindow: dedupeWindow,
		now:          time.Now,
	}
}

// Visit resolves a share link and records the click once per visitor per
// dedupe window.
func (s *ChainService) Visit(ctx context.Context, shareID string, ref *int64, visitorKey string) (*models.PublicRequest, error) {
	req, err := s.requests.GetByShareID(ctx, shareID)
	if err != nil {
		return nil, err
	}

	unique := true
	if s.guard != nil {
		first, err := s.guard.FirstVisit(ctx, shareID+":"+visitorKey, s.dedupeWindow)
		if err != nil {
			slog.Warn("click guard unavailable", "share_id", shareID, "error", err)
		} else {
			unique = first
		}
	}
	metrics.IncLinkClick(unique)

	if unique {
		click := models.LinkClick{
			RequestID:      req.ID,
			ShareID:        shareID,
			ReferrerUserID: ref,
			VisitorKey:     visitorKey,
		}
		if err := s.chains.RecordClick(ctx, click); err != nil {
			slog.Warn("failed to record link click", "share_id", shareID, "error", err)
		}
	}

	public := req.Public()
	return &public, nil
}

// Join seats the user below ref, or below the creator when ref is nil.
func (s *ChainService) Join(ctx context.Context, userID int64, shareID string, ref *int64) (*models.ChainParticipant, error) {
	req, err := s.requests.GetByShareID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if !req.IsActive(s.now()) {
		return nil, repositories.ErrRequestClosed
	}
	parent := req.CreatorID
	if ref != nil {
		parent = *ref
	}
	if parent == userID {
		return nil, invalid("ref", "cannot refer yourself")
	}
	return s.chains.Join(ctx, req.ID, userID, parent, s.policy.MaxChainDepth, s.now().UTC())
}

func (s *ChainService) Chain(ctx context.Context, viewerID, requestID int64) (*models.Chain, error) {
	req, err := viewableRequest(ctx, s.requests, s.chains, viewerID, requestID)
	if err != nil {
		return nil, err
	}
	participants, err := s.chains.ListParticipants(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if participants == nil {
		participants = []models.ChainParticipant{}
	}
	return &models.Chain{Request: *req, Participants: participants}, nil
}

func (s *ChainService) Freeze(ctx context.Context, creatorID, requestID, userID int64, hours int) ([]int64, error) {
	if hours < 1 || hours > maxFreezeHours {
		return nil, invalid("hours", "must be between 1 and "+strconv.Itoa(maxFreezeHours))
	}
	now := s.now().UTC()
	return s.chains.Freeze(ctx, requestID, creatorID, userID, now, now.Add(time.Duration(hours)*time.Hour))
}

func (s *ChainService) Complete(ctx context.Context, creatorID, requestID, connectorID int64) (*models.ChainCompletion, error) {
	policy := rewards.Policy{ConnectorSharePercent: s.policy.ConnectorSharePercent}
	completion, err := s.chains.Complete(ctx, requestID, creatorID, connectorID, policy, s.now().UTC())
	switch {
	case errors.Is(err, rewards.ErrUnknownParticipant):
		return nil, repositories.ErrNotParticipant
	case errors.Is(err, rewards.ErrCreatorIsConnector):
		return nil, invalid("connector_user_id", "the creator cannot be the connector")
	case err != nil:
		return nil, err
	}
	return completion, nil
}

func (s *ChainService) Rewards(ctx context.Context, viewerID, requestID int64) ([]models.ChainReward, error) {
	if _, err := viewableRequest(ctx, s.requests, s.chains, viewerID, requestID); err != nil {
		return nil, err
	}
	out, err := s.chains.ListRewards(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.ChainReward{}
	}
	return out, nil
}

func (s *ChainService) Analytics(ctx context.Context, creatorID, requestID int64) (*models.ChainAnalytics, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CreatorID != creatorID {
		return nil, repositories.ErrForbidden
	}

	participants, err := s.chains.ListParticipants(ctx, requestID)
	if err != nil {
		return nil, err
	}
	stats, err := s.chains.ClickStats(ctx, requestID)
	if err != nil {
		return nil, err
	}

	out := &models.ChainAnalytics{
		RequestID:           requestID,
		TotalClicks:         stats.TotalClicks,
		UniqueVisitors:      stats.UniqueVisitors,
		Participants:        len(participants),
		ParticipantsAtDepth: make(map[int]int),
	}
	for _, p := range participants {
		out.ParticipantsAtDepth[p.Depth]++
		if p.Depth > out.MaxDepth {
			out.MaxDepth = p.Depth
		}
	}
	return out, nil
}
