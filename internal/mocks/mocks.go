package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"sixdegrees-service/internal/clickguard"
	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/rabbitmq"
	"sixdegrees-service/internal/repositories"
	"sixdegrees-service/internal/rewards"
	"sixdegrees-service/internal/storage"
)

// MockUserRepository mocks UserRepository behavior for handlers and services.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Ensure(ctx context.Context, id int64, username string, signupBonus int64) (*models.User, bool, error) {
	args := m.Called(ctx, id, username, signupBonus)
	var user *models.User
	if val := args.Get(0); val != nil {
		user = val.(*models.User)
	}
	return user, args.Bool(1), args.Error(2)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	var user *models.User
	if val := args.Get(0); val != nil {
		user = val.(*models.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) GetCredits(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id int64, displayName, bio *string) (*models.User, error) {
	args := m.Called(ctx, id, displayName, bio)
	var user *models.User
	if val := args.Get(0); val != nil {
		user = val.(*models.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) SetAvatarURL(ctx context.Context, id int64, avatarURL string) error {
	args := m.Called(ctx, id, avatarURL)
	return args.Error(0)
}

// MockConnectionRepository mocks ConnectionRepository behavior.
type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) CreateInvite(ctx context.Context, fromUserID, toUserID int64) (*models.ConnectionInvite, error) {
	args := m.Called(ctx, fromUserID, toUserID)
	var invite *models.ConnectionInvite
	if val := args.Get(0); val != nil {
		invite = val.(*models.ConnectionInvite)
	}
	return invite, args.Error(1)
}

func (m *MockConnectionRepository) GetIncomingInvites(ctx context.Context, userID int64) ([]models.ConnectionInvite, error) {
	args := m.Called(ctx, userID)
	var invites []models.ConnectionInvite
	if val := args.Get(0); val != nil {
		invites = val.([]models.ConnectionInvite)
	}
	return invites, args.Error(1)
}

func (m *MockConnectionRepository) AcceptInvite(ctx context.Context, inviteID, userID int64) error {
	args := m.Called(ctx, inviteID, userID)
	return args.Error(0)
}

func (m *MockConnectionRepository) RejectInvite(ctx context.Context, inviteID, userID int64) error {
	args := m.Called(ctx, inviteID, userID)
	return args.Error(0)
}

func (m *MockConnectionRepository) ListConnections(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	var ids []int64
	if val := args.Get(0); val != nil {
		ids = val.([]int64)
	}
	return ids, args.Error(1)
}

func (m *MockConnectionRepository) CountConnections(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockConnectionRepository) HasPendingInvite(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	args := m.Called(ctx, fromUserID, toUserID)
	return args.Bool(0), args.Error(1)
}

func (m *MockConnectionRepository) AreConnected(ctx context.Context, userID, otherID int64) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

func (m *MockConnectionRepository) DeleteConnection(ctx context.Context, userID, otherID int64) error {
	args := m.Called(ctx, userID, otherID)
	return args.Error(0)
}

// MockRequestRepository mocks RequestRepository behavior.
type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) Create(ctx context.Context, in models.NewConnectionRequest) (*models.ConnectionRequest, error) {
	args := m.Called(ctx, in)
	return requestOrNil(args.Get(0)), args.Error(1)
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id int64) (*models.ConnectionRequest, error) {
	args := m.Called(ctx, id)
	return requestOrNil(args.Get(0)), args.Error(1)
}

func (m *MockRequestRepository) GetByShareID(ctx context.Context, shareID string) (*models.ConnectionRequest, error) {
	args := m.Called(ctx, shareID)
	return requestOrNil(args.Get(0)), args.Error(1)
}

func (m *MockRequestRepository) ListByCreator(ctx context.Context, creatorID int64) ([]models.ConnectionRequest, error) {
	args := m.Called(ctx, creatorID)
	return requestsOrNil(args.Get(0)), args.Error(1)
}

func (m *MockRequestRepository) ListJoined(ctx context.Context, userID int64) ([]models.ConnectionRequest, error) {
	args := m.Called(ctx, userID)
	return requestsOrNil(args.Get(0)), args.Error(1)
}

func (m *MockRequestRepository) CountActiveByCreator(ctx context.Context, creatorID int64) (int, error) {
	args := m.Called(ctx, creatorID)
	return args.Int(0), args.Error(1)
}

func (m *MockRequestRepository) Cancel(ctx context.Context, id, userID int64) (*models.ConnectionRequest, error) {
	args := m.Called(ctx, id, userID)
	return requestOrNil(args.Get(0)), args.Error(1)
}

func (m *MockRequestRepository) ExpireDue(ctx context.Context, now time.Time, limit int) ([]models.ConnectionRequest, error) {
	args := m.Called(ctx, now, limit)
	return requestsOrNil(args.Get(0)), args.Error(1)
}

func requestOrNil(val any) *models.ConnectionRequest {
	if val == nil {
		return nil
	}
	return val.(*models.ConnectionRequest)
}

func requestsOrNil(val any) []models.ConnectionRequest {
	if val == nil {
		return nil
	}
	return val.([]models.ConnectionRequest)
}

// MockChainRepository mocks ChainRepository behavior.
type MockChainRepository struct {
	mock.Mock
}

func (m *MockChainRepository) ListParticipants(ctx context.Context, requestID int64) ([]models.ChainParticipant, error) {
	args := m.Called(ctx, requestID)
	var out []models.ChainParticipant
	if val := args.Get(0); val != nil {
		out = val.([]models.ChainParticipant)
	}
	return out, args.Error(1)
}

func (m *MockChainRepository) IsParticipant(ctx context.Context, requestID, userID int64) (bool, error) {
	args := m.Called(ctx, requestID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockChainRepository) Join(ctx context.Context, requestID, userID, parentUserID int64, maxDepth int, now time.Time) (*models.ChainParticipant, error) {
	args := m.Called(ctx, requestID, userID, parentUserID, maxDepth, now)
	var p *models.ChainParticipant
	if val := args.Get(0); val != nil {
		p = val.(*models.ChainParticipant)
	}
	return p, args.Error(1)
}

func (m *MockChainRepository) Freeze(ctx context.Context, requestID, creatorID, userID int64, now, until time.Time) ([]int64, error) {
	args := m.Called(ctx, requestID, creatorID, userID, now, until)
	var ids []int64
	if val := args.Get(0); val != nil {
		ids = val.([]int64)
	}
	return ids, args.Error(1)
}

func (m *MockChainRepository) Complete(ctx context.Context, requestID, creatorID, connectorID int64, policy rewards.Policy, now time.Time) (*models.ChainCompletion, error) {
	args := m.Called(ctx, requestID, creatorID, connectorID, policy, now)
	var c *models.ChainCompletion
	if val := args.Get(0); val != nil {
		c = val.(*models.ChainCompletion)
	}
	return c, args.Error(1)
}

func (m *MockChainRepository) ListRewards(ctx context.Context, requestID int64) ([]models.ChainReward, error) {
	args := m.Called(ctx, requestID)
	var out []models.ChainReward
	if val := args.Get(0); val != nil {
		out = val.([]models.ChainReward)
	}
	return out, args.Error(1)
}

func (m *MockChainRepository) RecordClick(ctx context.Context, click models.LinkClick) error {
	args := m.Called(ctx, click)
	return args.Error(0)
}

func (m *MockChainRepository) ClickStats(ctx context.Context, requestID int64) (*repositories.ClickStats, error) {
	args := m.Called(ctx, requestID)
	var stats *repositories.ClickStats
	if val := args.Get(0); val != nil {
		stats = val.(*repositories.ClickStats)
	}
	return stats, args.Error(1)
}

// MockWalletRepository mocks WalletRepository behavior.
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetWallet(ctx context.Context, userID int64, limit int) (*models.Wallet, error) {
	args := m.Called(ctx, userID, limit)
	var w *models.Wallet
	if val := args.Get(0); val != nil {
		w = val.(*models.Wallet)
	}
	return w, args.Error(1)
}

func (m *MockWalletRepository) Purchase(ctx context.Context, userID, credits int64, paymentReference string) (*models.CreditTransaction, bool, error) {
	args := m.Called(ctx, userID, credits, paymentReference)
	var tx *models.CreditTransaction
	if val := args.Get(0); val != nil {
		tx = val.(*models.CreditTransaction)
	}
	return tx, args.Bool(1), args.Error(2)
}

// MockSwipeRepository mocks SwipeRepository behavior.
type MockSwipeRepository struct {
	mock.Mock
}

func (m *MockSwipeRepository) Discover(ctx context.Context, userID int64, limit int) ([]models.PublicUser, error) {
	args := m.Called(ctx, userID, limit)
	var users []models.PublicUser
	if val := args.Get(0); val != nil {
		users = val.([]models.PublicUser)
	}
	return users, args.Error(1)
}

func (m *MockSwipeRepository) Record(ctx context.Context, actorID, targetID int64, action string) (*models.Swipe, *models.Match, error) {
	args := m.Called(ctx, actorID, targetID, action)
	var swipe *models.Swipe
	if val := args.Get(0); val != nil {
		swipe = val.(*models.Swipe)
	}
	var match *models.Match
	if val := args.Get(1); val != nil {
		match = val.(*models.Match)
	}
	return swipe, match, args.Error(2)
}

func (m *MockSwipeRepository) UndoLatest(ctx context.Context, actorID int64, window time.Duration, now time.Time) (*models.Swipe, error) {
	args := m.Called(ctx, actorID, window, now)
	var swipe *models.Swipe
	if val := args.Get(0); val != nil {
		swipe = val.(*models.Swipe)
	}
	return swipe, args.Error(1)
}

func (m *MockSwipeRepository) ListMatches(ctx context.Context, userID int64) ([]models.Match, error) {
	args := m.Called(ctx, userID)
	var matches []models.Match
	if val := args.Get(0); val != nil {
		matches = val.([]models.Match)
	}
	return matches, args.Error(1)
}

// MockPublisher mocks RabbitMQ publisher behavior for telemetry.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockAvatarSigner mocks presigned avatar uploads.
type MockAvatarSigner struct {
	mock.Mock
}

func (m *MockAvatarSigner) PresignAvatarUpload(ctx context.Context, userID int64, contentType string) (*storage.PresignedUpload, error) {
	args := m.Called(ctx, userID, contentType)
	var upload *storage.PresignedUpload
	if val := args.Get(0); val != nil {
		upload = val.(*storage.PresignedUpload)
	}
	return upload, args.Error(1)
}

// MockGuard mocks the share link click guard.
type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) FirstVisit(ctx context.Context, key string, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, window)
	return args.Bool(0), args.Error(1)
}

// Compile-time assertions
var (
	_ repositories.UserRepository       = (*MockUserRepository)(nil)
	_ repositories.ConnectionRepository = (*MockConnectionRepository)(nil)
	_ repositories.RequestRepository    = (*MockRequestRepository)(nil)
	_ repositories.ChainRepository      = (*MockChainRepository)(nil)
	_ repositories.WalletRepository     = (*MockWalletRepository)(nil)
	_ repositories.SwipeRepository      = (*MockSwipeRepository)(nil)
	_ rabbitmq.Publisher                = (*MockPublisher)(nil)
	_ storage.AvatarSigner              = (*MockAvatarSigner)(nil)
	_ clickguard.Guard                  = (*MockGuard)(nil)
)
