package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/repositories"
	"sixdegrees-service/internal/storage"
)

const (
	maxDisplayNameLength = 80
	maxBioLength         = 500
)

// Dashboard is the signed-in user's home screen.
type Dashboard struct {
	User            *models.User               `json:"user"`
	Connections     int                        `json:"connections"`
	ActiveRequests  int                        `json:"active_requests"`
	Requests        []models.ConnectionRequest `json:"requests"`
	JoinedChains    []models.ConnectionRequest `json:"joined_chains"`
	IncomingInvites []models.ConnectionInvite  `json:"incoming_invites"`
}

type UserService struct {
	users       repositories.UserRepository
	connections repositories.ConnectionRepository
	requests    repositories.RequestRepository
	avatars     storage.AvatarSigner
	signupBonus int64
}

func NewUserService(users repositories.UserRepository, connections repositories.ConnectionRepository, requests repositories.RequestRepository, avatars storage.AvatarSigner, signupBonus int64) *UserService {
	return &UserService{
		users:       users,
		connections: connections,
		requests:    requests,
		avatars:     avatars,
		signupBonus: signupBonus,
	}
}

// Sync provisions the caller from token claims on first sight.
func (s *UserService) Sync(ctx context.Context, userID int64, username string) (*models.User, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, false, invalid("username", "is missing from the token")
	}
	return s.users.Ensure(ctx, userID, username, s.signupBonus)
}

func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) Dashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	dash := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		user, err := s.users.GetByID(gctx, userID)
		dash.User = user
		return err
	})
	g.Go(func() error {
		n, err := s.connections.CountConnections(gctx, userID)
		dash.Connections = n
		return err
	})
	g.Go(func() error {
		n, err := s.requests.CountActiveByCreator(gctx, userID)
		dash.ActiveRequests = n
		return err
	})
	g.Go(func() error {
		reqs, err := s.requests.ListByCreator(gctx, userID)
		dash.Requests = reqs
		return err
	})
	g.Go(func() error {
		reqs, err := s.requests.ListJoined(gctx, userID)
		dash.JoinedChains = reqs
		return err
	})
	g.Go(func() error {
		invites, err := s.connections.GetIncomingInvites(gctx, userID)
		dash.IncomingInvites = invites
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if dash.Requests == nil {
		dash.Requests = []models.ConnectionRequest{}
	}
	if dash.JoinedChains == nil {
		dash.JoinedChains = []models.ConnectionRequest{}
	}
	if dash.IncomingInvites == nil {
		dash.IncomingInvites = []models.ConnectionInvite{}
	}
	return dash, nil
}

type ProfileUpdate struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate) (*models.User, error) {
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if utf8.RuneCountInString(name) > maxDisplayNameLength {
			return nil, invalid("display_name", "is too long")
		}
		in.DisplayName = &name
	}
	if in.Bio != nil && utf8.RuneCountInString(*in.Bio) > maxBioLength {
		return nil, invalid("bio", "is too long")
	}
	return s.users.UpdateProfile(ctx, userID, in.DisplayName, in.Bio)
}

// AvatarUpload presigns an upload and points the profile at the new object.
func (s *UserService) AvatarUpload(ctx context.Context, userID int64, contentType string) (*storage.PresignedUpload, error) {
	if s.avatars == nil {
		return nil, ErrStorageDisabled
	}
	upload, err := s.avatars.PresignAvatarUpload(ctx, userID, contentType)
	if err != nil {
		if err == storage.ErrUnsupportedContentType {
			return nil, invalid("content_type", err.Error())
		}
		return nil, err
	}
	if err := s.users.SetAvatarURL(ctx, userID, upload.AvatarURL); err != nil {
		return nil, err
	}
	return upload, nil
}
