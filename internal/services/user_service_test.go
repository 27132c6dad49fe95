package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sixdegrees-service/internal/mocks"
	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/storage"
)

type userFixture struct {
	svc         *UserService
	users       *mocks.MockUserRepository
	connections *mocks.MockConnectionRepository
	requests    *mocks.MockRequestRepository
	avatars     *mocks.MockAvatarSigner
}

func newUserFixture() userFixture {
	f := userFixture{
		users:       new(mocks.MockUserRepository),
		connections: new(mocks.MockConnectionRepository),
		requests:    new(mocks.MockRequestRepository),
		avatars:     new(mocks.MockAvatarSigner),
	}
	f.svc = NewUserService(f.users, f.connections, f.requests, f.avatars, 100)
	return f
}

func TestSyncGrantsConfiguredBonus(t *testing.T) {
	f := newUserFixture()
	f.users.On("Ensure", mock.Anything, int64(1), "alice", int64(100)).
		Return(&models.User{ID: 1, Username: "alice", Credits: 100}, true, nil).Once()

	user, created, err := f.svc.Sync(context.Background(), 1, " alice ")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(100), user.Credits)

	_, _, err = f.svc.Sync(context.Background(), 1, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDashboardLoadsEverything(t *testing.T) {
	f := newUserFixture()
	f.users.On("GetByID", mock.Anything, int64(1)).Return(&models.User{ID: 1, Credits: 40}, nil)
	f.connections.On("CountConnections", mock.Anything, int64(1)).Return(3, nil)
	f.connections.On("GetIncomingInvites", mock.Anything, int64(1)).Return(nil, nil)
	f.requests.On("CountActiveByCreator", mock.Anything, int64(1)).Return(2, nil)
	f.requests.On("ListByCreator", mock.Anything, int64(1)).Return([]models.ConnectionRequest{{ID: 1}, {ID: 2}}, nil)
	f.requests.On("ListJoined", mock.Anything, int64(1)).Return(nil, nil)

	dash, err := f.svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(40), dash.User.Credits)
	assert.Equal(t, 3, dash.Connections)
	assert.Equal(t, 2, dash.ActiveRequests)
	assert.Len(t, dash.Requests, 2)
	assert.NotNil(t, dash.JoinedChains)
	assert.NotNil(t, dash.IncomingInvites)
}

func TestDashboardPropagatesErrors(t *testing.T) {
	f := newUserFixture()
	f.users.On("GetByID", mock.Anything, int64(1)).Return(&models.User{ID: 1}, nil)
	f.connections.On("CountConnections", mock.Anything, int64(1)).Return(0, errors.New("boom"))
	f.connections.On("GetIncomingInvites", mock.Anything, int64(1)).Return(nil, nil)
	f.requests.On("CountActiveByCreator", mock.Anything, int64(1)).Return(0, nil)
	f.requests.On("ListByCreator", mock.Anything, int64(1)).Return(nil, nil)
	f.requests.On("ListJoined", mock.Anything, int64(1)).Return(nil, nil)

	_, err := f.svc.Dashboard(context.Background(), 1)
	require.EqualError(t, err, "boom")
}

func TestUpdateProfileValidation(t *testing.T) {
	f := newUserFixture()
	long := strings.Repeat("n", maxDisplayNameLength+1)
	_, err := f.svc.UpdateProfile(context.Background(), 1, ProfileUpdate{DisplayName: &long})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "display_name", verr.Field)

	bio := strings.Repeat("b", maxBioLength+1)
	_, err = f.svc.UpdateProfile(context.Background(), 1, ProfileUpdate{Bio: &bio})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "bio", verr.Field)
}

func TestUpdateProfileTrimsName(t *testing.T) {
	f := newUserFixture()
	name := "  Alice  "
	f.users.On("UpdateProfile", mock.Anything, int64(1), mock.MatchedBy(func(n *string) bool {
		return n != nil && *n == "Alice"
	}), (*string)(nil)).Return(&models.User{ID: 1, DisplayName: "Alice"}, nil).Once()

	user, err := f.svc.UpdateProfile(context.Background(), 1, ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.DisplayName)
}

func TestAvatarUpload(t *testing.T) {
	f := newUserFixture()
	upload := &storage.PresignedUpload{UploadURL: "https://signed", AvatarURL: "https://bucket/avatars/1/x.png"}
	f.avatars.On("PresignAvatarUpload", mock.Anything, int64(1), "image/png").Return(upload, nil).Once()
	f.users.On("SetAvatarURL", mock.Anything, int64(1), upload.AvatarURL).Return(nil).Once()

	got, err := f.svc.AvatarUpload(context.Background(), 1, "image/png")
	require.NoError(t, err)
	assert.Equal(t, upload, got)

	f.avatars.On("PresignAvatarUpload", mock.Anything, int64(1), "text/plain").Return(nil, storage.ErrUnsupportedContentType).Once()
	_, err = f.svc.AvatarUpload(context.Background(), 1, "text/plain")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAvatarUploadWithoutStorage(t *testing.T) {
	svc := NewUserService(new(mocks.MockUserRepository), nil, nil, nil, 0)
	_, err := svc.AvatarUpload(context.Background(), 1, "image/png")
	require.ErrorIs(t, err, ErrStorageDisabled)
}
