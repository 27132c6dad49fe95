package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sixdegrees-service/internal/config"
	"sixdegrees-service/internal/mocks"
	"sixdegrees-service/internal/models"
)

func newSwipeService() (*SwipeService, *mocks.MockSwipeRepository, *mocks.MockUserRepository) {
	swipes := new(mocks.MockSwipeRepository)
	users := new(mocks.MockUserRepository)
	svc := NewSwipeService(swipes, users, config.Default().Swipes)
	svc.now = func() time.Time { return fixedNow }
	return svc, swipes, users
}

func TestSwipeValidation(t *testing.T) {
	svc, _, _ := newSwipeService()

	_, err := svc.Swipe(context.Background(), 1, 2, "superlike")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "action", verr.Field)

	_, err = svc.Swipe(context.Background(), 1, 1, models.SwipeLike)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "target_user_id", verr.Field)
}

func TestSwipeUnknownTarget(t *testing.T) {
	svc, swipes, users := newSwipeService()
	users.On("GetByID", mock.Anything, int64(2)).Return(nil, sql.ErrNoRows).Once()

	_, err := svc.Swipe(context.Background(), 1, 2, models.SwipeLike)
	require.ErrorIs(t, err, sql.ErrNoRows)
	swipes.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSwipeMutualLikeMatches(t *testing.T) {
	svc, swipes, users := newSwipeService()
	users.On("GetByID", mock.Anything, int64(2)).Return(&models.User{ID: 2}, nil).Once()
	swipes.On("Record", mock.Anything, int64(1), int64(2), models.SwipeLike).
		Return(&models.Swipe{ActorUserID: 1, TargetUserID: 2, Action: models.SwipeLike, Matched: true},
			&models.Match{ID: 8, UserAID: 1, UserBID: 2}, nil).Once()

	res, err := svc.Swipe(context.Background(), 1, 2, models.SwipeLike)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, int64(8), res.Match.ID)
}

func TestUndoUsesConfiguredWindow(t *testing.T) {
	svc, swipes, _ := newSwipeService()
	swipes.On("UndoLatest", mock.Anything, int64(1), 30*time.Second, fixedNow).
		Return(&models.Swipe{ActorUserID: 1, TargetUserID: 2}, nil).Once()

	swipe, err := svc.Undo(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), swipe.TargetUserID)
	swipes.AssertExpectations(t)
}

func TestDiscoverUsesLimit(t *testing.T) {
	svc, swipes, _ := newSwipeService()
	swipes.On("Discover", mock.Anything, int64(1), 20).Return([]models.PublicUser{{ID: 3}}, nil).Once()

	users, err := svc.Discover(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
