package handlers

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/repositories"
)

func TestSwipeCreatesMatch(t *testing.T) {
	api := newAPI(t)
	api.users.On("GetByID", mock.Anything, int64(2)).Return(&models.User{ID: 2}, nil)
	api.swipes.On("Record", mock.Anything, int64(1), int64(2), models.SwipeLike).
		Return(&models.Swipe{ActorUserID: 1, TargetUserID: 2, Action: models.SwipeLike, Matched: true},
			&models.Match{ID: 5, UserAID: 1, UserBID: 2}, nil).Once()
	api.swipes.On("Record", mock.Anything, int64(1), int64(2), models.SwipePass).
		Return(nil, nil, repositories.ErrDuplicate).Once()

	rec := api.do(t, http.MethodPost, "/api/swipes", 1, `{"target_user_id":2,"action":"like"}`)
	requireStatus(t, rec, http.StatusCreated)
	assert.Equal(t, true, decode(t, rec)["matched"])

	requireStatus(t, api.do(t, http.MethodPost, "/api/swipes", 1, `{"target_user_id":2,"action":"pass"}`), http.StatusConflict)
	requireStatus(t, api.do(t, http.MethodPost, "/api/swipes", 1, `{"target_user_id":1,"action":"like"}`), http.StatusBadRequest)
}

func TestUndoSwipe(t *testing.T) {
	api := newAPI(t)
	api.swipes.On("UndoLatest", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return(&models.Swipe{ActorUserID: 1, TargetUserID: 2}, nil).Once()
	api.swipes.On("UndoLatest", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return(nil, repositories.ErrUndoNotAllowed).Once()
	api.swipes.On("UndoLatest", mock.Anything, int64(1), mock.Anything, mock.Anything).
		Return(nil, sql.ErrNoRows).Once()

	requireStatus(t, api.do(t, http.MethodPost, "/api/swipes/undo", 1, ""), http.StatusOK)
	requireStatus(t, api.do(t, http.MethodPost, "/api/swipes/undo", 1, ""), http.StatusConflict)
	requireStatus(t, api.do(t, http.MethodPost, "/api/swipes/undo", 1, ""), http.StatusNotFound)
}

func TestDiscoverAndMatches(t *testing.T) {
	api := newAPI(t)
	api.swipes.On("Discover", mock.Anything, int64(1), 20).Return([]models.PublicUser{{ID: 3, Username: "carol"}}, nil).Once()
	api.swipes.On("ListMatches", mock.Anything, int64(1)).Return([]models.Match{}, nil).Once()

	rec := api.do(t, http.MethodGet, "/api/discover", 1, "")
	requireStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "carol")

	rec = api.do(t, http.MethodGet, "/api/matches", 1, "")
	requireStatus(t, rec, http.StatusOK)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
