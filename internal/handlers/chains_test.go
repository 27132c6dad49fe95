package handlers

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/repositories"
)

func shareRequest() *models.ConnectionRequest {
	return &models.ConnectionRequest{
		ID:        10,
		CreatorID: 1,
		ShareID:   "abc",
		Target:    "Jane Doe",
		Message:   "intro please",
		Status:    models.RequestStatusActive,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

func TestVisitShareLink(t *testing.T) {
	api := newAPI(t)
	api.requests.On("GetByShareID", mock.Anything, "abc").Return(shareRequest(), nil)
	api.requests.On("GetByShareID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)
	api.guard.On("FirstVisit", mock.Anything, "abc:ip:192.0.2.1", 24*time.Hour).Return(true, nil).Once()
	api.chains.On("RecordClick", mock.Anything, mock.MatchedBy(func(c models.LinkClick) bool {
		return c.RequestID == 10 && c.ReferrerUserID != nil && *c.ReferrerUserID == 2
	})).Return(nil).Once()

	rec := api.do(t, http.MethodGet, "/api/r/abc?ref=2", 0, "")
	requireStatus(t, rec, http.StatusOK)
	body := decode(t, rec)
	assert.Equal(t, "Jane Doe", body["target"])
	assert.NotContains(t, body, "id")

	requireStatus(t, api.do(t, http.MethodGet, "/api/r/missing", 0, ""), http.StatusNotFound)
	requireStatus(t, api.do(t, http.MethodGet, "/api/r/abc?ref=x", 0, ""), http.StatusBadRequest)
	api.chains.AssertExpectations(t)
}

func TestVisitShareLinkRateLimited(t *testing.T) {
	api := newAPI(t)
	api.requests.On("GetByShareID", mock.Anything, "abc").Return(shareRequest(), nil)
	api.guard.On("FirstVisit", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	var last int
	for i := 0; i < 20; i++ {
		last = api.do(t, http.MethodGet, "/api/r/abc", 0, "").Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestJoinChain(t *testing.T) {
	api := newAPI(t)
	api.requests.On("GetByShareID", mock.Anything, "abc").Return(shareRequest(), nil)
	api.chains.On("Join", mock.Anything, int64(10), int64(5), int64(2), 6, mock.Anything).
		Return(&models.ChainParticipant{RequestID: 10, UserID: 5, Depth: 2}, nil).Once()
	api.chains.On("Join", mock.Anything, int64(10), int64(6), int64(1), 6, mock.Anything).
		Return(nil, repositories.ErrAlreadyParticipant).Once()
	api.chains.On("Join", mock.Anything, int64(10), int64(7), int64(3), 6, mock.Anything).
		Return(nil, repositories.ErrDepthExceeded).Once()

	rec := api.do(t, http.MethodPost, "/api/chains/abc/join", 5, `{"ref":2}`)
	requireStatus(t, rec, http.StatusCreated)
	assert.Equal(t, float64(2), decode(t, rec)["depth"])

	requireStatus(t, api.do(t, http.MethodPost, "/api/chains/abc/join", 6, ""), http.StatusConflict)
	requireStatus(t, api.do(t, http.MethodPost, "/api/chains/abc/join?ref=3", 7, ""), http.StatusUnprocessableEntity)
	api.chains.AssertExpectations(t)
}

func TestJoinOwnReferral(t *testing.T) {
	api := newAPI(t)
	api.requests.On("GetByShareID", mock.Anything, "abc").Return(shareRequest(), nil)

	requireStatus(t, api.do(t, http.MethodPost, "/api/chains/abc/join", 5, `{"ref":5}`), http.StatusBadRequest)
}
