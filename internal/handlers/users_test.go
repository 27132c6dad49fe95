package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"sixdegrees-service/internal/models"
	"sixdegrees-service/internal/storage"
)

func TestSyncUser(t *testing.T) {
	api := newAPI(t)
	api.users.On("Ensure", mock.Anything, int64(1), "user", int64(100)).
		Return(&models.User{ID: 1, Username: "user", Credits: 100}, true, nil).Once()
	api.users.On("Ensure", mock.Anything, int64(1), "user", int64(100)).
		Return(&models.User{ID: 1, Username: "user", Credits: 100}, false, nil).Once()

	requireStatus(t, api.do(t, http.MethodPut, "/api/users/me", 1, ""), http.StatusCreated)
	requireStatus(t, api.do(t, http.MethodPut, "/api/users/me", 1, ""), http.StatusOK)
}

func TestRequiresToken(t *testing.T) {
	api := newAPI(t)
	requireStatus(t, api.do(t, http.MethodGet, "/api/users/me", 0, ""), http.StatusUnauthorized)
	requireStatus(t, api.do(t, http.MethodGet, "/api/wallet", 0, ""), http.StatusUnauthorized)
}

func TestPublicProfileHidesCredits(t *testing.T) {
	api := newAPI(t)
	api.users.On("GetByID", mock.Anything, int64(2)).Return(&models.User{ID: 2, Username: "bob", Credits: 50}, nil).Once()
	api.users.On("GetByID", mock.Anything, int64(3)).Return(nil, sql.ErrNoRows).Once()

	rec := api.do(t, http.MethodGet, "/api/users/2", 0, "")
	requireStatus(t, rec, http.StatusOK)
	body := decode(t, rec)
	assert.Equal(t, "bob", body["username"])
	assert.NotContains(t, body, "credits")

	requireStatus(t, api.do(t, http.MethodGet, "/api/users/3", 0, ""), http.StatusNotFound)
	requireStatus(t, api.do(t, http.MethodGet, "/api/users/abc", 0, ""), http.StatusBadRequest)
}

func TestUpdateProfileTooLong(t *testing.T) {
	api := newAPI(t)
	long := `{"bio":"` + strings.Repeat("b", 501) + `"}`
	requireStatus(t, api.do(t, http.MethodPatch, "/api/users/me", 1, long), http.StatusBadRequest)
	api.users.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAvatarUpload(t *testing.T) {
	api := newAPI(t)
	upload := &storage.PresignedUpload{UploadURL: "https://signed", Method: http.MethodPut, AvatarURL: "https://cdn/avatars/1/a.png"}
	api.avatars.On("PresignAvatarUpload", mock.Anything, int64(1), "image/png").Return(upload, nil).Once()
	api.avatars.On("PresignAvatarUpload", mock.Anything, int64(1), "image/gif").Return(nil, storage.ErrUnsupportedContentType).Once()
	api.users.On("SetAvatarURL", mock.Anything, int64(1), upload.AvatarURL).Return(nil).Once()

	rec := api.do(t, http.MethodPost, "/api/users/me/avatar", 1, `{"content_type":"image/png"}`)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "https://signed", decode(t, rec)["upload_url"])

	requireStatus(t, api.do(t, http.MethodPost, "/api/users/me/avatar", 1, `{"content_type":"image/gif"}`), http.StatusBadRequest)
}
