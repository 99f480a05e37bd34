package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/errs"
	"messaging-service/internal/keys"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
)

func setupKeyRouter(handler *KeyHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/keys", handler.GenerateKeys)
	r.GET("/keys/:user_id", handler.GetPublicKey)
	return r
}

func TestGenerateKeysSuccess(t *testing.T) {
	keyRepo := new(mocks.KeyRepositoryMock)
	handler := NewKeyHandler(keys.NewService(keyRepo, "secret"))
	router := setupKeyRouter(handler)

	keyRepo.On("CurrentVersion", mock.Anything, 1).Return(0, nil).Once()
	keyRepo.On("Insert", mock.Anything, mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/keys", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, float64(1), resp["version"])
	assert.NotEmpty(t, resp["public_key"])
	assert.NotEmpty(t, resp["fingerprint"])
	assert.NotContains(t, resp, "encrypted_private_key")
	keyRepo.AssertExpectations(t)
}

func TestGenerateKeysConflict(t *testing.T) {
	keyRepo := new(mocks.KeyRepositoryMock)
	handler := NewKeyHandler(keys.NewService(keyRepo, "secret"))
	router := setupKeyRouter(handler)

	keyRepo.On("CurrentVersion", mock.Anything, 1).Return(2, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/keys", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGenerateKeysRotate(t *testing.T) {
	keyRepo := new(mocks.KeyRepositoryMock)
	handler := NewKeyHandler(keys.NewService(keyRepo, "secret"))
	router := setupKeyRouter(handler)

	keyRepo.On("CurrentVersion", mock.Anything, 1).Return(2, nil).Once()
	keyRepo.On("Insert", mock.Anything, mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/keys?rotate=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, float64(3), resp["version"])
}

func TestGetPublicKeySuccess(t *testing.T) {
	keyRepo := new(mocks.KeyRepositoryMock)
	handler := NewKeyHandler(keys.NewService(keyRepo, "secret"))
	router := setupKeyRouter(handler)

	keyRepo.On("Current", mock.Anything, 2).Return(models.UserKeyPair{
		UserID:              2,
		PublicKey:           "-----BEGIN PUBLIC KEY-----\n...",
		EncryptedPrivateKey: "must-not-leak",
		Fingerprint:         "fp",
		Version:             1,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/keys/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "must-not-leak")
	assert.Contains(t, rec.Body.String(), "fp")
}

func TestGetPublicKeyNotFound(t *testing.T) {
	keyRepo := new(mocks.KeyRepositoryMock)
	handler := NewKeyHandler(keys.NewService(keyRepo, "secret"))
	router := setupKeyRouter(handler)

	keyRepo.On("Current", mock.Anything, 2).Return(nil, errs.ErrKeyNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/keys/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPublicKeyInvalidID(t *testing.T) {
	handler := NewKeyHandler(nil)
	router := setupKeyRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/keys/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
