package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/errs"
	"messaging-service/internal/keys"
)

// KeyHandler exposes keypair provisioning and public-key lookup.
type KeyHandler struct {
	keys *keys.Service
}

// NewKeyHandler builds a KeyHandler.
func NewKeyHandler(keyService *keys.Service) *KeyHandler {
	return &KeyHandler{keys: keyService}
}

// GenerateKeys provisions a keypair for the authenticated user. Passing
// ?rotate=true appends a new version; without it a second call conflicts.
func (h *KeyHandler) GenerateKeys(c *gin.Context) {
	userID := c.GetInt("userID")
	rotate := c.Query("rotate") == "true"

	pair, err := h.keys.GenerateKeyPair(c.Request.Context(), userID, rotate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id":      pair.UserID,
		"public_key":   pair.PublicKey,
		"fingerprint":  pair.Fingerprint,
		"version":      pair.Version,
		"generated_at": pair.GeneratedAt,
	})
}

// GetPublicKey returns another user's current public key so a sender can
// wrap content keys for them.
func (h *KeyHandler) GetPublicKey(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		respondError(c, errs.InvalidArg("invalid user id"))
		return
	}

	pair, err := h.keys.GetPublicKey(c.Request.Context(), targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}
