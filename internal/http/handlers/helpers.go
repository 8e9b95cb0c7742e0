package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigsetu/gigsetu-backend/internal/http/middleware"
)

var errNoUserInContext = errors.New("no authenticated user in context")

// currentUserID extracts the caller's id set by the auth middleware.
func currentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, errNoUserInContext
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, errNoUserInContext
	}

	return userID, nil
}

// currentUserRole extracts the caller's role set by the auth middleware.
func currentUserRole(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return "", errNoUserInContext
	}

	role, ok := raw.(string)
	if !ok {
		return "", errNoUserInContext
	}

	return role, nil
}

// parseIntQuery reads an integer query parameter with a fallback.
func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
