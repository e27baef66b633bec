// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated user. The abstraction keeps
// services independent of the web framework: handlers extract an Identity
// once and pass it down.
type Identity interface {
	// UserID returns the authenticated user's ID.
	UserID() uuid.UUID
	// Role returns the user's global role (e.g. "manager_program").
	Role() string
	// IsAuthenticated returns true if the user is authenticated.
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	role          string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID { return i.userID }

func (i *identity) Role() string { return i.role }

func (i *identity) IsAuthenticated() bool { return i.authenticated }

// NewIdentity builds an authenticated Identity. Intended for tests and
// internal callers that act on behalf of a known user.
func NewIdentity(userID uuid.UUID, role string) Identity {
	return &identity{userID: userID, role: role, authenticated: true}
}

// GetIdentity extracts the Identity from a Gin context. Returns an
// unauthenticated identity when no user info is present.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	if !userOK {
		return &identity{}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	role := ""
	if value, ok := c.Get(ContextRoleKey); ok {
		role, _ = value.(string)
	}

	return &identity{userID: uid, role: role, authenticated: true}
}

// MustGetIdentity extracts the Identity or aborts with 401.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil
	}
	return id
}
