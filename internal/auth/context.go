package auth

import "github.com/gin-gonic/gin"

// Identity is the signed-in user as carried by the access token.
type Identity struct {
	UserID string
	Email  string
}

// SignedIn reports whether the identity carries a user.
func (i Identity) SignedIn() bool {
	return i.UserID != ""
}

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	if v, ok := c.Get("userEmail"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IdentityFrom collects the authenticated identity from the request context.
func IdentityFrom(c *gin.Context) Identity {
	return Identity{
		UserID: GetUserID(c),
		Email:  GetUserEmail(c),
	}
}
