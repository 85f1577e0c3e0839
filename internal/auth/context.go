package auth

import "github.com/gin-gonic/gin"

// GetActorID returns the authenticated actor's ID or empty string.
func GetActorID(c *gin.Context) string {
	if v, ok := c.Get("actorID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetActorEmail returns the authenticated actor's email or empty string.
func GetActorEmail(c *gin.Context) string {
	if v, ok := c.Get("actorEmail"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IsAdmin reports whether the authenticated actor carries the admin claim.
func IsAdmin(c *gin.Context) bool {
	if v, ok := c.Get("actorAdmin"); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}
