package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionIDHeader is the header carrying the storefront browsing
// session id
const SessionIDHeader = "X-Session-ID"

// sessionCookieName is the fallback cookie for storefronts that cannot
// set custom headers
const sessionCookieName = "sf_session"

// MaxSessionIDLength bounds inbound session ids to prevent abuse via
// oversized headers
const MaxSessionIDLength = 128

// SessionID resolves the browsing session id for each request and
// stores it in the gin context under "session_id". Resolution order is
// the X-Session-ID header, then the session cookie, then a freshly
// generated id. The resolved id is echoed back in the response header
// so clients can adopt it. The session id scopes checkout and purchase
// deduplication, so a client losing it resets the durable tier.
func SessionID() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionIDHeader)
		if sessionID == "" {
			if cookie, err := c.Cookie(sessionCookieName); err == nil {
				sessionID = cookie
			}
		}
		if len(sessionID) > MaxSessionIDLength {
			sessionID = sessionID[:MaxSessionIDLength]
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		c.Set("session_id", sessionID)
		c.Writer.Header().Set(SessionIDHeader, sessionID)
		c.Next()
	}
}
