package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"storefront-backend/internal/shared/types"
)

// ===================================
// CONSTANTS
// ===================================

const (
	// Cookie settings
	SessionCookieName = "session_id"
	SessionMaxAge     = 60 * 60 * 24 * 30 // 30 days in seconds

	// Header fallback for clients that do not carry cookies
	SessionHeaderName = "X-Session-ID"

	// Context keys
	ContextKeySessionID       = "session_id"
	ContextKeyUserID          = "user_id"
	ContextKeyRole            = "role"
	ContextKeyIsAuthenticated = "is_authenticated"
)

// ===================================
// MIDDLEWARE CONFIGURATION
// ===================================

// SessionConfig holds cookie settings for the session middleware
type SessionConfig struct {
	CookieDomain string // "" for current domain
	CookiePath   string // Default: "/"
	CookieSecure bool   // true for HTTPS only
}

// DefaultSessionConfig returns secure default configuration
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		CookieDomain: "",
		CookiePath:   "/",
		CookieSecure: true, // set false for localhost dev
	}
}

// ===================================
// SESSION MIDDLEWARE
// ===================================

// Session establishes the guest session every checkout-scoped request
// runs under.
//
// Flow:
// 1. Read the session id from cookie, then the header fallback
// 2. Missing or malformed id: mint a new UUID and set the cookie
// 3. Put session_id in the gin context for handlers
//
// The session survives login; an authenticated caller keeps the same
// session id so guest orders stay reachable after signing in.
func Session(config SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := readSessionID(c)
		if sessionID == "" {
			sessionID = uuid.New().String()
			setSessionCookie(c, sessionID, config)
		}

		c.Set(ContextKeySessionID, sessionID)
		c.Next()
	}
}

// readSessionID retrieves the session id from cookie or header.
// Non-UUID values are discarded so a caller cannot plant an arbitrary
// ownership key.
func readSessionID(c *gin.Context) string {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || sessionID == "" {
		sessionID = c.GetHeader(SessionHeaderName)
	}
	if sessionID == "" {
		return ""
	}

	if _, err := uuid.Parse(sessionID); err != nil {
		return ""
	}

	return sessionID
}

// setSessionCookie sets the secure session cookie
func setSessionCookie(c *gin.Context, sessionID string, config SessionConfig) {
	c.SetCookie(
		SessionCookieName,
		sessionID,
		SessionMaxAge,
		config.CookiePath,
		config.CookieDomain,
		config.CookieSecure,
		true, // httpOnly
	)
}

// ===================================
// OPTIONAL AUTH MIDDLEWARE
// ===================================

// OptionalAuth allows both authenticated and anonymous callers.
// - Valid JWT: user_id and role land in the context
// - No JWT or invalid JWT: continue as anonymous, never an error
//
// Checkout, order intake and payment reconciliation all accept guests,
// so this runs where AuthMiddleware would be too strict.
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			markAnonymous(c)
			c.Next()
			return
		}

		claims, err := VerifyToken(token, jwtSecret)
		if err != nil {
			markAnonymous(c)
			c.Next()
			return
		}

		userID, role, err := claimsIdentity(claims)
		if err != nil {
			markAnonymous(c)
			c.Next()
			return
		}

		c.Set(ContextKeyIsAuthenticated, true)
		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyRole, role)
		c.Next()
	}
}

func markAnonymous(c *gin.Context) {
	c.Set(ContextKeyIsAuthenticated, false)
}

// extractBearerToken pulls the token out of "Authorization: Bearer <t>"
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// claimsIdentity extracts the user id and role from verified claims
func claimsIdentity(claims jwt.MapClaims) (uuid.UUID, string, error) {
	userIDStr, ok := claims["user_id"].(string)
	if !ok || userIDStr == "" {
		return uuid.Nil, "", errors.New("missing user_id claim")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid user_id claim: %w", err)
	}

	role, _ := claims["role"].(string)
	return userID, role, nil
}

// VerifyToken parses and validates an HS256 JWT
func VerifyToken(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		jwt.MapClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	return claims, nil
}

// ===================================
// CONTEXT HELPERS FOR HANDLERS
// ===================================

// GetSessionID retrieves the session id from context
func GetSessionID(c *gin.Context) string {
	sessionID, exists := c.Get(ContextKeySessionID)
	if !exists {
		return ""
	}

	sid, ok := sessionID.(string)
	if !ok {
		return ""
	}

	return sid
}

// GetAuthenticatedUserID retrieves the user id when authenticated.
// Returns (nil, false) for anonymous callers.
func GetAuthenticatedUserID(c *gin.Context) (*uuid.UUID, bool) {
	if !IsAuthenticated(c) {
		return nil, false
	}

	userID, exists := c.Get(ContextKeyUserID)
	if !exists || userID == nil {
		return nil, false
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return nil, false
	}

	return &uid, true
}

// IsAuthenticated checks if the caller carries a valid token
func IsAuthenticated(c *gin.Context) bool {
	isAuth, exists := c.Get(ContextKeyIsAuthenticated)
	return exists && isAuth == true
}

// GetCartContext assembles the caller identity services work against:
// always a session, plus the user when authenticated
func GetCartContext(c *gin.Context) types.CartContext {
	cartCtx := types.CartContext{
		SessionID: GetSessionID(c),
	}
	if userID, ok := GetAuthenticatedUserID(c); ok {
		cartCtx.UserID = userID
	}
	return cartCtx
}
