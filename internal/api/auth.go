package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Prashanth1609/studyhub/internal/logging"
	"github.com/Prashanth1609/studyhub/internal/studyhub"
)

type Claims struct {
	UserID   string            `json:"user_id"`
	Username string            `json:"username"`
	Role     studyhub.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor is the workflow caller the claims stand for.
func (c *Claims) Actor() studyhub.Actor {
	return studyhub.Actor{UserID: c.UserID, Role: c.Role}
}

type claimsKey struct{}

func withClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// claimsFrom returns the claims authMiddleware stored. Only protected
// handlers may call it.
func claimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}

const (
	stateCookie   = "oauth_state"
	stateLifetime = 10 * time.Minute
)

// Auth handlers
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	state := generateRandomString(32)
	url := a.oauthConfig.AuthCodeURL(state)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int(stateLifetime.Seconds()),
		HttpOnly: true,
		Secure:   strings.HasPrefix(a.config.DiscordRedirectURI, "https://"),
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"auth_url": url,
		"state":    state,
	})
}

// authenticateUser exchanges the OAuth code, records the Discord user and
// mints a session token for them.
func (a *API) authenticateUser(ctx context.Context, code string) (string, *studyhub.User, error) {
	token, err := a.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("token exchange failed: %w", err)
	}

	du, err := a.getDiscordUser(ctx, a.oauthConfig.Client(ctx, token))
	if err != nil {
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}

	user, err := a.svc.RegisterUser(ctx, du.ID, getUsername(du), du.Email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to register user: %w", err)
	}

	tokenString, err := a.issueToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create token: %w", err)
	}
	return tokenString, user, nil
}

func (a *API) issueToken(u *studyhub.User) (string, error) {
	ttl := a.config.JWTTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := a.now()
	claims := &Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

func (a *API) handleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid oauth state"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/api/auth", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing code"))
		return
	}

	tokenString, user, err := a.authenticateUser(r.Context(), code)
	if err != nil {
		l := logging.Ctx(r.Context())
		l.Warn().Err(err).Msg("login failed")
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": tokenString,
		"user":  user,
	})
}

func (a *API) handleOAuthDisabled(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusServiceUnavailable, errorBody("discord login is not configured"))
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "logged out",
	})
}

// Middleware
func (a *API) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody("missing authorization header"))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			writeJSON(w, http.StatusUnauthorized, errorBody("invalid authorization header"))
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return a.jwtSecret, nil
		}, jwt.WithTimeFunc(a.now))

		if err != nil || !token.Valid || claims.UserID == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody("invalid token"))
			return
		}

		ctx := withClaims(r.Context(), claims)
		l := logging.Ctx(ctx)
		ctx = logging.WithLogger(ctx, l.With().Str(logging.FieldUserID, claims.UserID).Logger())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
