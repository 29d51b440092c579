package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMiddleware(t *testing.T, v *Verifier, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	h := v.JwtAuthMiddleware(func(c echo.Context) error {
		seen, _ = c.Get("user_id").(string)
		return c.NoContent(http.StatusNoContent)
	})
	require.NoError(t, h(c))
	return rec, seen
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	v := NewVerifier("secret")
	token, err := v.NewAccessToken("user-123", "ana@example.com", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec, userID := runMiddleware(t, v, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-123", userID)
}

func TestMiddlewareAcceptsQueryToken(t *testing.T) {
	v := NewVerifier("secret")
	token, err := v.NewAccessToken("user-123", "", time.Minute)
	require.NoError(t, err)

	rec, userID := runMiddleware(t, v, httptest.NewRequest(http.MethodGet, "/ws?access_token="+token, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-123", userID)
}

func TestMiddlewareRejects(t *testing.T) {
	v := NewVerifier("secret")
	other, err := NewVerifier("other-secret").NewAccessToken("user-1", "", time.Minute)
	require.NoError(t, err)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"missing":    "",
		"wrong key":  "Bearer " + other,
		"garbage":    "Bearer not-a-token",
		"no subject": "Bearer " + noSubject,
		"expired":    "Bearer " + expired,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec, userID := runMiddleware(t, v, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, userID)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}

	// A non-positive ttl falls back to the default lifetime.
	token, err := v.NewAccessToken("user-1", "", 0)
	require.NoError(t, err)
	_, err = v.Parse(token)
	assert.NoError(t, err)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := BearerToken(req)
	assert.ErrorIs(t, err, ErrMissingToken)

	req.Header.Set("Authorization", "Bearer abc")
	token, err := BearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}
