package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, userID int64, admin bool, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		UserID:  userID,
		IsAdmin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireAuth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserID(c)})
	})
	r.GET("/admin", RequireAuth(testSecret), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func get(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthValidToken(t *testing.T) {
	r := authRouter()
	token := signToken(t, testSecret, 42, false, time.Hour)

	w := get(r, "/me", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":42}`, w.Body.String())
}

func TestRequireAuthRejections(t *testing.T) {
	r := authRouter()

	cases := map[string]string{
		"no header":        "",
		"not bearer":       "Basic abc123",
		"garbage token":    "Bearer not.a.jwt",
		"wrong secret":     "Bearer " + signToken(t, []byte("other-secret"), 42, false, time.Hour),
		"expired":          "Bearer " + signToken(t, testSecret, 42, false, -time.Minute),
		"empty bearer val": "Bearer ",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := get(r, "/me", header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireAuthRejectsWrongAlg(t *testing.T) {
	r := authRouter()

	// alg=none must never be accepted.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 42})
	s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	w := get(r, "/me", "Bearer "+s)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	r := authRouter()

	user := signToken(t, testSecret, 42, false, time.Hour)
	admin := signToken(t, testSecret, 1, true, time.Hour)

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", "Bearer "+user).Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin", "Bearer "+admin).Code)
}
