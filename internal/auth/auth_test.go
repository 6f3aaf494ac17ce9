package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		err    bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer  abc ", "abc", false},
		{"Basic abc", "", true},
		{"Bearer ", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if (err != nil) != tt.err {
			t.Errorf("BearerToken(%q) error = %v", tt.header, err)
		}
		if got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestJWTVerifier(t *testing.T) {
	v := NewJWTVerifier("secret")
	ctx := context.Background()

	token, err := v.Sign(Identity{UID: "u1", Email: "u1@club.test", EmailVerified: true}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(ctx, token)
	require.NoError(t, err)
	require.Equal(t, &Identity{UID: "u1", Email: "u1@club.test", EmailVerified: true}, id)

	_, err = NewJWTVerifier("other").Verify(ctx, token)
	require.True(t, errors.Is(err, ErrInvalidToken))

	expired, err := v.Sign(Identity{UID: "u1"}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, expired)
	require.True(t, errors.Is(err, ErrInvalidToken))

	// Subject is used when the uid claim is absent
	bare, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u2"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	id, err = v.Verify(ctx, bare)
	require.NoError(t, err)
	require.Equal(t, "u2", id.UID)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u3"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(ctx, none)
	require.True(t, errors.Is(err, ErrInvalidToken))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := NewJWTVerifier("secret")

	engine := gin.New()
	engine.Use(Middleware(v))
	engine.GET("/whoami", func(c *gin.Context) {
		id, ok := FromContext(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.UID)
	})

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	w := do("")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "anonymous", w.Body.String())

	token, err := v.Sign(Identity{UID: "u1"}, time.Hour)
	require.NoError(t, err)
	w = do("Bearer " + token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "u1", w.Body.String())

	w = do("Bearer garbage")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
