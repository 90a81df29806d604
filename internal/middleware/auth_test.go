package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authgate/internal/utils"
	"github.com/gin-gonic/gin"
)

func testCodec() *utils.TokenCodec {
	return utils.NewTokenCodec("access-mw-secret", "refresh-mw-secret", 5*time.Minute, 30*time.Minute)
}

func protectedRouter(codec *utils.TokenCodec) *gin.Engine {
	router := gin.New()
	router.Use(AuthRequired(codec))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"user_id": GetUserID(c),
			"email":   GetEmail(c),
			"role":    GetRole(c),
		})
	})
	return router
}

func getWithAuth(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired_NoHeader(t *testing.T) {
	router := protectedRouter(testCodec())

	if w := getWithAuth(router, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401", w.Code)
	}
}

func TestAuthRequired_InvalidFormat(t *testing.T) {
	router := protectedRouter(testCodec())

	testCases := []string{
		"InvalidToken",
		"Basic token123",
		"Bearer",
	}

	for _, authHeader := range testCases {
		if w := getWithAuth(router, authHeader); w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, expected 401", authHeader, w.Code)
		}
	}
}

func TestAuthRequired_InvalidToken(t *testing.T) {
	router := protectedRouter(testCodec())

	if w := getWithAuth(router, "Bearer invalid.jwt.token"); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401", w.Code)
	}
}

func TestAuthRequired_ExpiredToken(t *testing.T) {
	codec := testCodec()
	expiredCodec := utils.NewTokenCodec("access-mw-secret", "refresh-mw-secret", -time.Minute, 30*time.Minute)
	token, _ := expiredCodec.IssueAccess("u1", "a@x.com", "user")

	router := protectedRouter(codec)
	if w := getWithAuth(router, "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, expected 401 for expired token", w.Code)
	}
}

func TestAuthRequired_RefreshTokenRejected(t *testing.T) {
	codec := testCodec()
	refresh, _ := codec.IssueRefresh("u1", "a@x.com", "user")

	router := protectedRouter(codec)
	if w := getWithAuth(router, "Bearer "+refresh); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, a refresh token must not pass access verification", w.Code)
	}
}

func TestAuthRequired_ValidToken(t *testing.T) {
	codec := testCodec()
	token, _ := codec.IssueAccess("u42", "a@x.com", "admin")

	router := protectedRouter(codec)
	w := getWithAuth(router, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", w.Code)
	}
}

func TestAdminRequired(t *testing.T) {
	codec := testCodec()
	router := gin.New()
	router.Use(AuthRequired(codec), AdminRequired())
	router.GET("/admin", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	userToken, _ := codec.IssueAccess("u1", "a@x.com", "user")
	adminToken, _ := codec.IssueAccess("u2", "b@x.com", "admin")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("user role: status = %d, expected 403", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("admin role: status = %d, expected 200", w.Code)
	}
}
