package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/famledger/famledger/internal/access"
	"github.com/famledger/famledger/internal/events"
	"github.com/famledger/famledger/internal/kv"
	"github.com/famledger/famledger/internal/models"
	"github.com/famledger/famledger/internal/services"
	"github.com/famledger/famledger/internal/utils"
)

type middlewareFixture struct {
	db       *gorm.DB
	auth     services.AuthService
	users    services.UserService
	resolver *access.Resolver
	secret   []byte
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	bus := events.NewBus()
	return &middlewareFixture{
		db:       db,
		auth:     services.NewAuthService(db, kv.NewMemory(), bus),
		users:    services.NewUserService(db, bus),
		resolver: access.NewResolver("admin@example.com"),
		secret:   []byte("test-secret"),
	}
}

// signup registers an account, moves it to the given status and
// returns it with a signed token.
func (f *middlewareFixture) signup(t *testing.T, email string, status models.UserStatus) (models.User, string) {
	t.Helper()
	user, err := f.auth.Signup(models.SignupRequest{Email: email, Password: "secret1"})
	require.NoError(t, err)
	if status != models.StatusPending {
		require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", status).Error)
		user.Status = status
	}
	token, err := f.auth.GenerateToken(user, f.secret)
	require.NoError(t, err)
	return user, token
}

func noContentHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddlewarePassesClaimsThrough(t *testing.T) {
	f := newMiddlewareFixture(t)
	user, token := f.signup(t, "ana@example.com", models.StatusApproved)

	var gotUserID string
	handler := AuthMiddleware(f.secret, f.auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		gotUserID = id
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, user.ID, gotUserID)
}

func TestAuthMiddlewareAcceptsQueryToken(t *testing.T) {
	f := newMiddlewareFixture(t)
	_, token := f.signup(t, "ana@example.com", models.StatusApproved)

	var hit bool
	handler := AuthMiddleware(f.secret, f.auth)(noContentHandler(&hit))

	// WebSocket upgrades cannot set an Authorization header.
	req := httptest.NewRequest("GET", "/ws?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, hit)
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	f := newMiddlewareFixture(t)
	user, _ := f.signup(t, "ana@example.com", models.StatusApproved)

	foreignToken, err := f.auth.GenerateToken(user, []byte("some-other-secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing token", header: ""},
		{name: "garbage token", header: "Bearer not-a-token"},
		{name: "wrong signing key", header: "Bearer " + foreignToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var hit bool
			handler := AuthMiddleware(f.secret, f.auth)(noContentHandler(&hit))

			req := httptest.NewRequest("GET", "/api/transactions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, hit)
		})
	}
}

func TestAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	f := newMiddlewareFixture(t)
	_, token := f.signup(t, "ana@example.com", models.StatusApproved)

	claims := &models.Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return f.secret, nil
	})
	require.NoError(t, err)
	require.NoError(t, f.auth.RevokeToken(context.Background(), claims))

	var hit bool
	handler := AuthMiddleware(f.secret, f.auth)(noContentHandler(&hit))

	req := httptest.NewRequest("GET", "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, hit)
}

func TestAccessMiddlewareGatesOnStatus(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		status   models.UserStatus
		expired  bool
		wantCode int
		wantBody string
	}{
		{name: "approved passes", email: "ana@example.com", status: models.StatusApproved, wantCode: http.StatusNoContent},
		{name: "admin passes regardless of status", email: "admin@example.com", status: models.StatusPending, wantCode: http.StatusNoContent},
		{name: "pending blocked", email: "ana@example.com", status: models.StatusPending, wantCode: http.StatusForbidden, wantBody: "Access pending"},
		{name: "rejected blocked", email: "ana@example.com", status: models.StatusRejected, wantCode: http.StatusForbidden, wantBody: "Access rejected"},
		{name: "lapsed approval blocked", email: "ana@example.com", status: models.StatusApproved, expired: true, wantCode: http.StatusForbidden, wantBody: "Access expired"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newMiddlewareFixture(t)
			user, token := f.signup(t, tc.email, tc.status)
			if tc.expired {
				past := time.Now().Add(-time.Hour)
				require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", user.ID).
					Update("access_expires_at", past).Error)
			}

			var hit bool
			handler := AuthMiddleware(f.secret, f.auth)(AccessMiddleware(f.resolver, f.users)(noContentHandler(&hit)))

			req := httptest.NewRequest("GET", "/api/transactions", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tc.wantBody)
				assert.False(t, hit)
			}
		})
	}
}

func TestAccessMiddlewareWithoutClaims(t *testing.T) {
	f := newMiddlewareFixture(t)

	var hit bool
	handler := AccessMiddleware(f.resolver, f.users)(noContentHandler(&hit))

	req := httptest.NewRequest("GET", "/api/transactions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, hit)
}

func TestAccessMiddlewareSeesStatusChangesWithoutRelogin(t *testing.T) {
	f := newMiddlewareFixture(t)
	user, token := f.signup(t, "ana@example.com", models.StatusPending)

	var hit bool
	handler := AuthMiddleware(f.secret, f.auth)(AccessMiddleware(f.resolver, f.users)(noContentHandler(&hit)))

	req := httptest.NewRequest("GET", "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Approval takes effect on the next request with the same token.
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("status", models.StatusApproved).Error)

	req = httptest.NewRequest("GET", "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, hit)
}

func TestAdminMiddlewareRestrictsToAdmin(t *testing.T) {
	f := newMiddlewareFixture(t)
	_, adminToken := f.signup(t, "admin@example.com", models.StatusPending)
	_, memberToken := f.signup(t, "ana@example.com", models.StatusApproved)

	var hit bool
	handler := AuthMiddleware(f.secret, f.auth)(AdminMiddleware(f.resolver)(noContentHandler(&hit)))

	req := httptest.NewRequest("GET", "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, hit)

	hit = false
	req = httptest.NewRequest("GET", "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+memberToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, hit)
}
