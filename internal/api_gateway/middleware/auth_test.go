package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()

	valid := jwt.RegisteredClaims{
		Subject:   "clerk@example.com",
		Issuer:    "crop-trade-ledger",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	notYet := valid
	notYet.NotBefore = jwt.NewNumericDate(now.Add(time.Hour))
	noSubject := valid
	noSubject.Subject = ""
	otherIssuer := valid
	otherIssuer.Issuer = "someone-else"

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantActor  string
	}{
		{name: "ValidToken", header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), valid), wantStatus: http.StatusOK, wantActor: "clerk@example.com"},
		{name: "MissingHeader", wantStatus: http.StatusUnauthorized},
		{name: "WrongScheme", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized},
		{name: "WrongSecret", header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), valid), wantStatus: http.StatusUnauthorized},
		{name: "Expired", header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired), wantStatus: http.StatusUnauthorized},
		{name: "NotValidYet", header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), notYet), wantStatus: http.StatusUnauthorized},
		{name: "MissingSubject", header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject), wantStatus: http.StatusUnauthorized},
		{name: "WrongIssuer", header: "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), otherIssuer), wantStatus: http.StatusUnauthorized},
		{name: "UnsignedToken", header: "Bearer " + signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid), wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CorrelationID())
			router.Use(Auth(testSecret, "crop-trade-ledger"))

			var actor, mdActor string
			router.GET("/test", func(c *gin.Context) {
				actor = GetActor(c)
				mdActor = shared.MetadataFrom(c.Request.Context()).Actor
				c.Status(http.StatusOK)
			})

			req, _ := http.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantActor, actor)
				assert.Equal(t, tt.wantActor, mdActor)
			} else {
				assert.Contains(t, rr.Body.String(), `"code":"UNAUTHORIZED"`)
				assert.Contains(t, rr.Body.String(), `"correlation_id":`)
			}
		})
	}
}

func TestGetActor(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, shared.SystemActor, GetActor(c))

	c.Set(ActorKey, "alice")
	assert.Equal(t, "alice", GetActor(c))
}
