package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ActorKey is the key used to store the authenticated subject in the context
const ActorKey = "actor"

// Auth validates an HMAC signed bearer token. The token subject becomes the
// actor recorded on audit rows and journals.
func Auth(secret, issuer string) gin.HandlerFunc {
	key := []byte(secret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header is required")
			return
		}

		scheme, tokenString, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header must be a bearer token")
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		}, opts...)
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token has expired")
			case errors.Is(err, jwt.ErrTokenNotValidYet):
				abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token is not valid yet")
			default:
				abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			}
			return
		}
		if !token.Valid || claims.Subject == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token subject is required")
			return
		}

		c.Set(ActorKey, claims.Subject)

		ctx := c.Request.Context()
		md := shared.MetadataFrom(ctx)
		md.Actor = claims.Subject
		c.Request = c.Request.WithContext(shared.WithMetadata(ctx, md))

		c.Next()
	}
}

// GetActor returns the authenticated subject, or the system actor when auth is disabled
func GetActor(c *gin.Context) string {
	if actor := c.GetString(ActorKey); actor != "" {
		return actor
	}
	return shared.SystemActor
}
