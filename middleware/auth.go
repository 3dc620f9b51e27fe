package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/cppla/postapi/utils"
)

// ContextSubjectKey stores the authenticated token subject inside Gin context.
const ContextSubjectKey = "subject"

// AuthRequired ensures the request carries a valid HS256 bearer token signed with secret.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			utils.Error(ctx, http.StatusUnauthorized, utils.CodeUnauthorized, "missing bearer token")
			ctx.Abort()
			return
		}

		claims, err := parseToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, utils.CodeUnauthorized, "invalid token")
			ctx.Abort()
			return
		}

		sub, _ := claims.GetSubject()
		ctx.Set(ContextSubjectKey, sub)
		ctx.Next()
	}
}

func parseToken(tokenStr, secret string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
