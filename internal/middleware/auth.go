package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/apierror"
	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const claimsKey = "identidad"

// JWTAuth validates the Bearer token and stores the actor's Identidad in the
// request context. Refresh tokens are rejected here — only access tokens pass.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("token requerido"))
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("método de firma inesperado")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("token inválido o expirado"))
			return
		}
		if tipo, _ := claims["tipo"].(string); tipo != "access" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("token inválido o expirado"))
			return
		}

		sub, _ := claims["sub"].(string)
		negocio, _ := claims["negocio_id"].(string)
		rol, _ := claims["rol"].(string)

		usuarioID, err := uuid.Parse(sub)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("token inválido o expirado"))
			return
		}
		negocioID, err := uuid.Parse(negocio)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("token inválido o expirado"))
			return
		}

		c.Set(claimsKey, service.Identidad{UsuarioID: usuarioID, NegocioID: negocioID, Rol: rol})
		c.Next()
	}
}

// RequireRole gates a route group to the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := GetIdentidad(c)
		for _, r := range roles {
			if ident.Rol == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("permisos insuficientes"))
	}
}

// GetIdentidad returns the actor stored by JWTAuth. Zero value if the route is
// not behind the middleware (never the case for /v1 routes).
func GetIdentidad(c *gin.Context) service.Identidad {
	v, ok := c.Get(claimsKey)
	if !ok {
		return service.Identidad{}
	}
	ident, _ := v.(service.Identidad)
	return ident
}
