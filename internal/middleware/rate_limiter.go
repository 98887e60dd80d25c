package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/elmerfrancis1991/tienda-ropa-sub000/internal/apierror"

	"github.com/gin-gonic/gin"
)

// ventana fija por IP. Protege /auth/login de fuerza bruta; las rutas de
// operación diaria no pasan por aquí.
type cubeta struct {
	cuenta  int
	ventana time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	cubetas map[string]*cubeta
	limite  int
	periodo time.Duration
}

// RateLimit allows `limite` requests per `periodo` per client IP.
func RateLimit(limite int, periodo time.Duration) gin.HandlerFunc {
	rl := &rateLimiter{
		cubetas: make(map[string]*cubeta),
		limite:  limite,
		periodo: periodo,
	}
	return func(c *gin.Context) {
		if !rl.permitir(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("demasiadas solicitudes, intente más tarde"))
			return
		}
		c.Next()
	}
}

func (rl *rateLimiter) permitir(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	ahora := time.Now()
	b, ok := rl.cubetas[ip]
	if !ok || ahora.Sub(b.ventana) >= rl.periodo {
		rl.cubetas[ip] = &cubeta{cuenta: 1, ventana: ahora}
		return true
	}
	if b.cuenta >= rl.limite {
		return false
	}
	b.cuenta++
	return true
}
