package auth

import (
	"net"
	"net/http"
	"sync"

	"github.com/ansel1/merry"
	"golang.org/x/time/rate"

	"Sismik/internal/respond"
)

var errTooManyRequests = merry.New("rate limited").
	WithHTTPCode(http.StatusTooManyRequests).
	WithUserMessage("Too Many Requests. Try again later.")

type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*rate.Limiter),
		r:   r,
		b:   b,
	}
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}
	return limiter
}

// LimitMiddleware limits requests per client IP.
func (i *IPRateLimiter) LimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !i.getLimiter(ip).Allow() {
			respond.Error(w, errTooManyRequests.Here())
			return
		}
		next.ServeHTTP(w, r)
	})
}
