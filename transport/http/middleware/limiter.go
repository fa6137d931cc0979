package middleware

import (
	"net"
	"net/http"
	"roombook/shared"
	"roombook/shared/constant"
	"roombook/transport/http/response"
	"strconv"

	"github.com/rs/zerolog/log"
)

const (
	cacheKeyRateLimit = "limiter"
	headerRetryAfter  = "Retry-After"
)

// RateLimit allows MaxRequests per client and user agent in fixed windows
// counted in redis. A redis failure lets the request through.
func (a *appMiddleware) RateLimit() func(http.Handler) http.Handler {
	limit := a.config.App.RateLimiter.MaxRequests
	window := a.config.App.RateLimiter.WindowSeconds

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := shared.BuildCacheKey(cacheKeyRateLimit, a.getClientIP(r), a.getUA(r))

			count, err := a.cache.Incr(r.Context(), key, window)
			if err != nil {
				log.Warn().Err(err).Msg("rate limiter unavailable, request not counted")
				next.ServeHTTP(w, r)

				return
			}

			header := w.Header()
			header.Set(constant.RequestHeaderRateLimit, strconv.Itoa(limit))
			header.Set(constant.RequestHeaderRateLimitRemaining, strconv.FormatInt(max(0, int64(limit)-count), 10))
			header.Set(constant.RequestHeaderRateLimitWindow, strconv.Itoa(window))

			if count > int64(limit) {
				header.Set(headerRetryAfter, strconv.Itoa(window))
				response.WithRequestLimitExceeded(w)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (a *appMiddleware) getUA(r *http.Request) string {
	if ua := r.Header.Get(constant.RequestHeaderUserAgent); ua != "" {
		return ua
	}

	return "unknown"
}

// getClientIP reads RemoteAddr, which chi's RealIP middleware has already
// replaced with the forwarded client address.
func (a *appMiddleware) getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
