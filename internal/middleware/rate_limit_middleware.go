package middleware

import (
	"net/http"
	"strconv"
	"time"

	"happyshaa/internal/utils"
	"happyshaa/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limits requests per user, or per client IP before
// authentication. rate uses the limiter format, e.g. "30-M". A nil store
// means an in-process memory store.
func RateLimit(rate string, store limiter.Store, log *logger.Logger) (gin.HandlerFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	if store == nil {
		store = memory.NewStore()
	}
	lim := limiter.New(store, r)

	return func(c *gin.Context) {
		key := c.GetString("user_id")
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		ctx, err := lim.Get(c.Request.Context(), c.FullPath()+"|"+key)
		if err != nil {
			// the limiter store is down; let the request through
			log.WithError(err).Warn("Rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(ctx.Reset, 10))

		if ctx.Reached {
			retry := time.Until(time.Unix(ctx.Reset, 0))
			if retry < time.Second {
				retry = time.Second
			}
			c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())))
			utils.ErrorResponse(c, http.StatusTooManyRequests, utils.CodeRateLimited, utils.ErrRateLimited)
			return
		}

		c.Next()
	}, nil
}
