package logger

import (
	"strings"
	"time"

	errorc "sucaiku/pkg/core/err"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	Logger *Log
}

// NewApiLogger creates a new middleware handler
func NewApiLogger(config Config) fiber.Handler {
	log := config.Logger.WithField("EntryName", "API")

	return func(c *fiber.Ctx) (err error) {
		url := c.OriginalURL()
		url = strings.SplitN(url, "?", 2)[0]

		// 计时变量必须在闭包内声明，并发请求各自独立
		start := time.Now()

		// Handle request, store err for logging
		err = c.Next()

		log.WithField("status", c.Response().StatusCode()).
			WithField("latency", time.Since(start).Round(time.Millisecond)).
			WithField("method", c.Method()).
			WithField("path", url).
			WithField("TraceId", c.Locals("traceId")).
			Debug("请求处理完毕")

		if err != nil {
			errc := errorc.ParseError(err)
			errc.ToLog(log.WithTrace(c.UserContext()).GetLogger())
		}

		return err
	}
}
