package logger

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestNewApiLogger(t *testing.T) {
	app := fiber.New()
	app.Use(NewApiLogger(Config{Logger: GetLogger()}))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping?x=1", nil))
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

// 计时状态不能在并发请求间共享，配合-race验证
func TestNewApiLogger_ConcurrentRequests(t *testing.T) {
	app := fiber.New()
	app.Use(NewApiLogger(Config{Logger: GetLogger()}))
	app.Get("/ping", func(c *fiber.Ctx) error {
		time.Sleep(5 * time.Millisecond)
		return c.SendString("ok")
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil), 2000)
			assert.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		}()
	}
	wg.Wait()
}
