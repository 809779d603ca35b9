package router

import (
	"sucaiku/app"
	"sucaiku/base"
	"sucaiku/pkg/core/logger"
	"sucaiku/system/media"

	"github.com/gofiber/fiber/v2"
)

// Register 负责集中注册所有 HTTP 路由。
// 按规范：
//   - 只依赖 app.App（业务编排入口）和 fiber.App（HTTP Server）。
//   - 不直接依赖任何 Service / system/internal 包。
//   - 不包含业务逻辑，只做分组与路由绑定。
func Register(a *app.App, f *fiber.App) {
	// 公共 API 分组，带访问日志
	api := f.Group("/api", logger.NewApiLogger(logger.Config{Logger: base.Logger}))

	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"msg": "ok"})
	})

	// 后台管理路由分组
	admin := f.Group("/admin", logger.NewApiLogger(logger.Config{Logger: base.Logger}))

	// 注册媒体组件路由
	media.RegisterRoutes(a.MediaModule, api, admin)
}
