package app

import (
	"sucaiku/pkg/core/start"
	"sucaiku/system/media"

	"github.com/gofiber/fiber/v2"
)

// App 应用组合根
type App struct {
	MediaModule *media.Module
}

// NewApp 创建应用组合根，按依赖顺序初始化各业务模块
func NewApp() *App {
	return &App{
		MediaModule: media.NewModule(),
	}
}

// GetApp 创建 Fiber 应用
func GetApp() *fiber.App {
	return start.GetApp()
}
