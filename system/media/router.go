package media

import (
	controller "sucaiku/system/media/external/http"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册媒体组件的所有 HTTP 路由
func RegisterRoutes(m *Module, api, admin fiber.Router) {
	// 对外接口（文件读取、实时缩放、签名链接）
	apiController := controller.NewMediaAPIController(m.internalApp)
	apiController.RegisterRoutes(api)

	// 后台管理接口（批量缩放、删除）
	adminController := controller.NewMediaAdminController(m.internalApp)
	adminController.RegisterRoutes(admin)
}
