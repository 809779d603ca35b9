package media

import (
	internalapp "sucaiku/system/media/internal/app"
)

// Module 媒体组件模块
type Module struct {
	internalApp *internalapp.App
}

// NewModule 创建媒体组件模块
func NewModule() *Module {
	return &Module{
		internalApp: internalapp.NewApp(),
	}
}

// App 暴露应用层，供需要内联预生成的上传方使用
func (m *Module) App() *internalapp.App {
	return m.internalApp
}
