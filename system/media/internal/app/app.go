package app

import (
	"context"
	"time"

	"sucaiku/base"
	errorc "sucaiku/pkg/core/err"
	"sucaiku/pkg/core/logger"
	"sucaiku/pkg/oss"
	"sucaiku/system/media/internal/model"
	"sucaiku/system/media/internal/service"
)

// App 媒体组件应用层
type App struct {
	PolicyService *service.PolicyService
	ResizeService *service.ResizeService

	storage *oss.AliyunService
	log     *logger.Log
	err     *errorc.ErrorBuilder
}

// NewApp 创建媒体组件应用层实例
func NewApp() *App {
	log := logger.GetLogger().WithEntryName("MediaApp")

	cfg := &base.Configures.Config.Media

	policySvc := service.NewPolicyService(cfg)
	processor := service.NewImageProcessor()
	resizeSvc := service.NewResizeService(base.OSS, policySvc, processor, cfg, log)

	return &App{
		PolicyService: policySvc,
		ResizeService: resizeSvc,
		storage:       base.OSS,
		log:           log,
		err:           errorc.NewErrorBuilder("MediaApp"),
	}
}

// Upload 上传原始文件；可缩放图片按配置宽度内联预生成变体
func (a *App) Upload(ctx context.Context, key string, body []byte) error {
	return a.ResizeService.Upload(ctx, key, body)
}

// GetFile 获取原始文件
func (a *App) GetFile(ctx context.Context, key string, ifNoneMatch string) (*model.ResizeResult, error) {
	return a.ResizeService.GetFile(ctx, key, ifNoneMatch)
}

// GetResizedImage 获取缩放变体（缓冲模式，带缓存）。
// explicit非空时以调用方指定的格式为准，否则按Accept头协商。
func (a *App) GetResizedImage(ctx context.Context, key string, width int, ifNoneMatch, accept, explicit string) (*model.ResizeResult, error) {
	return a.ResizeService.GetResizedImage(ctx, key, width, ifNoneMatch, a.resolveFormat(accept, explicit))
}

// GetResizedImageStream 获取缩放变体（流式模式，不缓存）
func (a *App) GetResizedImageStream(ctx context.Context, key string, width int, ifNoneMatch, accept, explicit string) (*model.StreamResult, error) {
	return a.ResizeService.GetResizedImageStream(ctx, key, width, ifNoneMatch, a.resolveFormat(accept, explicit))
}

func (a *App) resolveFormat(accept, explicit string) model.OutputFormat {
	if explicit != "" {
		if format, ok := model.ParseOutputFormat(explicit); ok {
			return format
		}
	}
	return a.ResizeService.NegotiateFormat(accept)
}

// GetPreviewUrl 获取预览签名链接
func (a *App) GetPreviewUrl(ctx context.Context, key string, expires time.Duration) (string, error) {
	return a.storage.GetPreviewUrl(ctx, key, expires)
}

// GetDownloadUrl 获取下载签名链接
func (a *App) GetDownloadUrl(ctx context.Context, key string, filename string, expires time.Duration) (string, error) {
	return a.storage.GetDownloadUrl(ctx, key, filename, expires)
}

// BatchResize 批量生成变体
func (a *App) BatchResize(ctx context.Context, items []model.BatchResizeItem) []model.BatchResizeResult {
	return a.ResizeService.BatchResize(ctx, items)
}

// DeleteFile 删除原始文件，并尽力清理预生成宽度对应的变体。
// 变体清理失败不算删除失败，留给对象存储生命周期规则兜底。
func (a *App) DeleteFile(ctx context.Context, key string) error {
	if err := a.storage.Delete(ctx, key); err != nil {
		return err
	}

	if !a.PolicyService.IsResizable(key) {
		return nil
	}
	for _, width := range base.Configures.Config.Media.PreGenerateWidths {
		variantKey := a.PolicyService.BuildVariantKey(key, width, a.PolicyService.OutputExtension(key, model.FormatOriginal))
		if err := a.storage.Delete(ctx, variantKey); err != nil {
			a.log.WithTrace(ctx).WithField("variantKey", variantKey).WithErr(err).Warn("清理变体失败")
		}
	}
	return nil
}
