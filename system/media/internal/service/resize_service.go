package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sucaiku/pkg/core/config"
	errorc "sucaiku/pkg/core/err"
	"sucaiku/pkg/core/logger"
	"sucaiku/pkg/oss"
	"sucaiku/system/media/internal/model"
)

// Storage 存储网关契约，由pkg/oss.AliyunService实现
type Storage interface {
	GetStream(ctx context.Context, key string) (io.ReadCloser, error)
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Stat(ctx context.Context, key string) (*oss.ObjectInfo, error)
	Put(ctx context.Context, key string, data []byte, metadata map[string]string) error
	UploadFile(ctx context.Context, key string, reader io.Reader) error
	Delete(ctx context.Context, key string) error
}

// ResizeService 变体缓存填充引擎。
// 单次请求内的顺序固定：校验 → 原图元数据 → 查缓存 → （取原图 → 钳制宽度 →
// 缩放编码）→ 响应 → 异步回写缓存。并发的相同请求可能各自生成一次，
// 缓存写入幂等，以最终收敛为准，不加互斥。
type ResizeService struct {
	storage Storage
	policy  *PolicyService
	img     ImageProcessor
	cfg     *config.MediaConfig
	log     *logger.Log
	err     *errorc.ErrorBuilder
}

// NewResizeService 创建变体缓存填充引擎实例
func NewResizeService(storage Storage, policy *PolicyService, img ImageProcessor, cfg *config.MediaConfig, log *logger.Log) *ResizeService {
	return &ResizeService{
		storage: storage,
		policy:  policy,
		img:     img,
		cfg:     cfg,
		log:     log.WithEntryName("ResizeService"),
		err:     errorc.NewErrorBuilder("ResizeService"),
	}
}

// Upload 上传原始文件。
// 可缩放的图片在上传后按配置的固定宽度内联预生成变体；
// 预生成失败不影响上传结果。
func (s *ResizeService) Upload(ctx context.Context, key string, body []byte) error {
	if err := s.storage.UploadFile(ctx, key, bytes.NewReader(body)); err != nil {
		return err
	}

	if s.policy.IsResizable(key) && len(s.cfg.PreGenerateWidths) > 0 {
		s.PreGenerateInline(ctx, key, body, nil)
	}
	return nil
}

// GetFile 读取原始文件，支持If-None-Match条件请求
func (s *ResizeService) GetFile(ctx context.Context, key string, ifNoneMatch string) (*model.ResizeResult, error) {
	info, err := s.storage.Stat(ctx, key)
	if err != nil {
		return nil, err
	}

	etag := s.policy.MetaETag(key, info.LastModified, info.Size)
	mime := s.policy.MimeTypeForKey(key)

	if ifNoneMatch != "" && ifNoneMatch == etag {
		return &model.ResizeResult{NotModified: true, MimeType: mime, ETag: etag}, nil
	}

	data, err := s.storage.GetBytes(ctx, key)
	if err != nil {
		return nil, err
	}

	return &model.ResizeResult{Data: data, MimeType: mime, ETag: etag}, nil
}

// GetResizedImage 获取指定宽度的图片变体（缓冲模式）。
// 缓存命中时直接返回缓存内容；未命中时取原图生成，响应后异步回写缓存。
func (s *ResizeService) GetResizedImage(ctx context.Context, key string, width int, ifNoneMatch string, format model.OutputFormat) (*model.ResizeResult, error) {
	if err := s.policy.ValidateResizable(key); err != nil {
		return nil, err
	}
	if err := s.policy.ValidateResizeWidth(width); err != nil {
		return nil, err
	}

	orig, err := s.storage.Stat(ctx, key)
	if err != nil {
		return nil, err
	}
	if orig.Size > s.policy.MaxOriginalSize() {
		return nil, s.err.New(fmt.Sprintf("原图大小%d超出实时缩放上限%d字节", orig.Size, s.policy.MaxOriginalSize()), nil).LimitExceeded()
	}

	outExt := s.policy.OutputExtension(key, format)
	variantKey := s.policy.BuildVariantKey(key, width, outExt)
	mime := s.policy.MimeType(outExt)

	// 查缓存
	if vinfo, err := s.storage.Stat(ctx, variantKey); err == nil {
		etag := s.policy.MetaETag(variantKey, vinfo.LastModified, vinfo.Size)
		s.notifyCacheHit(key, variantKey)

		if ifNoneMatch != "" && ifNoneMatch == etag {
			return &model.ResizeResult{NotModified: true, MimeType: mime, ETag: etag}, nil
		}

		data, err := s.storage.GetBytes(ctx, variantKey)
		if err != nil {
			return nil, err
		}
		return &model.ResizeResult{Data: data, MimeType: mime, ETag: etag}, nil
	}

	// 缓存未命中，取原图生成
	data, err := s.storage.GetBytes(ctx, key)
	if err != nil {
		return nil, err
	}

	target := s.clampWidth(width, data, 0)
	out, err := s.img.Resize(data, target, format)
	if err != nil {
		return nil, err
	}

	etag := s.policy.ContentETag(out)
	s.notifyGenerated(key, variantKey, target, int64(len(out)))

	if ifNoneMatch != "" && ifNoneMatch == etag {
		// 客户端已有同样内容，省掉一次多余的缓存写入
		return &model.ResizeResult{NotModified: true, MimeType: mime, ETag: etag}, nil
	}

	s.cacheVariantAsync(ctx, key, variantKey, target, out)

	return &model.ResizeResult{Data: out, MimeType: mime, ETag: etag}, nil
}

// GetResizedImageStream 流式缩放。
// 不查也不写缓存，每次都从原图流式重新生成；
// ETag由请求参数加原图元数据推导，与缓冲模式的内容ETag口径不同。
func (s *ResizeService) GetResizedImageStream(ctx context.Context, key string, width int, ifNoneMatch string, format model.OutputFormat) (*model.StreamResult, error) {
	if err := s.policy.ValidateResizable(key); err != nil {
		return nil, err
	}
	if err := s.policy.ValidateResizeWidth(width); err != nil {
		return nil, err
	}

	orig, err := s.storage.Stat(ctx, key)
	if err != nil {
		return nil, err
	}
	if orig.Size > s.policy.MaxOriginalSize() {
		return nil, s.err.New(fmt.Sprintf("原图大小%d超出实时缩放上限%d字节", orig.Size, s.policy.MaxOriginalSize()), nil).LimitExceeded()
	}

	outExt := s.policy.OutputExtension(key, format)
	mime := s.policy.MimeType(outExt)
	etag := s.policy.StreamETag(key, width, format, orig.LastModified, orig.Size)

	if ifNoneMatch != "" && ifNoneMatch == etag {
		return &model.StreamResult{NotModified: true, MimeType: mime, ETag: etag, LastModified: orig.LastModified}, nil
	}

	rc, err := s.storage.GetStream(ctx, key)
	if err != nil {
		return nil, err
	}

	body := s.img.Transform(rc, width, format, s.policy.AutoPreventUpscale())

	return &model.StreamResult{
		Body:         &chainedCloser{ReadCloser: body, source: rc},
		MimeType:     mime,
		ETag:         etag,
		LastModified: orig.LastModified,
	}, nil
}

// NegotiateFormat 按Accept头协商输出格式。
// 协商关闭或头缺失/不可解析时返回配置的默认格式；
// 否则在客户端接受且配置允许的格式里按 avif > webp > jpeg > original 取最高优先级。
func (s *ResizeService) NegotiateFormat(accept string) model.OutputFormat {
	preferred := s.preferredFormat()
	if !s.cfg.ContentNegotiation {
		return preferred
	}

	accept = strings.ToLower(strings.TrimSpace(accept))
	if accept == "" {
		return preferred
	}

	tokens := make(map[string]bool)
	for _, part := range strings.Split(accept, ",") {
		token := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if token != "" {
			tokens[token] = true
		}
	}
	if len(tokens) == 0 {
		return preferred
	}

	accepts := func(mime string) bool {
		return tokens[mime] || tokens["image/*"] || tokens["*/*"]
	}

	if s.cfg.AllowAVIF && accepts("image/avif") {
		return model.FormatAVIF
	}
	if s.cfg.AllowWebP && accepts("image/webp") {
		return model.FormatWebP
	}
	if accepts("image/jpeg") {
		return model.FormatJPEG
	}
	return model.FormatOriginal
}

// GenerateVariant 单尺寸生成原语，批量与预生成路径共用。
// 与交互路径同样做限额与宽度钳制，但从不查缓存（调用方就是要全量重建）。
// skipUpload为true时只生成不上传。
func (s *ResizeService) GenerateVariant(ctx context.Context, key string, original []byte, width int, knownOriginalWidth int, skipUpload bool) (string, []byte, error) {
	if err := s.policy.ValidateResizable(key); err != nil {
		return "", nil, err
	}
	if err := s.policy.ValidateResizeWidth(width); err != nil {
		return "", nil, err
	}
	if int64(len(original)) > s.policy.MaxOriginalSize() {
		return "", nil, s.err.New(fmt.Sprintf("原图大小%d超出实时缩放上限%d字节", len(original), s.policy.MaxOriginalSize()), nil).LimitExceeded()
	}

	format := s.preferredFormat()
	variantKey := s.policy.BuildVariantKey(key, width, s.policy.OutputExtension(key, format))

	target := s.clampWidth(width, original, knownOriginalWidth)
	out, err := s.img.Resize(original, target, format)
	if err != nil {
		return "", nil, err
	}

	if !skipUpload {
		meta := map[string]string{"origin": key, "width": strconv.Itoa(target)}
		if err := s.storage.Put(ctx, variantKey, out, meta); err != nil {
			return "", nil, err
		}
	}

	s.notifyGenerated(key, variantKey, target, int64(len(out)))
	return variantKey, out, nil
}

// PreGenerateInline 按固定宽度集合预生成变体，单个尺寸失败不影响其余尺寸。
// widths为空时使用配置的预生成集合。
func (s *ResizeService) PreGenerateInline(ctx context.Context, key string, original []byte, widths []int) {
	if len(widths) == 0 {
		widths = s.cfg.PreGenerateWidths
	}

	knownWidth := 0
	if w, err := s.img.ProbeWidth(original); err == nil {
		knownWidth = w
	}

	for _, width := range widths {
		if _, _, err := s.GenerateVariant(ctx, key, original, width, knownWidth, false); err != nil {
			s.log.WithTrace(ctx).
				WithField("key", key).
				WithField("width", width).
				WithErr(err).
				Warn("预生成变体失败")
		}
	}
}

// BatchResize 批量缩放。失败按(文件,宽度)粒度隔离：
// 一个文件不可缩放或加载失败时，它的每个宽度各记一条失败结果，不中断整批。
func (s *ResizeService) BatchResize(ctx context.Context, items []model.BatchResizeItem) []model.BatchResizeResult {
	results := make([]model.BatchResizeResult, 0)

	for _, item := range items {
		if err := s.policy.ValidateResizable(item.Key); err != nil {
			results = append(results, failAllWidths(item, err)...)
			continue
		}

		data, err := s.storage.GetBytes(ctx, item.Key)
		if err != nil {
			results = append(results, failAllWidths(item, err)...)
			continue
		}

		knownWidth := 0
		if w, err := s.img.ProbeWidth(data); err == nil {
			knownWidth = w
		}

		for _, width := range item.Widths {
			variantKey, _, err := s.GenerateVariant(ctx, item.Key, data, width, knownWidth, false)
			if err != nil {
				results = append(results, model.BatchResizeResult{
					Key: item.Key, Width: width, Error: errText(err),
				})
				continue
			}
			results = append(results, model.BatchResizeResult{
				Key: item.Key, Width: width, VariantKey: variantKey, Success: true,
			})
		}
	}

	return results
}

// cacheVariantAsync 生成后的缓存回写：不阻塞响应，失败只记日志。
// 缓存只是优化，不影响已经确定的响应正确性，调用方取消也不中断写入。
func (s *ResizeService) cacheVariantAsync(ctx context.Context, key, variantKey string, width int, data []byte) {
	wctx := context.WithoutCancel(ctx)
	go func() {
		meta := map[string]string{"origin": key, "width": strconv.Itoa(width)}
		if err := s.storage.Put(wctx, variantKey, data, meta); err != nil {
			s.log.WithTrace(wctx).
				WithField("variantKey", variantKey).
				WithErr(err).
				Error("变体缓存写入失败")
		}
	}()
}

// clampWidth 开启防放大时把目标宽度钳制到原图像素宽度
func (s *ResizeService) clampWidth(requested int, original []byte, knownWidth int) int {
	if !s.policy.AutoPreventUpscale() {
		return requested
	}

	width := knownWidth
	if width <= 0 {
		w, err := s.img.ProbeWidth(original)
		if err != nil {
			return requested
		}
		width = w
	}

	if width < requested {
		return width
	}
	return requested
}

func (s *ResizeService) preferredFormat() model.OutputFormat {
	format, ok := model.ParseOutputFormat(strings.ToLower(s.cfg.PreferredFormat))
	if !ok {
		return model.FormatOriginal
	}
	return format
}

func (s *ResizeService) notifyCacheHit(key, variantKey string) {
	if s.cfg.OnCacheHit != nil {
		s.cfg.OnCacheHit(key, variantKey)
	}
}

func (s *ResizeService) notifyGenerated(key, variantKey string, width int, size int64) {
	if s.cfg.OnVariantGenerated != nil {
		s.cfg.OnVariantGenerated(key, variantKey, width, size)
	}
}

func failAllWidths(item model.BatchResizeItem, err error) []model.BatchResizeResult {
	results := make([]model.BatchResizeResult, 0, len(item.Widths))
	for _, width := range item.Widths {
		results = append(results, model.BatchResizeResult{
			Key: item.Key, Width: width, Error: errText(err),
		})
	}
	return results
}

func errText(err error) string {
	var e *errorc.Error
	if errors.As(err, &e) {
		return e.RootCause()
	}
	return err.Error()
}

// chainedCloser 在关闭变换流的同时关闭来源流
type chainedCloser struct {
	io.ReadCloser
	source io.Closer
}

func (c *chainedCloser) Close() error {
	serr := c.source.Close()
	if err := c.ReadCloser.Close(); err != nil {
		return err
	}
	return serr
}
