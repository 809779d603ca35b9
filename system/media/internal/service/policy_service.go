package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"sucaiku/pkg/core/config"
	errorc "sucaiku/pkg/core/err"
	"sucaiku/system/media/internal/model"
)

// 可缩放的图片格式，resizableExts是imageExts的真子集：
// svg/ico/avif/heic是图片但不支持像素级缩放。
var resizableExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
	".svg": true, ".ico": true, ".avif": true, ".heic": true, ".heif": true,
}

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".heic": "image/heic",
	".heif": "image/heif",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".txt":  "text/plain; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",
	".csv":  "text/csv; charset=utf-8",
	".json": "application/json",
	".xml":  "application/xml",
	".zip":  "application/zip",
}

// PolicyService 文件分类、命名与限额策略，全部为无副作用的纯函数
type PolicyService struct {
	cfg *config.MediaConfig
	err *errorc.ErrorBuilder
}

// NewPolicyService 创建策略服务实例
func NewPolicyService(cfg *config.MediaConfig) *PolicyService {
	return &PolicyService{
		cfg: cfg,
		err: errorc.NewErrorBuilder("MediaPolicyService"),
	}
}

// IsImage 按扩展名判断是否为图片
func (s *PolicyService) IsImage(key string) bool {
	return imageExts[normalizeExt(path.Ext(key))]
}

// IsResizable 按扩展名判断图片是否可缩放
func (s *PolicyService) IsResizable(key string) bool {
	return resizableExts[normalizeExt(path.Ext(key))]
}

// MimeType 按扩展名查MIME类型，未知扩展名返回octet-stream
func (s *PolicyService) MimeType(ext string) string {
	if m, ok := mimeTypes[normalizeExt(ext)]; ok {
		return m
	}
	return "application/octet-stream"
}

// MimeTypeForKey 按文件名查MIME类型
func (s *PolicyService) MimeTypeForKey(key string) string {
	return s.MimeType(path.Ext(key))
}

// BuildVariantKey 计算变体对象键：目录保持不变，
// 文件名追加-{width}后缀，扩展名替换为输出格式的扩展名。
// 同样的(原始键,宽度,扩展名)永远得到同一个变体键。
func (s *PolicyService) BuildVariantKey(originalKey string, width int, outputExt string) string {
	dir := path.Dir(originalKey)
	base := strings.TrimSuffix(path.Base(originalKey), path.Ext(originalKey))

	name := fmt.Sprintf("%s-%d%s", base, width, outputExt)
	if dir == "." || dir == "/" {
		return name
	}
	return dir + "/" + name
}

// OutputExtension 返回(文件,格式)对应的变体扩展名
func (s *PolicyService) OutputExtension(key string, format model.OutputFormat) string {
	return format.Extension(normalizeExt(path.Ext(key)))
}

// ValidateResizable 校验文件是否允许缩放。
// 非图片与不可缩放的图片格式返回不同的错误种类，供上层区分提示。
func (s *PolicyService) ValidateResizable(key string) error {
	if s.IsResizable(key) {
		return nil
	}
	if s.IsImage(key) {
		return s.err.New(fmt.Sprintf("图片格式%s不支持缩放", path.Ext(key)), nil).UnsupportedOp()
	}
	return s.err.New("该文件不是图片，无法缩放", nil).WrongMediaType()
}

// ValidateResizeWidth 校验请求的宽度是否超出配置上限
func (s *PolicyService) ValidateResizeWidth(width int) error {
	if width <= 0 {
		return s.err.New("缩放宽度必须大于0", nil).ValidWithCtx()
	}
	if max := s.cfg.GetMaxResizeWidth(); width > max {
		return s.err.New(fmt.Sprintf("缩放宽度%d超出上限%d", width, max), nil).LimitExceeded()
	}
	return nil
}

// MetaETag 由对象元数据推导ETag，用于不读取内容的新鲜度判断
func (s *PolicyService) MetaETag(key string, lastModified time.Time, size int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", key, lastModified.UnixMilli(), size)))
	return quoteETag(sum[:])
}

// ContentETag 由内容字节推导ETag，用于尚未落缓存的新生成变体
func (s *PolicyService) ContentETag(data []byte) string {
	sum := sha256.Sum256(data)
	return quoteETag(sum[:])
}

// StreamETag 流式缩放的ETag：由请求参数加原图元数据推导。
// 与缓冲模式的内容ETag口径不同，属于既有行为，不做统一。
func (s *PolicyService) StreamETag(key string, width int, format model.OutputFormat, lastModified time.Time, size int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s|%d|%d", key, width, format, lastModified.UnixMilli(), size)))
	return quoteETag(sum[:])
}

// AutoPreventUpscale 是否禁止放大到超过原图宽度
func (s *PolicyService) AutoPreventUpscale() bool {
	return s.cfg.GetAutoPreventUpscale()
}

// MaxResizeWidth 缩放宽度上限
func (s *PolicyService) MaxResizeWidth() int {
	return s.cfg.GetMaxResizeWidth()
}

// MaxOriginalSize 允许实时缩放的原图大小上限
func (s *PolicyService) MaxOriginalSize() int64 {
	return s.cfg.GetMaxOriginalSize()
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func quoteETag(sum []byte) string {
	return `"` + hex.EncodeToString(sum) + `"`
}
