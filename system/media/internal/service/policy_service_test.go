package service

import (
	"strings"
	"testing"
	"time"

	"sucaiku/pkg/core/config"
	errorc "sucaiku/pkg/core/err"
	"sucaiku/system/media/internal/model"

	"github.com/stretchr/testify/assert"
)

func newTestPolicy() *PolicyService {
	return NewPolicyService(&config.MediaConfig{})
}

func TestPolicyService_BuildVariantKey(t *testing.T) {
	policy := newTestPolicy()

	// 目录保留，文件名追加宽度后缀
	assert.Equal(t, "uploads/2024/photo-200.jpg", policy.BuildVariantKey("uploads/2024/photo.jpg", 200, ".jpg"))

	// 根目录文件不带目录前缀
	assert.Equal(t, "photo-200.jpg", policy.BuildVariantKey("photo.jpg", 200, ".jpg"))

	// 扩展名替换为输出格式扩展名
	assert.Equal(t, "uploads/photo-400.webp", policy.BuildVariantKey("uploads/photo.png", 400, ".webp"))

	// 相同输入必须得到相同变体键
	a := policy.BuildVariantKey("a/b/c.png", 800, ".avif")
	b := policy.BuildVariantKey("a/b/c.png", 800, ".avif")
	assert.Equal(t, a, b)

	// 文件名里已有的连字符不受影响
	assert.Equal(t, "my-photo-1-300.jpg", policy.BuildVariantKey("my-photo-1.jpg", 300, ".jpg"))
}

func TestPolicyService_IsResizable(t *testing.T) {
	policy := newTestPolicy()

	// 可缩放格式
	for _, key := range []string{"a.jpg", "a.JPEG", "a.png", "a.gif", "a.webp", "a.bmp", "a.tiff"} {
		assert.True(t, policy.IsResizable(key), key)
	}

	// 图片但不可缩放
	for _, key := range []string{"a.svg", "a.ico", "a.avif", "a.heic"} {
		assert.True(t, policy.IsImage(key), key)
		assert.False(t, policy.IsResizable(key), key)
	}

	// 非图片
	assert.False(t, policy.IsImage("a.pdf"))
	assert.False(t, policy.IsResizable("a.mp4"))
}

func TestPolicyService_ValidateResizable(t *testing.T) {
	policy := newTestPolicy()

	assert.NoError(t, policy.ValidateResizable("photo.jpg"))

	// 图片但不支持缩放 → 422
	err := policy.ValidateResizable("icon.svg")
	assert.Error(t, err)
	assert.Equal(t, errorc.ErrorCodeUnsupportedOp.Code, errorc.ParseError(err).Code)

	// 不是图片 → 415
	err = policy.ValidateResizable("report.pdf")
	assert.Error(t, err)
	assert.Equal(t, errorc.ErrorCodeWrongMediaType.Code, errorc.ParseError(err).Code)
}

func TestPolicyService_ValidateResizeWidth(t *testing.T) {
	policy := newTestPolicy()

	assert.NoError(t, policy.ValidateResizeWidth(1))
	assert.NoError(t, policy.ValidateResizeWidth(1200))

	// 默认上限1200
	err := policy.ValidateResizeWidth(1201)
	assert.Error(t, err)
	assert.Equal(t, errorc.ErrorCodeLimitExceeded.Code, errorc.ParseError(err).Code)

	assert.Error(t, policy.ValidateResizeWidth(0))
	assert.Error(t, policy.ValidateResizeWidth(-5))

	// 配置可以放宽上限
	wide := NewPolicyService(&config.MediaConfig{MaxResizeWidth: 3000})
	assert.NoError(t, wide.ValidateResizeWidth(2500))
}

func TestPolicyService_MimeType(t *testing.T) {
	policy := newTestPolicy()

	assert.Equal(t, "image/jpeg", policy.MimeTypeForKey("a/b.jpg"))
	assert.Equal(t, "image/webp", policy.MimeType(".webp"))
	assert.Equal(t, "image/avif", policy.MimeType("avif"))
	assert.Equal(t, "application/pdf", policy.MimeTypeForKey("doc.PDF"))

	// 未知扩展名兜底
	assert.Equal(t, "application/octet-stream", policy.MimeTypeForKey("a.unknown"))
	assert.Equal(t, "application/octet-stream", policy.MimeTypeForKey("noext"))
}

func TestPolicyService_ETag(t *testing.T) {
	policy := newTestPolicy()
	now := time.Now()

	// ETag必须是带引号的64位十六进制
	etag := policy.MetaETag("a.jpg", now, 100)
	assert.True(t, strings.HasPrefix(etag, `"`))
	assert.True(t, strings.HasSuffix(etag, `"`))
	assert.Len(t, etag, 66)

	// 相同输入稳定
	assert.Equal(t, etag, policy.MetaETag("a.jpg", now, 100))

	// 任一输入变化都要变
	assert.NotEqual(t, etag, policy.MetaETag("b.jpg", now, 100))
	assert.NotEqual(t, etag, policy.MetaETag("a.jpg", now.Add(time.Second), 100))
	assert.NotEqual(t, etag, policy.MetaETag("a.jpg", now, 101))

	// 内容ETag
	c1 := policy.ContentETag([]byte("hello"))
	c2 := policy.ContentETag([]byte("hello"))
	assert.Equal(t, c1, c2)
	assert.NotEqual(t, c1, policy.ContentETag([]byte("world")))

	// 流式ETag由参数+元数据推导，与内容无关；宽度或格式变化都要变
	s1 := policy.StreamETag("a.jpg", 200, model.FormatWebP, now, 100)
	assert.Equal(t, s1, policy.StreamETag("a.jpg", 200, model.FormatWebP, now, 100))
	assert.NotEqual(t, s1, policy.StreamETag("a.jpg", 300, model.FormatWebP, now, 100))
	assert.NotEqual(t, s1, policy.StreamETag("a.jpg", 200, model.FormatJPEG, now, 100))
}

func TestPolicyService_OutputExtension(t *testing.T) {
	policy := newTestPolicy()

	// original沿用原图扩展名
	assert.Equal(t, ".png", policy.OutputExtension("a.png", model.FormatOriginal))
	assert.Equal(t, ".jpg", policy.OutputExtension("a.JPG", model.FormatOriginal))

	assert.Equal(t, ".webp", policy.OutputExtension("a.png", model.FormatWebP))
	assert.Equal(t, ".avif", policy.OutputExtension("a.jpg", model.FormatAVIF))
	assert.Equal(t, ".jpg", policy.OutputExtension("a.png", model.FormatJPEG))
}
