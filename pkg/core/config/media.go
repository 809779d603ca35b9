package config

const (
	// DefaultMaxResizeWidth 缩放宽度默认上限
	DefaultMaxResizeWidth = 1200
	// DefaultMaxOriginalSize 允许实时缩放的原图大小默认上限（15MB）
	DefaultMaxOriginalSize = 15 * 1024 * 1024
)

// MediaConfig 媒体服务配置结构体
type MediaConfig struct {
	MaxResizeWidth     int    `yaml:"max-resize-width"`     // 缩放宽度上限，0取默认值
	MaxOriginalSize    int64  `yaml:"max-original-size"`    // 实时缩放的原图大小上限（字节），0取默认值
	AutoPreventUpscale *bool  `yaml:"auto-prevent-upscale"` // 禁止放大到超过原图宽度，默认开启
	PreferredFormat    string `yaml:"preferred-format"`     // 默认输出格式：original/jpeg/webp/avif
	ContentNegotiation bool   `yaml:"content-negotiation"`  // 是否按Accept头协商输出格式
	AllowWebP          bool   `yaml:"allow-webp"`           // 协商时允许webp
	AllowAVIF          bool   `yaml:"allow-avif"`           // 协商时允许avif
	PreGenerateWidths  []int  `yaml:"pre-generate-widths"`  // 预生成的固定宽度集合

	// 观测回调，由启动层注入，均为同步调用、调用方自行异步化
	OnCacheHit         func(key, variantKey string)                       `yaml:"-"`
	OnVariantGenerated func(key, variantKey string, width int, size int64) `yaml:"-"`
}

// GetMaxResizeWidth 返回配置的缩放宽度上限
func (c *MediaConfig) GetMaxResizeWidth() int {
	if c == nil || c.MaxResizeWidth <= 0 {
		return DefaultMaxResizeWidth
	}
	return c.MaxResizeWidth
}

// GetMaxOriginalSize 返回配置的原图大小上限
func (c *MediaConfig) GetMaxOriginalSize() int64 {
	if c == nil || c.MaxOriginalSize <= 0 {
		return DefaultMaxOriginalSize
	}
	return c.MaxOriginalSize
}

// GetAutoPreventUpscale 返回是否禁止放大，未配置时默认开启
func (c *MediaConfig) GetAutoPreventUpscale() bool {
	if c == nil || c.AutoPreventUpscale == nil {
		return true
	}
	return *c.AutoPreventUpscale
}
