package model

// OutputFormat 变体输出格式，封闭枚举
type OutputFormat string

const (
	FormatOriginal OutputFormat = "original" // 保持原图格式
	FormatJPEG     OutputFormat = "jpeg"
	FormatWebP     OutputFormat = "webp"
	FormatAVIF     OutputFormat = "avif"
)

// 各格式的固定编码质量
const (
	QualityJPEG = 85
	QualityWebP = 80
	QualityAVIF = 30
)

// ParseOutputFormat 解析格式参数，大小写不敏感，接受jpg别名
func ParseOutputFormat(s string) (OutputFormat, bool) {
	switch s {
	case "", "original":
		return FormatOriginal, true
	case "jpeg", "jpg":
		return FormatJPEG, true
	case "webp":
		return FormatWebP, true
	case "avif":
		return FormatAVIF, true
	}
	return FormatOriginal, false
}

// Extension 返回该格式的变体文件扩展名（带点）。
// original格式沿用原图扩展名。
func (f OutputFormat) Extension(originalExt string) string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatWebP:
		return ".webp"
	case FormatAVIF:
		return ".avif"
	}
	return originalExt
}
