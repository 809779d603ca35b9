package service

import (
	"bytes"
	"image"
	"io"

	errorc "sucaiku/pkg/core/err"
	"sucaiku/pkg/core/logger"
	"sucaiku/system/media/internal/model"

	"github.com/Kagami/go-avif"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	// webp解码由x/image提供，编码走chai2010/webp
	_ "golang.org/x/image/webp"
)

// ImageProcessor 图片处理后端契约：
// 只读探测像素尺寸、保持宽高比缩放到目标宽度、按固定质量编码输出格式。
type ImageProcessor interface {
	// ProbeWidth 读取图片像素宽度，不做完整解码
	ProbeWidth(data []byte) (int, error)
	// Resize 缩放到目标宽度并按格式编码
	Resize(data []byte, width int, format model.OutputFormat) ([]byte, error)
	// Transform 流式变换：从r读原图，返回缩放编码后的字节流
	Transform(r io.Reader, width int, format model.OutputFormat, preventUpscale bool) io.ReadCloser
}

// imagingProcessor 默认图片处理实现
type imagingProcessor struct {
	log *logger.Log
	err *errorc.ErrorBuilder
}

// NewImageProcessor 创建默认图片处理实例
func NewImageProcessor() ImageProcessor {
	return &imagingProcessor{
		log: logger.GetLogger().WithEntryName("ImageProcessor"),
		err: errorc.NewErrorBuilder("ImageProcessor"),
	}
}

func (p *imagingProcessor) ProbeWidth(data []byte) (int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, p.err.New("读取图片尺寸失败", err).ValidWithCtx()
	}
	return cfg.Width, nil
}

func (p *imagingProcessor) Resize(data []byte, width int, format model.OutputFormat) ([]byte, error) {
	img, srcFormat, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, p.err.New("解码图片失败", err).ValidWithCtx()
	}

	// 宽度与原图一致且保持原格式时原样透传，避免无谓的重编码
	if format == model.FormatOriginal && img.Bounds().Dx() == width {
		return data, nil
	}

	resized := imaging.Resize(img, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := p.encode(&buf, resized, format, srcFormat); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *imagingProcessor) Transform(r io.Reader, width int, format model.OutputFormat, preventUpscale bool) io.ReadCloser {
	pr, pw := io.Pipe()

	go func() {
		data, err := io.ReadAll(r)
		if err != nil {
			pw.CloseWithError(p.err.New("读取图片流失败", err))
			return
		}

		if preventUpscale {
			if srcWidth, err := p.ProbeWidth(data); err == nil && srcWidth < width {
				width = srcWidth
			}
		}

		out, err := p.Resize(data, width, format)
		if err != nil {
			pw.CloseWithError(err)
			return
		}

		_, err = pw.Write(out)
		pw.CloseWithError(err)
	}()

	return pr
}

// encode 按固定质量编码。original格式回写为解码出的源格式。
func (p *imagingProcessor) encode(w io.Writer, img image.Image, format model.OutputFormat, srcFormat string) error {
	switch format {
	case model.FormatJPEG:
		if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(model.QualityJPEG)); err != nil {
			return p.err.New("编码JPEG失败", err)
		}
		return nil
	case model.FormatWebP:
		if err := webp.Encode(w, img, &webp.Options{Quality: model.QualityWebP}); err != nil {
			return p.err.New("编码WebP失败", err)
		}
		return nil
	case model.FormatAVIF:
		if err := avif.Encode(w, img, &avif.Options{Quality: model.QualityAVIF}); err != nil {
			return p.err.New("编码AVIF失败", err)
		}
		return nil
	}

	var err error
	switch srcFormat {
	case "png":
		err = imaging.Encode(w, img, imaging.PNG)
	case "gif":
		err = imaging.Encode(w, img, imaging.GIF)
	case "bmp":
		err = imaging.Encode(w, img, imaging.BMP)
	case "tiff":
		err = imaging.Encode(w, img, imaging.TIFF)
	case "webp":
		err = webp.Encode(w, img, &webp.Options{Quality: model.QualityWebP})
	default:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(model.QualityJPEG))
	}
	if err != nil {
		return p.err.New("编码图片失败", err)
	}
	return nil
}
