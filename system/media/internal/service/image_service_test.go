package service

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"

	"sucaiku/system/media/internal/model"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
)

// encodeTestImage 生成指定尺寸的纯色测试图片
func encodeTestImage(t *testing.T, width, height int, format imaging.Format) []byte {
	img := imaging.New(width, height, color.NRGBA{R: 120, G: 30, B: 200, A: 255})

	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, format)
	assert.NoError(t, err)
	return buf.Bytes()
}

func TestImageProcessor_ProbeWidth(t *testing.T) {
	processor := NewImageProcessor()

	data := encodeTestImage(t, 640, 480, imaging.PNG)
	width, err := processor.ProbeWidth(data)
	assert.NoError(t, err)
	assert.Equal(t, 640, width)

	// 非图片数据
	_, err = processor.ProbeWidth([]byte("这不是图片"))
	assert.Error(t, err)
}

func TestImageProcessor_Resize(t *testing.T) {
	processor := NewImageProcessor()
	data := encodeTestImage(t, 640, 480, imaging.PNG)

	out, err := processor.Resize(data, 320, model.FormatOriginal)
	assert.NoError(t, err)

	// 保持宽高比，源格式保持png
	img, format, err := image.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestImageProcessor_ResizePassthrough(t *testing.T) {
	processor := NewImageProcessor()
	data := encodeTestImage(t, 640, 480, imaging.JPEG)

	// 宽度一致且保持原格式时原字节透传
	out, err := processor.Resize(data, 640, model.FormatOriginal)
	assert.NoError(t, err)
	assert.Equal(t, data, out)

	// 指定了目标格式则必须重编码
	out, err = processor.Resize(data, 640, model.FormatJPEG)
	assert.NoError(t, err)
	_, format, err := image.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestImageProcessor_ResizeToJPEG(t *testing.T) {
	processor := NewImageProcessor()
	data := encodeTestImage(t, 640, 480, imaging.PNG)

	out, err := processor.Resize(data, 200, model.FormatJPEG)
	assert.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 200, img.Bounds().Dx())
}

func TestImageProcessor_Transform(t *testing.T) {
	processor := NewImageProcessor()
	data := encodeTestImage(t, 640, 480, imaging.PNG)

	rc := processor.Transform(bytes.NewReader(data), 320, model.FormatOriginal, true)
	out, err := io.ReadAll(rc)
	assert.NoError(t, err)
	assert.NoError(t, rc.Close())

	img, _, err := image.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
}

func TestImageProcessor_TransformPreventUpscale(t *testing.T) {
	processor := NewImageProcessor()
	data := encodeTestImage(t, 200, 100, imaging.PNG)

	// 原图只有200宽，开启防放大后请求500也只得到200
	rc := processor.Transform(bytes.NewReader(data), 500, model.FormatOriginal, true)
	out, err := io.ReadAll(rc)
	assert.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	// 关闭防放大则按请求宽度放大
	rc = processor.Transform(bytes.NewReader(data), 500, model.FormatOriginal, false)
	out, err = io.ReadAll(rc)
	assert.NoError(t, err)

	img, _, err = image.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
	assert.Equal(t, 500, img.Bounds().Dx())
}

func TestImageProcessor_TransformBadInput(t *testing.T) {
	processor := NewImageProcessor()

	rc := processor.Transform(strings.NewReader("这不是图片"), 320, model.FormatOriginal, true)
	_, err := io.ReadAll(rc)
	assert.Error(t, err)
}
