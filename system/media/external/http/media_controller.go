package http

import (
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	errorc "sucaiku/pkg/core/err"
	"sucaiku/pkg/core/logger"
	"sucaiku/pkg/core/result"
	"sucaiku/pkg/core/util"
	"sucaiku/system/media/api/dto"
	internalapp "sucaiku/system/media/internal/app"
	"sucaiku/system/media/internal/model"
	"sucaiku/utils"

	"github.com/gofiber/fiber/v2"
)

// 签名链接默认有效期
const defaultUrlExpire = 30 * time.Minute

// MediaAPIController 媒体API控制器（文件读取与实时缩放）
type MediaAPIController struct {
	app *internalapp.App
	err *errorc.ErrorBuilder
	log *logger.Log
}

// NewMediaAPIController 创建媒体API控制器
func NewMediaAPIController(app *internalapp.App) *MediaAPIController {
	return &MediaAPIController{
		app: app,
		err: errorc.NewErrorBuilder("MediaAPIController"),
		log: logger.GetLogger().WithEntryName("MediaAPIController"),
	}
}

// RegisterRoutes 注册路由
func (c *MediaAPIController) RegisterRoutes(api fiber.Router) {
	media := api.Group("/media")

	// 原始文件读取（无鉴权）
	media.Get("/file/+", c.GetFile)

	// 实时缩放（缓冲模式，带变体缓存）
	media.Get("/resize/+", c.GetResizedImage)

	// 实时缩放（流式模式，不缓存）
	media.Get("/resize-stream/+", c.GetResizedImageStream)

	// 签名链接
	media.Get("/url/+", c.GetUrl)
}

// GetFile 读取原始文件
func (c *MediaAPIController) GetFile(ctx *fiber.Ctx) error {
	key, err := c.objectKey(ctx)
	if err != nil {
		return err
	}

	res, err := c.app.GetFile(util.Context(ctx), key, ctx.Get(fiber.HeaderIfNoneMatch))
	if err != nil {
		return err
	}

	return c.sendResult(ctx, res)
}

// GetResizedImage 实时缩放并返回图片，变体写入缓存
func (c *MediaAPIController) GetResizedImage(ctx *fiber.Ctx) error {
	key, err := c.objectKey(ctx)
	if err != nil {
		return err
	}
	width := ctx.QueryInt("width")
	format, err := c.queryFormat(ctx)
	if err != nil {
		return err
	}

	res, err := c.app.GetResizedImage(util.Context(ctx), key, width,
		ctx.Get(fiber.HeaderIfNoneMatch), ctx.Get(fiber.HeaderAccept), format)
	if err != nil {
		return err
	}

	return c.sendResult(ctx, res)
}

// GetResizedImageStream 流式实时缩放，不经过变体缓存
func (c *MediaAPIController) GetResizedImageStream(ctx *fiber.Ctx) error {
	key, err := c.objectKey(ctx)
	if err != nil {
		return err
	}
	width := ctx.QueryInt("width")
	format, err := c.queryFormat(ctx)
	if err != nil {
		return err
	}

	res, err := c.app.GetResizedImageStream(util.Context(ctx), key, width,
		ctx.Get(fiber.HeaderIfNoneMatch), ctx.Get(fiber.HeaderAccept), format)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderETag, res.ETag)
	ctx.Set(fiber.HeaderLastModified, res.LastModified.UTC().Format(nethttp.TimeFormat))
	if res.NotModified {
		return ctx.SendStatus(fiber.StatusNotModified)
	}

	ctx.Set(fiber.HeaderContentType, res.MimeType)
	return ctx.SendStream(res.Body)
}

// GetUrl 获取签名链接，type=preview|download
func (c *MediaAPIController) GetUrl(ctx *fiber.Ctx) error {
	key, err := c.objectKey(ctx)
	if err != nil {
		return err
	}

	expire := defaultUrlExpire
	if seconds := ctx.QueryInt("expires"); seconds > 0 {
		expire = time.Duration(seconds) * time.Second
	}

	var link string
	switch ctx.Query("type", "preview") {
	case "download":
		link, err = c.app.GetDownloadUrl(util.Context(ctx), key, ctx.Query("filename"), expire)
	case "preview":
		link, err = c.app.GetPreviewUrl(util.Context(ctx), key, expire)
	default:
		return c.err.New("链接类型仅支持preview或download", nil).ValidWithCtx()
	}

	return result.Once(ctx, &dto.MediaUrlDTO{Key: key, Url: link}, err)
}

// queryFormat 解析可选的format参数，空值表示按Accept头协商
func (c *MediaAPIController) queryFormat(ctx *fiber.Ctx) (string, error) {
	raw := strings.ToLower(ctx.Query("format"))
	if raw == "" {
		return "", nil
	}
	if _, ok := model.ParseOutputFormat(raw); !ok {
		return "", c.err.New(fmt.Sprintf("不支持的输出格式%s", raw), nil).ValidWithCtx()
	}
	return raw, nil
}

// objectKey 从通配路径段还原对象Key
func (c *MediaAPIController) objectKey(ctx *fiber.Ctx) (string, error) {
	raw := ctx.Params("+")
	key, err := url.PathUnescape(raw)
	if err != nil {
		key = raw
	}
	if key == "" {
		return "", c.err.New("文件Key不能为空", nil).ValidWithCtx()
	}
	return key, nil
}

func (c *MediaAPIController) sendResult(ctx *fiber.Ctx, res *model.ResizeResult) error {
	ctx.Set(fiber.HeaderETag, res.ETag)
	if res.NotModified {
		return ctx.SendStatus(fiber.StatusNotModified)
	}

	ctx.Set(fiber.HeaderContentType, res.MimeType)
	return ctx.Send(res.Data)
}

// MediaAdminController 媒体后台管理控制器
type MediaAdminController struct {
	app *internalapp.App
	err *errorc.ErrorBuilder
	log *logger.Log
}

// NewMediaAdminController 创建媒体后台管理控制器
func NewMediaAdminController(app *internalapp.App) *MediaAdminController {
	return &MediaAdminController{
		app: app,
		err: errorc.NewErrorBuilder("MediaAdminController"),
		log: logger.GetLogger().WithEntryName("MediaAdminController"),
	}
}

// RegisterRoutes 注册路由
func (c *MediaAdminController) RegisterRoutes(admin fiber.Router) {
	media := admin.Group("/media")

	media.Post("/upload/+", c.Upload)
	media.Post("/batch-resize", c.BatchResize)
	media.Delete("/file/+", c.DeleteFile)
}

// Upload 上传文件，可缩放图片同时内联预生成固定宽度变体
func (c *MediaAdminController) Upload(ctx *fiber.Ctx) error {
	raw := ctx.Params("+")
	key, err := url.PathUnescape(raw)
	if err != nil {
		key = raw
	}
	if key == "" {
		return c.err.New("文件Key不能为空", nil).ValidWithCtx()
	}

	body := ctx.Body()
	if len(body) == 0 {
		return c.err.New("请求体不能为空", nil).ValidWithCtx()
	}

	if err := c.app.Upload(util.Context(ctx), key, body); err != nil {
		return err
	}
	return result.OK(ctx, &dto.MediaUploadDTO{Key: key, Size: int64(len(body))})
}

// BatchResize 批量生成图片变体
func (c *MediaAdminController) BatchResize(ctx *fiber.Ctx) error {
	var req dto.BatchResizeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return result.BadRequestNormal(ctx, "解析请求体失败", err)
	}
	if msg, err := utils.Validate(&req); err != nil {
		return c.err.New(msg, err).ValidWithCtx()
	}

	items := make([]model.BatchResizeItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, model.BatchResizeItem{Key: item.Key, Widths: item.Widths})
	}

	results := c.app.BatchResize(util.Context(ctx), items)

	resp := &dto.BatchResizeResponse{
		Total:   len(results),
		Results: make([]dto.BatchResizeResultDTO, 0, len(results)),
	}
	for _, r := range results {
		if r.Success {
			resp.Succeed++
		}
		resp.Results = append(resp.Results, dto.BatchResizeResultDTO{
			Key:        r.Key,
			Width:      r.Width,
			VariantKey: r.VariantKey,
			Success:    r.Success,
			Error:      r.Error,
		})
	}

	return result.OK(ctx, resp)
}

// DeleteFile 删除文件及其预生成变体
func (c *MediaAdminController) DeleteFile(ctx *fiber.Ctx) error {
	raw := ctx.Params("+")
	key, err := url.PathUnescape(raw)
	if err != nil {
		key = raw
	}
	if key == "" {
		return c.err.New("文件Key不能为空", nil).ValidWithCtx()
	}

	if err := c.app.DeleteFile(util.Context(ctx), key); err != nil {
		return err
	}
	return result.OK(ctx, nil)
}
