package model

import (
	"io"
	"time"
)

// ResizeResult 缓冲模式的缩放结果。
// NotModified为true时Data为空，调用方应返回304类响应。
type ResizeResult struct {
	NotModified bool
	Data        []byte
	MimeType    string
	ETag        string
}

// StreamResult 流式模式的缩放结果。
// 流式路径不落缓存，ETag由请求参数加原图元数据推导。
type StreamResult struct {
	NotModified  bool
	Body         io.ReadCloser
	MimeType     string
	ETag         string
	LastModified time.Time
}

// BatchResizeItem 批量缩放的单个输入：一个文件与若干目标宽度
type BatchResizeItem struct {
	Key    string `json:"key"`
	Widths []int  `json:"widths"`
}

// BatchResizeResult 批量缩放的单条结果，失败按(文件,宽度)隔离
type BatchResizeResult struct {
	Key        string `json:"key"`
	Width      int    `json:"width"`
	VariantKey string `json:"variantKey,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}
