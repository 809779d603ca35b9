package oss

import "time"

// ObjectInfo 存储对象的元数据视图
type ObjectInfo struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	LastModified time.Time         `json:"lastModified"`
	ETag         string            `json:"etag"`     // 存储端原生标识
	Metadata     map[string]string `json:"metadata"` // x-oss-meta-* 自定义元数据
}
