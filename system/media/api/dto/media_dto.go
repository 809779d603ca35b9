package dto

// BatchResizeItemDTO 批量缩放的单个文件条目
type BatchResizeItemDTO struct {
	Key    string `json:"key" validate:"required,max=1024" comment:"文件Key"`
	Widths []int  `json:"widths" validate:"required,min=1,max=20,dive,min=1,max=5000" comment:"目标宽度集合"`
}

// BatchResizeRequest 批量缩放请求
type BatchResizeRequest struct {
	Items []BatchResizeItemDTO `json:"items" validate:"required,min=1,max=100,dive" comment:"缩放条目"`
}

// BatchResizeResultDTO 批量缩放的单条结果
type BatchResizeResultDTO struct {
	Key        string `json:"key" comment:"文件Key"`
	Width      int    `json:"width" comment:"目标宽度"`
	VariantKey string `json:"variantKey,omitempty" comment:"变体Key"`
	Success    bool   `json:"success" comment:"是否成功"`
	Error      string `json:"error,omitempty" comment:"失败原因"`
}

// BatchResizeResponse 批量缩放响应
type BatchResizeResponse struct {
	Total   int                    `json:"total" comment:"总条数"`
	Succeed int                    `json:"succeed" comment:"成功条数"`
	Results []BatchResizeResultDTO `json:"results" comment:"逐条结果"`
}

// MediaUploadDTO 上传响应
type MediaUploadDTO struct {
	Key  string `json:"key" comment:"文件Key"`
	Size int64  `json:"size" comment:"文件大小（字节）"`
}

// MediaUrlDTO 签名链接响应
type MediaUrlDTO struct {
	Key string `json:"key" comment:"文件Key"`
	Url string `json:"url" comment:"签名链接"`
}
