package oss

import (
	"sucaiku/pkg/core/config"
	"sucaiku/pkg/core/logger"
)

// InitAliyunOSS 初始化阿里云OSS存储网关
func InitAliyunOSS(cfg *config.OssConfig) (*AliyunService, error) {

	ossProvider, err := NewAliyunService(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.GetLogger().WithEntryName("AliyunOSSService")
	log.Info("阿里云OSS存储网关初始化完成")
	return ossProvider, nil
}
