package base

import (
	"sucaiku/pkg/core/logger"
	"sucaiku/pkg/core/start"
	"sucaiku/pkg/oss"
)

var (
	Configures *start.Configures
	Logger     *logger.Log
	ENV        string
	OSS        *oss.AliyunService
)
