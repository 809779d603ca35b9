package oss

import (
	"context"
	"errors"
	"net"
	"time"

	"sucaiku/pkg/core/logger"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy 存储操作的有界重试策略。
// 瞬时错误按指数退避重试，永久错误立即放弃。
type RetryPolicy struct {
	MaxAttempts    int           // 总尝试次数（含首次）
	InitialBackoff time.Duration // 首次重试前的等待
	Multiplier     float64       // 退避倍数
}

// DefaultRetryPolicy 默认策略：最多3次，50ms起步，每次翻倍
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 50 * time.Millisecond,
		Multiplier:     2,
	}
}

// Do 在重试策略下执行一次存储操作。
// op与key仅用于重试日志（操作名、目标、第几次尝试）。
func (p RetryPolicy) Do(ctx context.Context, log *logger.Log, op, key string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialBackoff
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		if attempt < p.MaxAttempts {
			log.WithField("op", op).
				WithField("key", key).
				WithField("attempt", attempt).
				WithErr(err).
				Warn("存储操作出现瞬时错误，准备重试")
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1)), ctx))

	if err != nil && IsTransient(err) {
		log.WithField("op", op).
			WithField("key", key).
			WithField("attempt", attempt).
			WithErr(err).
			Error("存储操作重试次数已用尽")
	}

	return err
}

// IsTransient 判断错误是否为可重试的瞬时错误：
// 超时、限流、网络抖动、存储端内部错误/不可用。
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var serr *oss.ServiceError
	if errors.As(err, &serr) {
		switch serr.Code {
		case "RequestTimeout", "InternalError", "ServiceUnavailable", "SlowDown", "Throttling", "BadGateway":
			return true
		}
		return serr.StatusCode == 429 || serr.StatusCode >= 500
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	var operr *net.OpError
	return errors.As(err, &operr)
}

// IsNotFoundErr 判断存储端是否返回了对象不存在
func IsNotFoundErr(err error) bool {
	var serr *oss.ServiceError
	if errors.As(err, &serr) {
		return serr.StatusCode == 404 || serr.Code == "NoSuchKey"
	}
	return false
}
