package oss

import (
	"context"
	"errors"
	"testing"
	"time"

	"sucaiku/pkg/core/logger"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/stretchr/testify/assert"
)

func testPolicy() RetryPolicy {
	// 缩短退避，避免拖慢测试
	return RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, Multiplier: 2}
}

func TestDefaultRetryPolicy_Values(t *testing.T) {
	p := DefaultRetryPolicy()

	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, float64(2), p.Multiplier)
}

func TestDefaultRetryPolicy_BackoffSchedule(t *testing.T) {
	var stamps []time.Time
	transient := &oss.ServiceError{Code: "ServiceUnavailable", StatusCode: 503}

	err := DefaultRetryPolicy().Do(context.Background(), logger.GetLogger(), "GetObject", "a.jpg", func() error {
		stamps = append(stamps, time.Now())
		return transient
	})

	// 默认策略共3次尝试，间隔50ms、100ms，不加抖动
	assert.ErrorIs(t, err, transient)
	assert.Len(t, stamps, 3)

	d1 := stamps[1].Sub(stamps[0])
	d2 := stamps[2].Sub(stamps[1])
	assert.GreaterOrEqual(t, d1, 50*time.Millisecond)
	assert.Less(t, d1, 90*time.Millisecond)
	assert.GreaterOrEqual(t, d2, 100*time.Millisecond)
	assert.Less(t, d2, 160*time.Millisecond)
}

func TestRetryPolicy_TransientExhaustsAttempts(t *testing.T) {
	calls := 0
	transient := &oss.ServiceError{Code: "ServiceUnavailable", StatusCode: 503}

	err := testPolicy().Do(context.Background(), logger.GetLogger(), "GetObject", "a.jpg", func() error {
		calls++
		return transient
	})

	// 瞬时错误重试到上限：共3次尝试，最后一次的错误原样上抛
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_PermanentFailsFast(t *testing.T) {
	calls := 0
	permanent := &oss.ServiceError{Code: "NoSuchKey", StatusCode: 404}

	err := testPolicy().Do(context.Background(), logger.GetLogger(), "GetObject", "a.jpg", func() error {
		calls++
		return permanent
	})

	// 永久错误不重试，原始错误不被包装丢失
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_SucceedsAfterTransient(t *testing.T) {
	calls := 0

	err := testPolicy().Do(context.Background(), logger.GetLogger(), "PutObject", "a.jpg", func() error {
		calls++
		if calls == 1 {
			return &oss.ServiceError{Code: "RequestTimeout", StatusCode: 500}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicy_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := testPolicy().Do(ctx, logger.GetLogger(), "GetObject", "a.jpg", func() error {
		calls++
		return &oss.ServiceError{Code: "ServiceUnavailable", StatusCode: 503}
	})

	// 已取消的上下文不继续重试
	assert.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}

func TestIsTransient(t *testing.T) {
	// 存储端瞬时错误码
	for _, code := range []string{"RequestTimeout", "InternalError", "ServiceUnavailable", "SlowDown", "Throttling"} {
		assert.True(t, IsTransient(&oss.ServiceError{Code: code}), code)
	}

	// 状态码兜底：429与5xx算瞬时
	assert.True(t, IsTransient(&oss.ServiceError{Code: "Whatever", StatusCode: 429}))
	assert.True(t, IsTransient(&oss.ServiceError{Code: "Whatever", StatusCode: 502}))
	assert.False(t, IsTransient(&oss.ServiceError{Code: "NoSuchKey", StatusCode: 404}))
	assert.False(t, IsTransient(&oss.ServiceError{Code: "AccessDenied", StatusCode: 403}))

	// 上下文取消属于永久错误
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(context.DeadlineExceeded))

	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("普通错误")))
}

func TestIsNotFoundErr(t *testing.T) {
	assert.True(t, IsNotFoundErr(&oss.ServiceError{Code: "NoSuchKey", StatusCode: 404}))
	assert.True(t, IsNotFoundErr(&oss.ServiceError{Code: "NoSuchKey"}))
	assert.False(t, IsNotFoundErr(&oss.ServiceError{Code: "AccessDenied", StatusCode: 403}))
	assert.False(t, IsNotFoundErr(errors.New("普通错误")))
}
