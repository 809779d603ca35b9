package oss

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"sucaiku/pkg/core/config"
	errorc "sucaiku/pkg/core/err"
	"sucaiku/pkg/core/logger"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
)

// AliyunService 阿里云OSS存储网关。
// 其他组件只能通过本网关访问对象存储，所有读写都套用同一套重试策略。
type AliyunService struct {
	config *config.OssConfig
	client *oss.Client
	retry  RetryPolicy
	log    *logger.Log
	err    *errorc.ErrorBuilder
}

// NewAliyunService 创建阿里云OSS存储网关实例
func NewAliyunService(config *config.OssConfig) (*AliyunService, error) {
	log := logger.GetLogger().WithEntryName("AliyunOSSService")
	errBuilder := errorc.NewErrorBuilder("AliyunOSSService")

	if config.AccessKeyID == "" || config.AccessKeySecret == "" || config.Bucket == "" {
		return nil, errBuilder.New("阿里云配置不完整", nil).ValidWithCtx().ToLog(log.Entry)
	}

	provider := credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.AccessKeySecret, "")
	cfg := oss.LoadDefaultConfig().
		WithCredentialsProvider(provider).
		WithRegion(config.Region)

	if config.Domain != "" {
		cfg = cfg.WithEndpoint(config.Domain).WithUseCName(true)
	}

	return &AliyunService{
		config: config,
		client: oss.NewClient(cfg),
		retry:  DefaultRetryPolicy(),
		log:    log,
		err:    errBuilder,
	}, nil
}

// GetStream 下载文件内容，返回字节流
func (s *AliyunService) GetStream(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	objectKey = trimKey(objectKey)

	var body io.ReadCloser
	err := s.retry.Do(ctx, s.log, "GetObject", objectKey, func() error {
		result, err := s.client.GetObject(ctx, &oss.GetObjectRequest{
			Bucket: oss.Ptr(s.config.Bucket),
			Key:    oss.Ptr(objectKey),
		})
		if err != nil {
			return err
		}
		body = result.Body
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, "下载文件失败", objectKey, err)
	}

	return body, nil
}

// GetBytes 下载文件内容并全部读入内存。
// 对本系统的目标文件大小可以接受；超大文件应走GetStream。
func (s *AliyunService) GetBytes(ctx context.Context, objectKey string) ([]byte, error) {
	body, err := s.GetStream(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, s.err.New("读取文件内容失败", err).WithTraceID(ctx).ToLog(s.log.Entry)
	}
	return data, nil
}

// Stat 获取对象元数据
func (s *AliyunService) Stat(ctx context.Context, objectKey string) (*ObjectInfo, error) {
	objectKey = trimKey(objectKey)

	var info *ObjectInfo
	err := s.retry.Do(ctx, s.log, "HeadObject", objectKey, func() error {
		result, err := s.client.HeadObject(ctx, &oss.HeadObjectRequest{
			Bucket: oss.Ptr(s.config.Bucket),
			Key:    oss.Ptr(objectKey),
		})
		if err != nil {
			return err
		}

		info = &ObjectInfo{
			Key:      objectKey,
			Size:     result.ContentLength,
			Metadata: result.Metadata,
		}
		if result.ETag != nil {
			info.ETag = *result.ETag
		}
		if result.LastModified != nil {
			info.LastModified = *result.LastModified
		}
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, "获取文件元数据失败", objectKey, err)
	}

	return info, nil
}

// Put 上传文件内容，metadata可空
func (s *AliyunService) Put(ctx context.Context, objectKey string, data []byte, metadata map[string]string) error {
	objectKey = trimKey(objectKey)

	err := s.retry.Do(ctx, s.log, "PutObject", objectKey, func() error {
		_, err := s.client.PutObject(ctx, &oss.PutObjectRequest{
			Bucket:   oss.Ptr(s.config.Bucket),
			Key:      oss.Ptr(objectKey),
			Body:     bytes.NewReader(data),
			Metadata: metadata,
		})
		return err
	})
	if err != nil {
		return s.translate(ctx, "上传文件失败", objectKey, err)
	}

	return nil
}

// Delete 删除文件
func (s *AliyunService) Delete(ctx context.Context, objectKey string) error {
	objectKey = trimKey(objectKey)
	s.log.WithTrace(ctx).WithField("objectKey", objectKey).Info("删除阿里云文件")

	err := s.retry.Do(ctx, s.log, "DeleteObject", objectKey, func() error {
		_, err := s.client.DeleteObject(ctx, &oss.DeleteObjectRequest{
			Bucket: oss.Ptr(s.config.Bucket),
			Key:    oss.Ptr(objectKey),
		})
		return err
	})
	if err != nil {
		return s.translate(ctx, "删除文件失败", objectKey, err)
	}

	return nil
}

// UploadFile 流式上传文件。
// 流不可重放，因此本方法不套用重试；可重放的上传走Put。
func (s *AliyunService) UploadFile(ctx context.Context, objectKey string, reader io.Reader) error {
	objectKey = trimKey(objectKey)
	s.log.WithTrace(ctx).WithField("objectKey", objectKey).Info("上传文件到阿里云OSS")

	_, err := s.client.PutObject(ctx, &oss.PutObjectRequest{
		Bucket: oss.Ptr(s.config.Bucket),
		Key:    oss.Ptr(objectKey),
		Body:   reader,
	})
	if err != nil {
		return s.err.New("上传文件到阿里云OSS失败", err).WithTraceID(ctx).ToLog(s.log.Entry)
	}

	return nil
}

// GetPreviewUrl 获取预览URL
func (s *AliyunService) GetPreviewUrl(ctx context.Context, objectKey string, expire time.Duration) (string, error) {
	return s.GetDownloadUrl(ctx, objectKey, "", expire)
}

// GetDownloadUrl 获取带签名的下载URL
func (s *AliyunService) GetDownloadUrl(ctx context.Context, objectKey string, name string, expire time.Duration) (string, error) {
	objectKey = trimKey(objectKey)
	s.log.WithTrace(ctx).WithField("objectKey", objectKey).Info("获取阿里云文件下载URL")

	if expire <= 0 {
		expire = 5 * time.Minute
	}

	request := &oss.GetObjectRequest{
		Bucket: oss.Ptr(s.config.Bucket),
		Key:    oss.Ptr(objectKey),
	}
	if name != "" {
		request.ResponseContentDisposition = oss.Ptr(fmt.Sprintf("attachment;filename=%s", name))
	}
	result, err := s.client.Presign(ctx, request,
		oss.PresignExpires(expire),
	)
	if err != nil {
		return "", s.err.New("生成下载URL失败", err).WithTraceID(ctx).ToLog(s.log.Entry)
	}
	return result.URL, nil
}

// translate 把存储层错误统一翻译到网关边界：
// 对象不存在与各类永久失败对外都是NotFound，重试用尽的瞬时失败对外是Unavailable。
func (s *AliyunService) translate(ctx context.Context, msg, objectKey string, err error) error {
	if IsTransient(err) {
		return s.err.New(msg+"（重试已用尽）", err).WithTraceID(ctx).Unavailable().ToLog(s.log.WithField("objectKey", objectKey).Entry)
	}
	if IsNotFoundErr(err) {
		return s.err.New("文件不存在", err).WithTraceID(ctx).NotFound().ToLog(s.log.WithField("objectKey", objectKey).Entry)
	}
	return s.err.New(msg, err).WithTraceID(ctx).NotFound().ToLog(s.log.WithField("objectKey", objectKey).Entry)
}

// 保证objectKey不以"/"开头
func trimKey(objectKey string) string {
	return strings.TrimPrefix(objectKey, "/")
}
