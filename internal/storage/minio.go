package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/config"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

var minioTracer = otel.Tracer("resume-match-go/storage/minio")

// 预签名链接最长7天
const maxPresignExpiry = 7 * 24 * time.Hour

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// Upload 上传原始简历，返回对象key和可分享的预签名链接
	Upload(ctx context.Context, data []byte, filename string) (*types.StoredObject, error)

	// GetPresignedURL 获取预签名URL
	GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)

	// DeleteFile 删除文件
	DeleteFile(ctx context.Context, objectName string) error
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供对象存储功能
type MinIO struct {
	client *minio.Client
	cfg    *config.MinIOConfig
	bucket string
	expiry time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewMinIO 创建MinIO客户端并确保存储桶存在
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := newMinIO(client, cfg)
	if err := m.ensureBucketExists(ctx, cfg.Location); err != nil {
		return nil, err
	}
	if cfg.OriginalFileExpireDays > 0 {
		if err := m.setupLifecycle(ctx, cfg.OriginalFileExpireDays); err != nil {
			m.logger.Warn().Err(err).Str("bucket", m.bucket).Msg("设置生命周期规则失败")
		}
	}

	m.logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", m.bucket).Msg("MinIO客户端初始化成功")
	return m, nil
}

func newMinIO(client *minio.Client, cfg *config.MinIOConfig) *MinIO {
	bucket := cfg.BucketName
	if bucket == "" {
		bucket = "resume-pdfs"
	}
	return &MinIO{
		client: client,
		cfg:    cfg,
		bucket: bucket,
		expiry: shareLinkExpiry(cfg.ShareLinkExpiryHours),
		now:    time.Now,
		logger: logger.Component("minio"),
	}
}

func shareLinkExpiry(hours int) time.Duration {
	return clampExpiry(time.Duration(hours) * time.Hour)
}

// clampExpiry 未配置或超过上限时使用7天
func clampExpiry(d time.Duration) time.Duration {
	if d <= 0 || d > maxPresignExpiry {
		return maxPresignExpiry
	}
	return d
}

func (m *MinIO) ensureBucketExists(ctx context.Context, location string) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", m.bucket, err)
	}
	m.logger.Info().Str("bucket", m.bucket).Msg("存储桶已创建")
	return nil
}

// setupLifecycle 原始简历按天数过期
func (m *MinIO) setupLifecycle(ctx context.Context, expiryDays int) error {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:         "expire-resumes",
			Status:     "Enabled",
			RuleFilter: lifecycle.Filter{Prefix: ResumeObjectPrefix},
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, m.bucket, cfg)
}

// Upload 上传原始简历并返回预签名下载链接
func (m *MinIO) Upload(ctx context.Context, data []byte, filename string) (*types.StoredObject, error) {
	objectName := ResumeObjectKey(filename, m.now())
	ctx, span := minioTracer.Start(ctx, "MinIO.Upload",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("storage.bucket", m.bucket),
			attribute.String("storage.object", tracing.TruncateString(objectName, tracing.MaxObjectLength)),
			attribute.Int("storage.size", len(data)),
		))
	defer span.End()

	info, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: getContentType(filepath.Ext(filename))})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, fmt.Errorf("上传对象 %s/%s 失败: %w", m.bucket, objectName, err)
	}
	m.logger.Debug().Str("object", objectName).Str("etag", info.ETag).Int64("size", info.Size).Msg("简历已上传")

	link, err := m.GetPresignedURL(ctx, objectName, m.expiry)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, err
	}
	return &types.StoredObject{Key: objectName, URL: link}, nil
}

// GetPresignedURL 获取预签名URL
func (m *MinIO) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	presignedURL, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, clampExpiry(expiry), nil)
	if err != nil {
		return "", fmt.Errorf("生成MinIO预签名URL失败: %w", err)
	}
	return presignedURL.String(), nil
}

// DeleteFile 删除文件，对象不存在时不报错
func (m *MinIO) DeleteFile(ctx context.Context, objectName string) error {
	ctx, span := minioTracer.Start(ctx, "MinIO.DeleteFile",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("storage.bucket", m.bucket),
			attribute.String("storage.object", tracing.TruncateString(objectName, tracing.MaxObjectLength)),
		))
	defer span.End()

	if err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return fmt.Errorf("删除对象 %s 失败: %w", objectName, err)
	}
	return nil
}

// ResumeObjectPrefix 简历对象的key前缀
const ResumeObjectPrefix = "resumes/"

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ResumeObjectKey 生成 resumes/<文件名>_<时间戳>.<扩展名>
func ResumeObjectKey(filename string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.Trim(unsafeNameChars.ReplaceAllString(stem, "_"), "_.")
	if stem == "" {
		stem = "resume"
	}
	return fmt.Sprintf("%s%s_%s%s", ResumeObjectPrefix, stem, now.UTC().Format("20060102_150405"), ext)
}

// 获取内容类型
func getContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
