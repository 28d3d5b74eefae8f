package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"harmonyhub/config"
	"harmonyhub/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxObjectSize 对象存储上游的单文件大小上限（100MB）
// 超限的提交必须在任何网络传输发生之前被拒绝
const MaxObjectSize = 100 << 20

// ErrObjectTooLarge payload超过对象存储上限
var ErrObjectTooLarge = fmt.Errorf("object exceeds %d MB limit", MaxObjectSize>>20)

// ObjectStore 对象存储协作方：写入字节、返回可公开访问的URL
type ObjectStore interface {
	Upload(ctx context.Context, folder, fileName string, data []byte, contentType string) (url string, objectID string, err error)
}

// MinioStore 基于MinIO的ObjectStore实现
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore 初始化 MinIO 客户端并确认存储桶可用
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	logger.Info("正在连接 MinIO 服务器",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("存储桶创建成功", logger.String("bucket", cfg.MinioBucket))
	}

	publicURL := cfg.MinioPublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.MinioEndpoint, cfg.MinioBucket)
	}

	return &MinioStore{
		client:    client,
		bucket:    cfg.MinioBucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload 将字节写入指定目录，返回可公开访问的URL与对象标识
// 文件名加唯一前缀，避免同名覆盖
func (s *MinioStore) Upload(ctx context.Context, folder, fileName string, data []byte, contentType string) (string, string, error) {
	if int64(len(data)) > MaxObjectSize {
		return "", "", ErrObjectTooLarge
	}

	objectID := uuid.NewString()[:8] + "_" + sanitizeFileName(fileName)
	objectPath := path.Join(folder, objectID)

	uploadCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	opts := minio.PutObjectOptions{
		ContentType:      contentType,
		DisableMultipart: true,
	}
	if _, err := s.client.PutObject(uploadCtx, s.bucket, objectPath, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return "", "", fmt.Errorf("failed to upload to MinIO: %w", err)
	}

	logger.Info("文件上传成功",
		logger.String("objectPath", objectPath),
		logger.Int("size", len(data)),
		logger.String("contentType", contentType))

	return s.publicURL + "/" + objectPath, objectPath, nil
}

var fileNameReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "?", "", "#", "", "%", "")

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "untitled"
	}
	return fileNameReplacer.Replace(name)
}

// Object 按对象路径打开只读流，用于静态文件代理
func (s *MinioStore) Object(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", objectPath, err)
	}
	return object, nil
}
