package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"learnsphere_backend/internal/config"
	"learnsphere_backend/internal/util"
	"learnsphere_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageService 头像等静态文件存储，支持本地磁盘与 MinIO 两种后端。
type StorageService struct {
	cfg    config.StorageConfig
	client *minio.Client
}

func NewStorageService(cfg config.StorageConfig) (*StorageService, error) {
	s := &StorageService{cfg: cfg}

	if cfg.Type == util.StorageMinio {
		client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds: credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init minio client: %w", err)
		}
		s.client = client

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		exists, err := client.BucketExists(ctx, cfg.MinioBucket)
		if err != nil {
			return nil, fmt.Errorf("failed to check minio bucket: %w", err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("failed to create minio bucket: %w", err)
			}
		}
	}
	return s, nil
}

// UploadAvatar 校验扩展名与 MIME 后存储，返回可访问路径。
func (s *StorageService) UploadAvatar(ctx context.Context, userID uint, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := false
	for _, e := range util.AllowedImageExtensions {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", util.NewValidationError("unsupported image format")
	}
	if contentType := file.Header.Get("Content-Type"); contentType != "" && !strings.HasPrefix(contentType, util.MimeImage) {
		return "", util.NewValidationError("file is not an image")
	}

	objectName := fmt.Sprintf("avatars/%d/%s%s", userID, uuid.New().String(), ext)

	if s.cfg.Type == util.StorageMinio {
		return s.uploadMinio(ctx, objectName, file)
	}
	return s.uploadLocal(objectName, file)
}

func (s *StorageService) uploadMinio(ctx context.Context, objectName string, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	_, err = s.client.PutObject(ctx, s.cfg.MinioBucket, objectName, src, file.Size, minio.PutObjectOptions{
		ContentType: file.Header.Get("Content-Type"),
	})
	if err != nil {
		logger.Log.Error("minio upload failed", zap.String("object", objectName), zap.Error(err))
		return "", err
	}
	return fmt.Sprintf("/%s/%s", s.cfg.MinioBucket, objectName), nil
}

func (s *StorageService) uploadLocal(objectName string, file *multipart.FileHeader) (string, error) {
	dst := filepath.Join(s.cfg.LocalPath, objectName)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", err
	}
	return "/uploads/" + objectName, nil
}
