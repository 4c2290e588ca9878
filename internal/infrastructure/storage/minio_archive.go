package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"vision-diagnostics/internal/domain/port"
)

// MinioReportArchive складывает JSON-отчёты в бакет MinIO/S3
type MinioReportArchive struct {
	client     *minio.Client
	bucketName string
}

// NewMinioReportArchive подключается к MinIO и создаёт бакет, если его нет
func NewMinioReportArchive(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*MinioReportArchive, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	return &MinioReportArchive{client: cli, bucketName: bucket}, nil
}

// Put загружает отчёт и возвращает его адрес
func (a *MinioReportArchive) Put(ctx context.Context, key string, data []byte) (string, error) {
	_, err := a.client.PutObject(ctx, a.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return fmt.Sprintf("%s/%s/%s", a.client.EndpointURL().String(), a.bucketName, key), nil
}

var _ port.ReportArchive = (*MinioReportArchive)(nil)
