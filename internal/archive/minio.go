package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

type MinIOStore struct {
	client     *minio.Client
	bucketName string
}

func NewMinIOStore(client *minio.Client, bucketName string) *MinIOStore {
	return &MinIOStore{client: client, bucketName: bucketName}
}

// Put uploads an archive under archives/<room>/<yyyy>/<mm>/<dd>/<uuid>.json
func (m *MinIOStore) Put(ctx context.Context, a Archive) (string, error) {
	data, err := encode(a)
	if err != nil {
		return "", err
	}

	at := a.ExportedAt
	objectName := fmt.Sprintf(
		"archives/%s/%d/%02d/%02d/%s.json",
		a.RoomID,
		at.Year(),
		at.Month(),
		at.Day(),
		uuid.NewString(),
	)

	_, err = m.client.PutObject(
		ctx,
		m.bucketName,
		objectName,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload to minio: %w", err)
	}

	return objectName, nil
}

// Get downloads and decodes an archive
func (m *MinIOStore) Get(ctx context.Context, key string) (Archive, error) {
	object, err := m.client.GetObject(ctx, m.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return Archive{}, fmt.Errorf("failed to get object: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return Archive{}, ErrNotFound
		}
		return Archive{}, fmt.Errorf("failed to read object: %w", err)
	}

	return decode(data)
}

func (m *MinIOStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucketName, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned url: %w", err)
	}
	return url.String(), nil
}
