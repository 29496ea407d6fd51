package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/medscribe-team/clinical-scribe/pkg/config"
)

// MinIOClient wraps object storage for chunk scratch space and assembled
// recordings. Chunks live under chunks/<session-id>/<index> until assembly;
// assembled audio lives under recordings/<recording-id>.
type MinIOClient struct {
	client *minio.Client
	bucket string
}

// NewMinIOClient creates a new MinIO client
func NewMinIOClient(cfg *config.StorageConfig) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client: minioClient,
		bucket: cfg.BucketName,
	}

	ctx := context.Background()
	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return client, nil
}

// ensureBucket ensures the bucket exists
func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

func chunkKey(sessionID string, index int) string {
	return fmt.Sprintf("chunks/%s/%06d", sessionID, index)
}

func recordingKey(recordingID string) string {
	return fmt.Sprintf("recordings/%s", recordingID)
}

// PutChunk stores one chunk of an upload session. Overwriting an existing
// key is harmless; re-uploads with identical bytes land on the same object.
func (m *MinIOClient) PutChunk(ctx context.Context, sessionID string, index int, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, chunkKey(sessionID, index),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		})
	if err != nil {
		return fmt.Errorf("failed to store chunk %d: %w", index, err)
	}

	return nil
}

// GetChunk reads one stored chunk back.
func (m *MinIOClient) GetChunk(ctx context.Context, sessionID string, index int) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, chunkKey(sessionID, index), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk %d: %w", index, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk %d: %w", index, err)
	}

	return data, nil
}

// RemoveChunks deletes all scratch chunks for a session.
func (m *MinIOClient) RemoveChunks(ctx context.Context, sessionID string) error {
	prefix := fmt.Sprintf("chunks/%s/", sessionID)

	objectCh := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return fmt.Errorf("error listing chunks: %w", object.Err)
		}
		if err := m.client.RemoveObject(ctx, m.bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove chunk %s: %w", object.Key, err)
		}
	}

	return nil
}

// PutRecording stores an assembled recording and returns its object key.
func (m *MinIOClient) PutRecording(ctx context.Context, recordingID string, reader io.Reader, size int64, contentType string) (string, error) {
	key := recordingKey(recordingID)

	_, err := m.client.PutObject(ctx, m.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store recording: %w", err)
	}

	return key, nil
}

// GetRecording reads an assembled recording back.
func (m *MinIOClient) GetRecording(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}

	return data, nil
}
