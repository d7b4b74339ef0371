package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"monitoring-service/internal/config"
	"monitoring-service/internal/models"
)

// MinioClient wraps the MinIO client with monitoring service specific
// functionality.
type MinioClient struct {
	client *minio.Client
	config config.MinioConfig
}

// Storage defines bucket names for the monitoring service.
var Storage = struct {
	DamageEvidence  string
	AnalysisReports string
}{
	DamageEvidence:  "damage-evidence",
	AnalysisReports: "analysis-reports",
}

// BucketNames contains all bucket names the service requires at startup.
var BucketNames = []string{
	Storage.DamageEvidence,
	Storage.AnalysisReports,
}

// NewMinioClient initializes a new MinIO client with the provided
// configuration and ensures the required buckets exist.
func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	endpoint := strings.TrimPrefix(cfg.MinioURL, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	isSecure, err := strconv.ParseBool(cfg.MinioSecure)
	if err != nil {
		slog.Warn("invalid value for MinIO secure flag, defaulting to false", "error", err)
		isSecure = false
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: isSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := minioClient.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO server: %w", err)
	}

	mc := &MinioClient{
		client: minioClient,
		config: cfg,
	}

	if err := mc.ensureRequiredBuckets(); err != nil {
		return nil, fmt.Errorf("failed to ensure required buckets: %w", err)
	}

	slog.Info("MinIO client initialized", "endpoint", endpoint, "buckets", len(BucketNames))
	return mc, nil
}

// ensureRequiredBuckets creates all required buckets if they don't exist.
func (mc *MinioClient) ensureRequiredBuckets() error {
	ctx := context.Background()

	for _, bucketName := range BucketNames {
		exists, err := mc.client.BucketExists(ctx, bucketName)
		if err != nil {
			return fmt.Errorf("failed to check bucket %s: %w", bucketName, err)
		}
		if exists {
			continue
		}
		err = mc.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{
			Region: mc.config.MinioLocation,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
		}
		slog.Info("Created MinIO bucket", "bucket", bucketName)
	}
	return nil
}

// EvidenceArchive stores damage evidence snapshots as JSON objects in the
// damage-evidence bucket. It backs the claim validation service's archiver.
type EvidenceArchive struct {
	mc *MinioClient
}

func NewEvidenceArchive(mc *MinioClient) *EvidenceArchive {
	return &EvidenceArchive{mc: mc}
}

// Archive uploads the full evidence record and returns the object key.
func (a *EvidenceArchive) Archive(ctx context.Context, evidence *models.DamageEvidence) (string, error) {
	objectKey := fmt.Sprintf("evidence/%s/%s.json", evidence.ClaimID, evidence.ID)

	body, err := json.Marshal(evidence)
	if err != nil {
		return "", fmt.Errorf("failed to marshal evidence %s: %w", evidence.ID, err)
	}

	_, err = a.mc.client.PutObject(ctx, Storage.DamageEvidence, objectKey,
		bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to upload evidence %s: %w", evidence.ID, err)
	}

	return objectKey, nil
}
