package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/airbusgeo/sentinelhub-batch-go/service/log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Downloader fetches the output tiles of a finished batch request from
// its s3 bucket. With empty credentials the ambient AWS configuration is
// used.
type S3Downloader struct {
	accessKeyID     string
	secretAccessKey string
	region          string
}

// NewS3Downloader creates a downloader for the given region
func NewS3Downloader(accessKeyID, secretAccessKey, region string) *S3Downloader {
	return &S3Downloader{accessKeyID, secretAccessKey, region}
}

// DownloadResults downloads every object under bucket/prefix into localDir,
// preserving the key hierarchy. It returns the number of objects fetched.
func (d *S3Downloader) DownloadResults(ctx context.Context, bucket, prefix, localDir string) (int, error) {
	opts := []func(*config.LoadOptions) error{}
	if d.region != "" {
		opts = append(opts, config.WithRegion(d.region))
	}
	if d.accessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(d.accessKeyID, d.secretAccessKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return 0, fmt.Errorf("S3Downloader config.LoadDefaultConfig: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		d.PartSize = 10 * 1024 * 1024 // 10MB per part
	})

	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	count := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return count, fmt.Errorf("S3Downloader paginator.NextPage: %w", err)
		}

		for _, object := range page.Contents {
			objectKey := aws.ToString(object.Key)
			if strings.HasSuffix(objectKey, "/") {
				continue
			}
			localFilePath := path.Join(localDir, strings.TrimPrefix(objectKey, prefix))
			if err := downloadObjectToFile(ctx, downloader, bucket, objectKey, localFilePath); err != nil {
				return count, fmt.Errorf("S3Downloader.%w", err)
			}
			count++
			log.Logger(ctx).Sugar().Debugf("downloaded s3://%s/%s", bucket, objectKey)
		}
	}

	return count, nil
}

func downloadObjectToFile(ctx context.Context, downloader *manager.Downloader, bucket, objectKey, localPath string) error {
	if err := os.MkdirAll(path.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("downloadObjectToFile os.MkdirAll: %w", err)
	}
	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("downloadObjectToFile: failed to create file %s: %w", localPath, err)
	}
	defer file.Close()

	if _, err = downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return fmt.Errorf("downloadObjectToFile: failed to download object %s:%s: %w", bucket, objectKey, err)
	}

	return nil
}
