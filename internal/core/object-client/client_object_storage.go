package objectclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	appcfg "github.com/lexin-ta/lexin-api/internal/config"
	"github.com/lexin-ta/lexin-api/internal/core"
)

// clearBucketWorkers bounds the parallel deletes issued by ClearBucket.
const clearBucketWorkers = 8

var _ core.ObjectClient = (*S3Client)(nil)

// S3Client stores original legal document files in an S3 bucket and hands out
// stable virtual-hosted URLs as resource locators.
type S3Client struct {
	client *s3.Client
	region string
}

func NewS3Client(ctx context.Context, cfg *appcfg.Config) (*S3Client, error) {
	if cfg.AwsAccessKey == "" || cfg.AwsSecretKey == "" {
		return nil, fmt.Errorf("AWS credentials not set")
	}
	if cfg.AwsRegion == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(cfg.AwsRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AwsAccessKey, cfg.AwsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	logrus.Info("Connected to AWS S3 successfully")

	return &S3Client{
		client: s3.NewFromConfig(awsCfg),
		region: cfg.AwsRegion,
	}, nil
}

// UploadFile uploads a blob and returns its public URL. Blob names are
// deterministic (<folder>/<filename>), so a colliding name within one
// ingestion batch is a caller error, not handled here.
func (c *S3Client) UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	uploader := manager.NewUploader(c.client)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if _, err := uploader.Upload(ctxUpload, input); err != nil {
		return "", &core.UpstreamError{Op: "s3 upload", StatusCode: 502, Detail: err.Error()}
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, c.region, key), nil
}

func (c *S3Client) DeleteFile(ctx context.Context, bucket, key string) error {
	ctxDel, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := c.client.DeleteObject(ctxDel, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &core.UpstreamError{Op: "s3 delete", StatusCode: 502, Detail: err.Error()}
	}
	return nil
}

func (c *S3Client) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	ctxGet, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	resp, err := c.client.GetObject(ctxGet, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &core.UpstreamError{Op: "s3 get", StatusCode: 502, Detail: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

// ClearBucket deletes everything under prefix on a bounded worker pool.
// Best-effort: per-object failures are logged and skipped.
func (c *S3Client) ClearBucket(ctx context.Context, bucket, prefix string) {
	pool, err := ants.NewPool(clearBucketWorkers)
	if err != nil {
		logrus.Errorf("clear bucket %s: worker pool: %v", bucket, err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logrus.Errorf("clear bucket %s: list objects: %v", bucket, err)
			break
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				if err := c.DeleteFile(ctx, bucket, key); err != nil {
					logrus.Warnf("clear bucket %s: delete %s: %v", bucket, key, err)
				}
			})
			if submitErr != nil {
				wg.Done()
				logrus.Warnf("clear bucket %s: submit delete %s: %v", bucket, key, submitErr)
			}
		}
	}

	wg.Wait()
}

// ParseObjectURL extracts the bucket and key from a virtual-hosted-style S3
// URL. Example: https://my-bucket.s3.us-east-2.amazonaws.com/path/to/file.pdf
func ParseObjectURL(u string) (bucket, key string) {
	hostPath := strings.SplitN(strings.TrimPrefix(u, "https://"), "/", 2)
	host := hostPath[0]
	if len(hostPath) == 2 {
		key = hostPath[1]
	}
	parts := strings.Split(host, ".")
	if len(parts) > 0 {
		bucket = parts[0]
	}
	return bucket, key
}
