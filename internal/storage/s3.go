package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/bookshelf/internal/metrics"
	"github.com/lehigh-university-libraries/bookshelf/internal/models"
)

// S3Config points the store at an S3-compatible bucket
type S3Config struct {
	Endpoint        string `koanf:"endpoint"`
	Region          string `koanf:"region"`
	Bucket          string `koanf:"bucket"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	PublicURL       string `koanf:"public_url"`
	UsePathStyle    bool   `koanf:"use_path_style"`
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store keeps media in an S3 bucket
type S3Store struct {
	client s3API
	cfg    S3Config
}

// NewS3Store builds an S3 client from static credentials
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Store{client: client, cfg: cfg}, nil
}

// Upload writes the file under folder with a random key
func (s *S3Store) Upload(ctx context.Context, file *models.UploadedFile, folder string) (*models.StoredMedia, error) {
	if file == nil || len(file.Data) == 0 {
		return nil, ErrEmptyFile
	}

	id := uuid.NewString()
	name := id + strings.ToLower(path.Ext(file.Filename))
	key := objectKey(folder, name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file.Data),
		ContentType:   aws.String(file.MIMEType),
		ContentLength: aws.Int64(int64(len(file.Data))),
		Metadata: map[string]string{
			"original-name": file.Filename,
		},
	})
	metrics.RecordStorage("s3", "upload", err)
	if err != nil {
		slog.Error("Failed to upload file to S3", "key", key, "err", err)
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	slog.Info("File uploaded to S3", "key", key, "size", len(file.Data))

	return &models.StoredMedia{
		ID:           id,
		Name:         name,
		OriginalName: file.Filename,
		Size:         int64(len(file.Data)),
		Type:         file.MIMEType,
		Bucket:       s.cfg.Bucket,
		URL:          s.publicURL(key),
		Folder:       folder,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// List returns every object under folder, newest first
func (s *S3Store) List(ctx context.Context, folder string) ([]models.StoredMedia, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
	}
	if folder != "" {
		input.Prefix = aws.String(folder + "/")
	}

	var media []models.StoredMedia
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			metrics.RecordStorage("s3", "list", err)
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			name := path.Base(key)
			media = append(media, models.StoredMedia{
				ID:           strings.TrimSuffix(name, path.Ext(name)),
				Name:         name,
				OriginalName: name,
				Size:         aws.ToInt64(obj.Size),
				Type:         mime.TypeByExtension(path.Ext(name)),
				Bucket:       s.cfg.Bucket,
				URL:          s.publicURL(key),
				Folder:       folder,
				CreatedAt:    aws.ToTime(obj.LastModified).UTC(),
			})
		}
	}
	metrics.RecordStorage("s3", "list", nil)

	sort.Slice(media, func(i, j int) bool {
		return media[i].CreatedAt.After(media[j].CreatedAt)
	})
	return media, nil
}

func (s *S3Store) publicURL(key string) string {
	if s.cfg.PublicURL != "" {
		return strings.TrimSuffix(s.cfg.PublicURL, "/") + "/" + key
	}
	if s.cfg.Endpoint != "" {
		return strings.TrimSuffix(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

func objectKey(folder, name string) string {
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
