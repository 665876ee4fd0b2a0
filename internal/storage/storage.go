// Package storage uploads media assets to an S3-compatible bucket and hands
// back their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadPartSize = 5 * 1024 * 1024

var (
	ErrUnknownCategory  = errors.New("unknown upload category")
	ErrUnsupportedMedia = errors.New("unsupported content type")
)

// Category selects the bucket folder and the accepted content types.
type Category string

const (
	CategoryCover   Category = "cover"
	CategoryProfile Category = "profile"
	CategoryVideo   Category = "video"
	CategoryBanner  Category = "banner"
)

var categoryFolders = map[Category]string{
	CategoryCover:   "covers",
	CategoryProfile: "profiles",
	CategoryVideo:   "videos",
	CategoryBanner:  "banners",
}

var imageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

var videoTypes = []string{"video/mp4", "video/webm", "video/quicktime"}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categoryFolders[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

func (c Category) Folder() string { return categoryFolders[c] }

// Accepts reports whether contentType may be stored under c. Parameters such
// as "; charset=" are ignored.
func (c Category) Accepts(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	allowed := imageTypes
	if c == CategoryVideo {
		allowed = videoTypes
	}
	for _, t := range allowed {
		if t == mediaType {
			return true
		}
	}
	return false
}

// Asset is the stored reference returned to clients.
type Asset struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type Config struct {
	Endpoint       string
	PublicEndpoint string // Used for asset URLs; falls back to Endpoint if empty
	Bucket         string
	AccessKey      string
	SecretKey      string
	Region         string
}

// objectAPI is the part of the S3 client Storage calls directly; uploads go
// through the manager.
type objectAPI interface {
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

type Storage struct {
	client    objectAPI
	uploader  *manager.Uploader
	bucket    string
	publicURL string
	newID     func() string
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = uploadPartSize
		u.LeavePartsOnError = false
	})

	publicEndpoint := cfg.Endpoint
	if cfg.PublicEndpoint != "" {
		publicEndpoint = cfg.PublicEndpoint
	}

	return &Storage{
		client:    client,
		uploader:  uploader,
		bucket:    cfg.Bucket,
		publicURL: publicBase(publicEndpoint, cfg.Bucket),
		newID:     uuid.NewString,
	}, nil
}

func publicBase(endpoint, bucket string) string {
	endpoint = strings.TrimSuffix(endpoint, "/")
	if endpoint == "" {
		return ""
	}
	return endpoint + "/" + bucket
}

// Save streams body into the category's folder under a unique key derived
// from filename.
func (s *Storage) Save(ctx context.Context, category Category, filename, contentType string, body io.Reader) (Asset, error) {
	if !category.Accepts(contentType) {
		return Asset{}, fmt.Errorf("%w: %s for %s", ErrUnsupportedMedia, contentType, category)
	}
	key := objectKey(category, filename, s.newID())

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Asset{}, fmt.Errorf("upload object %s: %w", key, err)
	}
	return Asset{Key: key, URL: s.assetURL(key)}, nil
}

func (s *Storage) assetURL(key string) string {
	if s.publicURL == "" {
		return key
	}
	return s.publicURL + "/" + key
}

// RemoveAsset deletes the object behind a URL returned by Save. URLs that
// point elsewhere, or outside the upload folders, are ignored.
func (s *Storage) RemoveAsset(ctx context.Context, assetURL string) error {
	key, ok := s.keyFromURL(assetURL)
	if !ok {
		return nil
	}
	return s.DeleteObject(ctx, key)
}

func (s *Storage) keyFromURL(assetURL string) (string, bool) {
	if s.publicURL == "" {
		return "", false
	}
	key, ok := strings.CutPrefix(assetURL, s.publicURL+"/")
	if !ok {
		return "", false
	}
	folder, name, ok := strings.Cut(key, "/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	for _, f := range categoryFolders {
		if f == folder {
			return key, true
		}
	}
	return "", false
}

func (s *Storage) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// objectKey builds "<folder>/<base>-<id><ext>" from the client's filename.
func objectKey(category Category, filename, id string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(path.Ext(name))
	base := sanitizeBase(strings.TrimSuffix(name, path.Ext(name)))
	if base == "" {
		return fmt.Sprintf("%s/%s%s", category.Folder(), id, sanitizeExt(ext))
	}
	return fmt.Sprintf("%s/%s-%s%s", category.Folder(), base, id, sanitizeExt(ext))
}

func sanitizeExt(ext string) string {
	cleaned := sanitizeBase(strings.TrimPrefix(ext, "."))
	if cleaned == "" {
		return ""
	}
	return "." + cleaned
}

// sanitizeBase keeps letters, digits, dashes and underscores, turning every
// other rune into a dash and collapsing runs.
func sanitizeBase(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteRune('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
