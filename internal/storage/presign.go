// Package storage hands out presigned S3 PUT URLs so clients upload leaf
// images directly to the bucket and then record the resulting imageUrl.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iliyamo/plant-disease-monitor/internal/config"
)

var (
	// ErrDisabled is returned when no bucket is configured.
	ErrDisabled = errors.New("image uploads are not configured")
	// ErrUnsupportedType rejects content types other than common images.
	ErrUnsupportedType = errors.New("unsupported content type")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// seams for tests
var (
	loadAWSConfig    = awsconfig.LoadDefaultConfig
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// Upload describes where the client should PUT the image and the URL to
// store on the detection afterwards.
type Upload struct {
	UploadURL string    `json:"uploadUrl"`
	ImageURL  string    `json:"imageUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Presigner signs PUT requests for one bucket.
type Presigner struct {
	bucket    string
	publicURL string
	ttl       time.Duration
	client    *s3.PresignClient

	now   func() time.Time
	newID func() string
}

// New builds a presigner from cfg.  An empty bucket yields a disabled
// presigner rather than an error.
func New(ctx context.Context, cfg config.S3Config) (*Presigner, error) {
	p := &Presigner{
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		ttl:       cfg.PresignTTL,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if p.ttl <= 0 {
		p.ttl = 15 * time.Minute
	}
	if cfg.Bucket == "" {
		return p, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := loadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	p.client = s3.NewPresignClient(client)
	return p, nil
}

// Enabled reports whether uploads can be presigned.
func (p *Presigner) Enabled() bool { return p != nil && p.client != nil }

// PresignUpload returns a PUT URL for a new object under
// detections/{userID}/{yyyy}/{mm}/{dd}/{uuid}.
func (p *Presigner) PresignUpload(ctx context.Context, userID, contentType string) (Upload, error) {
	if !p.Enabled() {
		return Upload{}, ErrDisabled
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !allowedTypes[contentType] {
		return Upload{}, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	now := p.now().UTC()
	key := path.Join("detections", userID, now.Format("2006"), now.Format("01"), now.Format("02"), p.newID())

	req, err := presignPutObject(p.client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return Upload{}, fmt.Errorf("presign put: %w", err)
	}

	return Upload{
		UploadURL: req.URL,
		ImageURL:  p.objectURL(req.URL, key),
		Key:       key,
		ExpiresAt: now.Add(p.ttl),
	}, nil
}

// objectURL prefers the configured public base; otherwise it is the
// presigned URL without its signature query.
func (p *Presigner) objectURL(presigned, key string) string {
	if p.publicURL != "" {
		return p.publicURL + "/" + key
	}
	u, err := url.Parse(presigned)
	if err != nil {
		return presigned
	}
	u.RawQuery = ""
	return u.String()
}
