package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// S3Options - настройки S3-совместимого хранилища.
type S3Options struct {
	Bucket string
	Region string
	// Endpoint - адрес MinIO и подобных; включает path-style адресацию.
	Endpoint string
	// PublicURL - базовый адрес, по которому объекты отдаются наружу.
	PublicURL string
}

// S3Store пишет вложения в бакет S3.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Store создаёт клиента по стандартной цепочке AWS-настроек.
func NewS3Store(ctx context.Context, o S3Options) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(o.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if o.Endpoint != "" {
		s3opts = append(s3opts, func(so *s3.Options) {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		})
	}
	return NewS3StoreWithClient(s3.NewFromConfig(cfg, s3opts...), o), nil
}

// NewS3StoreWithClient оборачивает готовый клиент.
func NewS3StoreWithClient(client *s3.Client, o S3Options) *S3Store {
	public := strings.TrimRight(o.PublicURL, "/")
	if public == "" {
		if o.Endpoint != "" {
			public = strings.TrimRight(o.Endpoint, "/") + "/" + o.Bucket
		} else {
			public = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", o.Bucket, o.Region)
		}
	}
	return &S3Store{client: client, bucket: o.Bucket, publicURL: public}
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string, meta map[string]string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    meta,
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", mapS3Error(err))
	}
	return nil
}

func (s *S3Store) URL(key string) string {
	return s.publicURL + "/" + escapeKey(key)
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object: %w", mapS3Error(err))
	}
	return nil
}

func (s *S3Store) KeyFromURL(u string) (string, bool) {
	return keyAfterPrefix(u, s.publicURL+"/")
}

// Коды S3, означающие запрет записи, а не сбой.
var deniedCodes = map[string]bool{
	"AccessDenied":       true,
	"Forbidden":          true,
	"AllAccessDisabled":  true,
	"AccountProblem":     true,
	"QuotaExceeded":      true,
	"InvalidAccessKeyId": true,
}

func mapS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && deniedCodes[apiErr.ErrorCode()] {
		return fmt.Errorf("%w: %s", ErrAccessDenied, apiErr.ErrorCode())
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusForbidden {
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}
	return err
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func keyAfterPrefix(u, prefix string) (string, bool) {
	if !strings.HasPrefix(u, prefix) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimPrefix(u, prefix))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}
