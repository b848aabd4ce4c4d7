package storage

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const signedURLTTL = time.Hour

// Storage persists uploaded attachments under an object key and hands out
// download links for those same keys. Save and FileURL must agree: a key
// returned by a write is what the link endpoint later resolves.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader) error
	FileURL(ctx context.Context, key string) (string, error)
}

type S3Storage struct {
	Client  *s3.Client
	Presign *s3.PresignClient
	Bucket  string
}

func New(ctx context.Context, bucket string) (*S3Storage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg)
	return &S3Storage{
		Client:  client,
		Presign: s3.NewPresignClient(client),
		Bucket:  bucket,
	}, nil
}

func (s *S3Storage) Save(ctx context.Context, key string, r io.Reader) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	return err
}

// FileURL returns a presigned GET URL valid for one hour.
func (s *S3Storage) FileURL(ctx context.Context, key string) (string, error) {
	req, err := s.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(signedURLTTL))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
