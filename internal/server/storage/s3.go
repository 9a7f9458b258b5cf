// Package storage archives uploaded resumes in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ResumeArchive stores a copy of an uploaded resume and returns its key.
type ResumeArchive interface {
	Store(ctx context.Context, userID, filename, contentType string, data []byte) (string, error)
}

// Options describes the bucket and credentials of the archive.
type Options struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Archive writes objects with PutObject.
type S3Archive struct {
	client putter
	bucket string
	now    func() time.Time
	newID  func() string
}

// New returns Nop when no bucket is configured.
func New(ctx context.Context, opts Options) (ResumeArchive, error) {
	if opts.Bucket == "" {
		return Nop{}, nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey, opts.SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return newArchive(client, opts.Bucket), nil
}

func newArchive(client putter, bucket string) *S3Archive {
	return &S3Archive{
		client: client,
		bucket: bucket,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (a *S3Archive) Store(ctx context.Context, userID, filename, contentType string, data []byte) (string, error) {
	key := a.key(userID, filename)

	in := &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      map[string]string{"user-id": userID},
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := a.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

// key lays objects out as resumes/<user>/<yyyy>/<mm>/<dd>/<uuid><ext>.
func (a *S3Archive) key(userID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("resumes/%s/%s/%s%s",
		userID, a.now().UTC().Format("2006/01/02"), a.newID(), ext)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Store(context.Context, string, string, string, []byte) (string, error) {
	return "", nil
}
