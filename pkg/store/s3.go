package store

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// S3Store reads keys from a bucket under a fixed prefix
type S3Store struct {
	s3Api  s3iface.S3API
	bucket string
	prefix string
}

func NewS3Store(s3Api s3iface.S3API, bucket string, prefix string) *S3Store {
	return &S3Store{s3Api: s3Api, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Store) Locator() string {
	return "s3://" + JoinKey(s.bucket, s.prefix) + "/"
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	path := JoinKey(s.prefix, key)

	result, err := s.s3Api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, errors.Wrap(ErrNotFound, "s3://"+s.bucket+"/"+path)
		}
		return nil, errors.Wrapf(err, "failed to read s3://%v/%v", s.bucket, path)
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

func isS3NotFound(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		return aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound"
	}
	return false
}
