// Package s3util provides the S3 helpers used by the incident API: presigned
// upload URLs for incident videos and object download for processing.
package s3util

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// UploadURLExpiry is how long a presigned upload URL stays valid.
const UploadURLExpiry = time.Hour

// VideoKey returns the object key an uploaded incident video is stored under.
func VideoKey(fileName string) string {
	return "videos/" + fileName
}

// PresignUpload creates a presigned PUT URL for an incident video. The content
// type is part of the signature, so the browser must send the same type it
// requested the URL with.
func PresignUpload(ctx context.Context, presignClient *s3.PresignClient, bucket, fileName, contentType string) (string, string, error) {
	key := VideoKey(fileName)

	result, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = UploadURLExpiry
	})
	if err != nil {
		return "", "", fmt.Errorf("presign PutObject: %w", err)
	}

	log.Debug().
		Str("bucket", bucket).
		Str("key", key).
		Str("contentType", contentType).
		Msg("Presigned upload URL issued")

	return result.URL, key, nil
}

// PresignDownload creates a presigned GET URL for a stored object.
func PresignDownload(ctx context.Context, presignClient *s3.PresignClient, bucket, key string, expiry time.Duration) (string, error) {
	result, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket), Key: aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign GetObject: %w", err)
	}
	return result.URL, nil
}

// DownloadToTempFile downloads an S3 object to a new temporary file and
// returns the file path plus a cleanup function that removes it.
func DownloadToTempFile(ctx context.Context, client *s3.Client, bucket, key string) (string, func(), error) {
	tmpFile, err := os.CreateTemp("", "incident-video-*"+filepath.Ext(key))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", nil, fmt.Errorf("S3 GetObject: %w", err)
	}
	defer result.Body.Close()

	n, err := io.Copy(tmpFile, result.Body)
	if err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", nil, fmt.Errorf("download %s: %w", key, err)
	}
	tmpFile.Close()

	log.Debug().
		Str("bucket", bucket).
		Str("key", key).
		Int64("bytes", n).
		Msg("Video downloaded for processing")

	cleanup := func() { os.Remove(tmpFile.Name()) }
	return tmpFile.Name(), cleanup, nil
}
