package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"emergency-dashboard/internal/s3util"
)

// videoStore abstracts where uploaded incident videos live: S3 in production,
// a local directory in local mode.
type videoStore interface {
	// UploadTarget returns the URL the browser PUTs the video to, plus the
	// key the stored video can be fetched back with.
	UploadTarget(ctx context.Context, fileName, contentType string) (uploadURL, videoKey string, err error)

	// FetchToTemp makes the stored video available as a local file for
	// processing. cleanup releases the local copy.
	FetchToTemp(ctx context.Context, videoKey string) (path string, cleanup func(), err error)
}

// --- S3-backed store ---

type s3VideoStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

func newS3VideoStore(client *s3.Client, bucket string) *s3VideoStore {
	return &s3VideoStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}
}

func (s *s3VideoStore) UploadTarget(ctx context.Context, fileName, contentType string) (string, string, error) {
	return s3util.PresignUpload(ctx, s.presign, s.bucket, fileName, contentType)
}

func (s *s3VideoStore) FetchToTemp(ctx context.Context, videoKey string) (string, func(), error) {
	return s3util.DownloadToTempFile(ctx, s.client, s.bucket, videoKey)
}

// --- Local directory store ---

// localVideoStore keeps videos in a directory and serves upload URLs pointing
// back at this process (PUT /api/local-upload/{key}). It exists so the system
// runs end to end without AWS credentials.
type localVideoStore struct {
	dir     string
	baseURL string
}

func newLocalVideoStore(dir, baseURL string) (*localVideoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create video directory: %w", err)
	}
	return &localVideoStore{dir: dir, baseURL: baseURL}, nil
}

func (s *localVideoStore) UploadTarget(ctx context.Context, fileName, contentType string) (string, string, error) {
	key := s3util.VideoKey(fileName)
	return s.baseURL + "/api/local-upload/" + key, key, nil
}

func (s *localVideoStore) FetchToTemp(ctx context.Context, videoKey string) (string, func(), error) {
	path, err := s.localPath(videoKey)
	if err != nil {
		return "", nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return "", nil, fmt.Errorf("video %s not found: %w", videoKey, err)
	}
	// The stored file is the local copy; nothing to release.
	return path, func() {}, nil
}

// Put stores an uploaded video body under the given key.
func (s *localVideoStore) Put(videoKey string, body io.Reader) error {
	path, err := s.localPath(videoKey)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	n, err := io.Copy(f, body)
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.Debug().Str("key", videoKey).Int64("bytes", n).Msg("Video stored locally")
	return nil
}

func (s *localVideoStore) localPath(videoKey string) (string, error) {
	name := strings.TrimPrefix(videoKey, "videos/")
	if err := validateFilename(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}
