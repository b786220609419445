// Package artifacts mirrors model artifacts from an S3-compatible bucket into the local models
// directory before the registry is loaded.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/biokgvec/internal/registry"
)

const defaultParallelism = 4

// Config locates the bucket to mirror.
type Config struct {
	Endpoint        string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Result lists what a Sync did.
type Result struct {
	Downloaded []string `json:"downloaded"`
	Unchanged  []string `json:"unchanged"`
}

// Syncer downloads supported artifacts that are missing or stale locally.
type Syncer struct {
	client      *minio.Client
	bucket      string
	prefix      string
	logger      *zap.Logger
	parallelism int
}

// New creates a syncer with static credentials.
func New(cfg Config, logger *zap.Logger) (*Syncer, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("artifact endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create artifact client: %w", err)
	}
	return NewWithClient(client, cfg.Bucket, cfg.Prefix, logger), nil
}

// NewWithClient creates a syncer around an existing client.
func NewWithClient(client *minio.Client, bucket, prefix string, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		client:      client,
		bucket:      bucket,
		prefix:      normalizePrefix(prefix),
		logger:      logger,
		parallelism: defaultParallelism,
	}
}

func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

// objectName returns the local file name for key, or false when key is not a supported
// artifact directly under prefix.
func objectName(prefix, key string) (string, bool) {
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(key, prefix)
	if name == "" || strings.Contains(name, "/") || name != path.Base(name) {
		return "", false
	}
	if _, _, ok := registry.SplitName(name); !ok {
		return "", false
	}
	return name, true
}

// upToDate reports whether a local file matches a remote object.
func upToDate(local os.FileInfo, obj minio.ObjectInfo) bool {
	return local != nil && local.Mode().IsRegular() && local.Size() == obj.Size && !local.ModTime().Before(obj.LastModified)
}

// list collects every object under the prefix. Leaving the loop early stops the lister and
// cancels any request still in flight.
func (s *Syncer) list(ctx context.Context) ([]minio.ObjectInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []minio.ObjectInfo
	for obj := range s.client.ListObjectsIter(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", s.bucket, s.prefix, obj.Err)
		}
		objects = append(objects, obj)
	}
	// The iterator ends silently on cancellation.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", s.bucket, s.prefix, err)
	}
	return objects, nil
}

// Sync mirrors every supported artifact under the prefix into dir. Files are written to a
// temporary name and renamed, so a failed sync never leaves a partial artifact behind.
func (s *Syncer) Sync(ctx context.Context, dir string) (*Result, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create models directory: %w", err)
	}

	objects, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, obj := range objects {
		name, ok := objectName(s.prefix, obj.Key)
		if !ok {
			s.logger.Debug("skipping object", zap.String("key", obj.Key))
			continue
		}
		target := filepath.Join(dir, name)
		if info, err := os.Stat(target); err == nil && upToDate(info, obj) {
			res.Unchanged = append(res.Unchanged, name)
			continue
		}
		g.Go(func() error {
			if err := s.download(gctx, obj.Key, target); err != nil {
				return fmt.Errorf("download %s: %w", obj.Key, err)
			}
			s.logger.Info("downloaded artifact", zap.String("key", obj.Key), zap.Int64("bytes", obj.Size))
			mu.Lock()
			res.Downloaded = append(res.Downloaded, name)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	s.logger.Info("artifact sync complete",
		zap.String("bucket", s.bucket),
		zap.Int("downloaded", len(res.Downloaded)),
		zap.Int("unchanged", len(res.Unchanged)))
	return res, nil
}

func (s *Syncer) download(ctx context.Context, key, target string) error {
	tmp := target + ".part"
	if err := s.client.FGetObject(ctx, s.bucket, key, tmp, minio.GetObjectOptions{}); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, target)
}
