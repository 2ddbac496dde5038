// Package s3 provides a blobstore.Store backed by Amazon S3.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/time/rate"

	"github.com/hupe1980/docidx/blobstore"
)

// Compile-time check to ensure Store satisfies the blobstore contract.
var _ blobstore.Store = (*Store)(nil)

// Client is the subset of the S3 API the store uses. *s3.Client satisfies
// it; tests substitute mocks.
type Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store implements blobstore.Store for S3. Reads use ranged GetObject
// requests so a mapped-style partial read does not download the whole
// artifact.
type Store struct {
	client  Client
	bucket  string
	prefix  string
	limiter *rate.Limiter
}

// Options contains configuration options for the S3 store.
type Options struct {
	// Prefix is prepended to all keys (e.g. "docidx/").
	Prefix string

	// RequestsPerSecond throttles API calls. Zero disables throttling.
	RequestsPerSecond int
}

// NewStore creates a new S3 blob store on the given bucket.
func NewStore(client Client, bucket string, optFns ...func(o *Options)) *Store {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.RequestsPerSecond)
	}

	return &Store{
		client:  client,
		bucket:  bucket,
		prefix:  opts.Prefix,
		limiter: limiter,
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) func(o *Options) {
	return func(o *Options) {
		o.Prefix = prefix
	}
}

// WithRequestsPerSecond throttles S3 API calls.
func WithRequestsPerSecond(rps int) func(o *Options) {
	return func(o *Options) {
		o.RequestsPerSecond = rps
	}
}

// NewStoreFromConfig resolves the default AWS config and creates a store.
func NewStoreFromConfig(ctx context.Context, bucket string, optFns ...func(o *Options)) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	return NewStore(s3.NewFromConfig(cfg), bucket, optFns...), nil
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open opens a blob for reading. Existence and size are resolved with a
// HeadObject call; content is fetched lazily per ReadAt.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, blobstore.ErrNotFound
		}
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &s3Blob{
		client:  s.client,
		limiter: s.limiter,
		bucket:  s.bucket,
		key:     key,
		size:    aws.ToInt64(head.ContentLength),
	}, nil
}

// Put uploads a blob. The managed uploader splits large artifacts into
// parallel multipart uploads.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	uploader := manager.NewUploader(s.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(data),
	})
	return err
}

// Delete removes a blob. S3 deletes are idempotent, so a missing key is
// not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List returns all blob names under the prefix, relative to the store
// prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})

	for paginator.HasMorePages() {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			relPath := aws.ToString(obj.Key)
			if len(s.prefix) > 0 {
				if len(relPath) > len(s.prefix) && relPath[:len(s.prefix)] == s.prefix {
					relPath = relPath[len(s.prefix):]
					if len(relPath) > 0 && relPath[0] == '/' {
						relPath = relPath[1:]
					}
				}
			}
			keys = append(keys, relPath)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// s3Blob implements blobstore.Blob over ranged GetObject requests.
type s3Blob struct {
	client  Client
	limiter *rate.Limiter
	bucket  string
	key     string
	size    int64
}

func (b *s3Blob) Close() error {
	return nil
}

func (b *s3Blob) Size() int64 {
	return b.size
}

func (b *s3Blob) ReadAt(p []byte, off int64) (int, error) {
	if off >= b.size {
		return 0, io.EOF
	}

	ctx := context.Background()
	if err := b.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	end := off + int64(len(p)) - 1
	if end >= b.size {
		end = b.size - 1
	}

	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.ReadFull(resp.Body, p[:end-off+1])
	if err != nil {
		return n, err
	}
	if int64(n) < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}
