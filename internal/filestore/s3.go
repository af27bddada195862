package filestore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	commons3 "github.com/xxxsen/common/s3"
)

func init() {
	Register("s3", newS3Store)
}

type s3Args struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	PublicURL string `json:"public_url"`
	UseSSL    bool   `json:"use_ssl"`
}

// s3Store keeps generated assets in an S3-compatible bucket. Reads go
// through the bucket's public URL, so Open is unsupported here.
type s3Store struct {
	client *commons3.S3Client
	args   *s3Args
}

func newS3Store(rawArgs interface{}) (Store, error) {
	args := &s3Args{}
	if err := decodeConfig(rawArgs, args); err != nil {
		return nil, err
	}
	for name, v := range map[string]string{
		"endpoint": args.Endpoint, "bucket": args.Bucket,
		"secret_id": args.SecretID, "secret_key": args.SecretKey,
	} {
		if v == "" {
			return nil, fmt.Errorf("s3 %s is required", name)
		}
	}
	if args.Region == "" {
		args.Region = "cn"
	}
	args.Prefix = strings.Trim(args.Prefix, "/")
	client, err := commons3.New(
		commons3.WithEndpoint(args.Endpoint),
		commons3.WithSecret(args.SecretID, args.SecretKey),
		commons3.WithBucket(args.Bucket),
		commons3.WithRegion(args.Region),
		commons3.WithSSL(args.UseSSL),
	)
	if err != nil {
		return nil, err
	}
	return &s3Store{client: client, args: args}, nil
}

func (s *s3Store) Save(ctx context.Context, key string, r io.ReadSeeker, size int64) error {
	if key == "" {
		return fmt.Errorf("file key is required")
	}
	_, err := s.client.Upload(ctx, s.objectKey(key), r, size)
	return err
}

func (s *s3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("s3 store does not support open")
}

// URL ignores the service base URL: bucket objects are fetched straight
// from public_url when set, or from the endpoint/bucket pair.
func (s *s3Store) URL(key, baseURL string) string {
	base := strings.TrimSuffix(s.args.PublicURL, "/")
	if base == "" {
		base = bucketBaseURL(s.args)
	}
	return base + "/" + strings.TrimPrefix(s.objectKey(key), "/")
}

func (s *s3Store) objectKey(key string) string {
	if s.args.Prefix == "" {
		return key
	}
	return path.Join(s.args.Prefix, key)
}

func bucketBaseURL(args *s3Args) string {
	ep := args.Endpoint
	if !strings.Contains(ep, "://") {
		if args.UseSSL {
			ep = "https://" + ep
		} else {
			ep = "http://" + ep
		}
	}
	u, err := url.Parse(ep)
	if err != nil {
		return strings.TrimSuffix(ep, "/") + "/" + args.Bucket
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + args.Bucket
	return strings.TrimSuffix(u.String(), "/")
}
