package storage

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	"github.com/platformlab/sagerun/log"
)

var uriRegexp = regexp.MustCompile(`^s3://([a-z0-9][a-z0-9.\-]{1,61}[a-z0-9])(?:/(.*))?$`)

// URI points at an object or a key prefix in the staging bucket.
type URI struct {
	bucket string
	key    string
}

// ParseURI checks the passed address and returns it split into parts.
func ParseURI(src string) (*URI, error) {
	match := uriRegexp.FindStringSubmatch(src)
	if match == nil {
		return nil, fmt.Errorf("passed uri %q has wrong format", src)
	}
	return &URI{
		bucket: match[1],
		key:    strings.TrimPrefix(match[2], "/"),
	}, nil
}

// Bucket returns the bucket part
func (u *URI) Bucket() string { return u.bucket }

// Key returns the key part
func (u *URI) Key() string { return u.key }

// Base returns the last element of the key
func (u *URI) Base() string { return path.Base(u.key) }

// Join returns a copy of the uri with elements appended to the key.
func (u *URI) Join(elem ...string) *URI {
	parts := append([]string{u.key}, elem...)
	return &URI{bucket: u.bucket, key: path.Join(parts...)}
}

// String implements the Stringer interface
func (u *URI) String() string {
	return fmt.Sprintf("s3://%s/%s", u.bucket, u.key)
}

// Stager copies local files to object storage under a key prefix and
// fetches job outputs back. No dedup, no versioning; remote errors are
// surfaced unmodified.
type Stager struct {
	api    *s3.S3
	bucket string
	prefix string
}

// NewStager creates a Stager over the given bucket and key prefix.
func NewStager(sess *session.Session, bucket, prefix string) *Stager {
	return &Stager{
		api:    s3.New(sess),
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Upload copies the local file to "<prefix>/<base name>" and returns
// the resulting location.
func (s *Stager) Upload(ctx context.Context, localPath string) (*URI, error) {
	return s.UploadUnder(ctx, localPath, "")
}

// UploadUnder copies the local file to "<prefix>/<subdir>/<base name>".
func (s *Stager) UploadUnder(ctx context.Context, localPath, subdir string) (*URI, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %q", localPath)
	}
	defer f.Close()

	key := path.Join(s.prefix, subdir, filepath.Base(localPath))
	_, err = s.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to upload %q", localPath)
	}
	uri := &URI{bucket: s.bucket, key: key}
	log.Infof("uploaded %q to %q", localPath, uri)
	return uri, nil
}

// Read fetches the object the uri points at.
func (s *Stager) Read(ctx context.Context, uri *URI) ([]byte, error) {
	out, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(uri.Bucket()),
		Key:    aws.String(uri.Key()),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to fetch %q", uri)
	}
	defer out.Body.Close()
	return ioutil.ReadAll(out.Body)
}

// Download fetches the object the uri points at into a local file.
func (s *Stager) Download(ctx context.Context, uri *URI, localPath string) error {
	b, err := s.Read(ctx, uri)
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(localPath, b, 0644); err != nil {
		return errors.Wrapf(err, "unable to write %q", localPath)
	}
	return nil
}

// List returns the locations of all objects under the uri prefix.
func (s *Stager) List(ctx context.Context, uri *URI) ([]*URI, error) {
	var uris []*URI
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(uri.Bucket()),
		Prefix: aws.String(uri.Key()),
	}
	err := s.api.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				uris = append(uris, &URI{bucket: uri.Bucket(), key: *obj.Key})
			}
			return true
		})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %q", uri)
	}
	return uris, nil
}

// Prefix returns the stager base location.
func (s *Stager) Prefix() *URI {
	return &URI{bucket: s.bucket, key: s.prefix}
}
