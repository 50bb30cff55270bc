package storage

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformlab/sagerun/log"
	"github.com/platformlab/sagerun/storage/s3test"
)

func TestMain(m *testing.M) {
	log.SuppressOutput(true)
	retCode := m.Run()
	log.SuppressOutput(false)
	os.Exit(retCode)
}

func TestParseURI_Positive(t *testing.T) {
	testCases := []struct {
		src, bucket, key string
	}{
		{"s3://bucket/data/train.csv", "bucket", "data/train.csv"},
		{"s3://my-bucket.name/prefix", "my-bucket.name", "prefix"},
		{"s3://bucket/", "bucket", ""},
		{"s3://bucket", "bucket", ""},
	}
	for _, tc := range testCases {
		uri, err := ParseURI(tc.src)
		require.NoError(t, err)
		assert.Equal(t, tc.bucket, uri.Bucket())
		assert.Equal(t, tc.key, uri.Key())
	}
}

func TestParseURI_Negative(t *testing.T) {
	testCases := []string{
		"",
		"bucket/key",
		"s3:/bucket/key",
		"http://bucket/key",
		"s3://UPPER/key",
	}
	for _, src := range testCases {
		_, err := ParseURI(src)
		assert.Error(t, err, "src=%q", src)
	}
}

func TestURI_Join(t *testing.T) {
	uri, err := ParseURI("s3://bucket/data")
	require.NoError(t, err)

	joined := uri.Join("batch_input", "test.csv")
	assert.Equal(t, "s3://bucket/data/batch_input/test.csv", joined.String())
	// the original is untouched
	assert.Equal(t, "s3://bucket/data", uri.String())
	assert.Equal(t, "test.csv", joined.Base())
}

func newTestStager(t *testing.T, srv *s3test.Server, bucket, prefix string) *Stager {
	t.Helper()
	sess, err := session.NewSession(aws.NewConfig().
		WithRegion("us-east-1").
		WithEndpoint(srv.URL()).
		WithCredentials(credentials.NewStaticCredentials("test", "test", "")).
		WithS3ForcePathStyle(true))
	require.NoError(t, err)
	return NewStager(sess, bucket, prefix)
}

func TestStager_Upload(t *testing.T) {
	srv := s3test.New()
	defer srv.Close()
	stager := newTestStager(t, srv, "bucket", "sagerun")

	dir, err := ioutil.TempDir("", "stager")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	local := filepath.Join(dir, "train.csv")
	require.NoError(t, ioutil.WriteFile(local, []byte("0,5.1,3.5,1.4,0.2\n"), 0644))

	uri, err := stager.Upload(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/sagerun/train.csv", uri.String())

	stored, ok := srv.Get("bucket", "sagerun/train.csv")
	require.True(t, ok)
	assert.Equal(t, "0,5.1,3.5,1.4,0.2\n", string(stored))
}

func TestStager_UploadUnder(t *testing.T) {
	srv := s3test.New()
	defer srv.Close()
	stager := newTestStager(t, srv, "bucket", "sagerun")

	dir, err := ioutil.TempDir("", "stager")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	local := filepath.Join(dir, "test.csv")
	require.NoError(t, ioutil.WriteFile(local, []byte("5.1,3.5,1.4,0.2\n"), 0644))

	uri, err := stager.UploadUnder(context.Background(), local, "batch_input")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/sagerun/batch_input/test.csv", uri.String())
}

func TestStager_Upload_MissingFile(t *testing.T) {
	srv := s3test.New()
	defer srv.Close()
	stager := newTestStager(t, srv, "bucket", "sagerun")

	_, err := stager.Upload(context.Background(), "no/such/file.csv")
	assert.Error(t, err)
}

func TestStager_ReadDownloadList(t *testing.T) {
	srv := s3test.New()
	defer srv.Close()
	srv.Put("bucket", "out/test.csv.out", []byte("0\n1\n2\n"))
	srv.Put("bucket", "out/other.csv.out", []byte("1\n"))
	srv.Put("bucket", "elsewhere/x", []byte("x"))
	stager := newTestStager(t, srv, "bucket", "sagerun")

	uri, err := ParseURI("s3://bucket/out/test.csv.out")
	require.NoError(t, err)
	b, err := stager.Read(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", string(b))

	dir, err := ioutil.TempDir("", "stager")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	local := filepath.Join(dir, "test.csv.out")
	require.NoError(t, stager.Download(context.Background(), uri, local))
	got, err := ioutil.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", string(got))

	prefix, err := ParseURI("s3://bucket/out")
	require.NoError(t, err)
	uris, err := stager.List(context.Background(), prefix)
	require.NoError(t, err)
	require.Len(t, uris, 2)
	assert.Equal(t, "s3://bucket/out/other.csv.out", uris[0].String())
	assert.Equal(t, "s3://bucket/out/test.csv.out", uris[1].String())
}

func TestStager_Read_Missing(t *testing.T) {
	srv := s3test.New()
	defer srv.Close()
	stager := newTestStager(t, srv, "bucket", "sagerun")

	uri, err := ParseURI("s3://bucket/nope")
	require.NoError(t, err)
	_, err = stager.Read(context.Background(), uri)
	assert.Error(t, err)
}
