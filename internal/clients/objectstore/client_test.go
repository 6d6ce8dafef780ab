package objectstore

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listResponse = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>backups</Name>
  <Prefix>finsight-backup-</Prefix>
  <KeyCount>2</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents>
    <Key>finsight-backup-2025-07-01-010000.tar.gz</Key>
    <LastModified>2025-07-01T01:00:05Z</LastModified>
    <ETag>&quot;aaa&quot;</ETag>
    <Size>2048</Size>
    <StorageClass>STANDARD</StorageClass>
  </Contents>
  <Contents>
    <Key>finsight-backup-2025-07-02-010000.tar.gz</Key>
    <LastModified>2025-07-02T01:00:05Z</LastModified>
    <ETag>&quot;bbb&quot;</ETag>
    <Size>4096</Size>
    <StorageClass>STANDARD</StorageClass>
  </Contents>
</ListBucketResult>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), Config{
		Endpoint:  server.URL,
		AccessKey: "ak",
		SecretKey: "sk",
		Bucket:    "backups",
	}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.False(t, Config{Endpoint: "https://r2.example", Bucket: "b"}.Enabled())
	assert.True(t, Config{Endpoint: "https://r2.example", AccessKey: "a", SecretKey: "s", Bucket: "b"}.Enabled())
}

func TestUpload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []byte

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = body
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	})

	err := client.Upload(context.Background(), "finsight-backup-2025-07-01-010000.tar.gz",
		bytes.NewReader([]byte("archive bytes")), 13)
	require.NoError(t, err)

	assert.Equal(t, "/backups/finsight-backup-2025-07-01-010000.tar.gz", gotPath)
	assert.Contains(t, string(gotBody), "archive bytes")
	assert.Contains(t, gotAuth, "AWS4-HMAC-SHA256")
	assert.Contains(t, gotAuth, "Credential=ak")
}

func TestList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/backups", r.URL.Path)
		require.Equal(t, "finsight-backup-", r.URL.Query().Get("prefix"))
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(listResponse))
	})

	objects, err := client.List(context.Background(), "finsight-backup-")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "finsight-backup-2025-07-01-010000.tar.gz", *objects[0].Key)
	assert.Equal(t, int64(2048), *objects[0].Size)
	assert.Equal(t, int64(4096), *objects[1].Size)
}

func TestDelete(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Delete(context.Background(), "finsight-backup-2025-07-01-010000.tar.gz"))
	assert.Equal(t, "/backups/finsight-backup-2025-07-01-010000.tar.gz", gotPath)
}

func TestUploadServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<?xml version="1.0"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
	})

	err := client.Upload(context.Background(), "key", strings.NewReader("x"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload key")
}
