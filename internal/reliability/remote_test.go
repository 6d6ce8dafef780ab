package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps uploaded objects in memory.
type fakeStore struct {
	objects map[string][]byte
	deleted []string
	listErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Upload(_ context.Context, key string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) List(_ context.Context, _ string) ([]types.Object, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []types.Object
	for key, data := range f.objects {
		out = append(out, types.Object{Key: aws.String(key), Size: aws.Int64(int64(len(data)))})
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()

	gzr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gzr.Close()

	out := map[string][]byte{}
	tr := tar.NewReader(gzr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		out[hdr.Name] = content
	}
	return out
}

func TestRemoteCreateAndUpload(t *testing.T) {
	backups, _ := newTestBackupService(t)
	store := newFakeStore()
	remote := NewRemoteBackupService(store, backups, t.TempDir(), zerolog.Nop())

	require.NoError(t, remote.CreateAndUpload(context.Background()))
	require.Len(t, store.objects, 1)

	var key string
	var data []byte
	for k, v := range store.objects {
		key, data = k, v
	}
	assert.Regexp(t, `^finsight-backup-\d{4}-\d{2}-\d{2}-\d{6}\.tar\.gz$`, key)

	entries := readArchive(t, data)
	assert.Contains(t, entries, "ledger.db")
	assert.Contains(t, entries, "cache.db")
	require.Contains(t, entries, "backup-metadata.json")

	var meta ArchiveMetadata
	require.NoError(t, json.Unmarshal(entries["backup-metadata.json"], &meta))
	assert.Equal(t, "dev", meta.AppVersion)
	assert.False(t, meta.Timestamp.IsZero())
	require.Len(t, meta.Databases, 2)
	assert.Equal(t, "cache", meta.Databases[0].Name)
	assert.Equal(t, "ledger", meta.Databases[1].Name)
	for _, db := range meta.Databases {
		assert.Positive(t, db.SizeBytes)
		assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, db.Checksum)
	}
}

func TestRemoteListBackups(t *testing.T) {
	backups, _ := newTestBackupService(t)
	store := newFakeStore()
	store.objects["finsight-backup-2025-07-02-010000.tar.gz"] = []byte("bb")
	store.objects["finsight-backup-2025-07-01-010000.tar.gz"] = []byte("a")
	store.objects["finsight-backup-garbage.tar.gz"] = []byte("x")
	remote := NewRemoteBackupService(store, backups, t.TempDir(), zerolog.Nop())

	list, err := remote.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "finsight-backup-2025-07-02-010000.tar.gz", list[0].Filename)
	assert.Equal(t, int64(2), list[0].SizeBytes)
	assert.Equal(t, time.Date(2025, 7, 1, 1, 0, 0, 0, time.UTC), list[1].Timestamp)
	assert.Positive(t, list[1].AgeHours)
}

func TestRemoteRotateOldBackups(t *testing.T) {
	backups, _ := newTestBackupService(t)
	store := newFakeStore()
	now := time.Now().UTC()
	var keys []string
	for _, age := range []int{1, 2, 3, 10, 20} {
		key := archivePrefix + now.AddDate(0, 0, -age).Format(timestampLayout) + archiveSuffix
		store.objects[key] = []byte("x")
		keys = append(keys, key)
	}
	remote := NewRemoteBackupService(store, backups, t.TempDir(), zerolog.Nop())

	require.NoError(t, remote.RotateOldBackups(context.Background(), 7))

	assert.ElementsMatch(t, []string{keys[3], keys[4]}, store.deleted)
	assert.Len(t, store.objects, 3)
}

func TestRemoteRotateKeepsMinimum(t *testing.T) {
	backups, _ := newTestBackupService(t)
	store := newFakeStore()
	now := time.Now().UTC()
	for _, age := range []int{30, 40, 50} {
		key := archivePrefix + now.AddDate(0, 0, -age).Format(timestampLayout) + archiveSuffix
		store.objects[key] = []byte("x")
	}
	remote := NewRemoteBackupService(store, backups, t.TempDir(), zerolog.Nop())

	require.NoError(t, remote.RotateOldBackups(context.Background(), 7))

	assert.Empty(t, store.deleted)
	assert.Len(t, store.objects, 3)
}

func TestRemoteRotateDisabled(t *testing.T) {
	backups, _ := newTestBackupService(t)
	store := newFakeStore()
	store.objects[archivePrefix+time.Now().UTC().AddDate(0, 0, -400).Format(timestampLayout)+archiveSuffix] = []byte("x")
	remote := NewRemoteBackupService(store, backups, t.TempDir(), zerolog.Nop())

	require.NoError(t, remote.RotateOldBackups(context.Background(), 0))
	assert.Empty(t, store.deleted)
}

func TestRemoteRotateListError(t *testing.T) {
	backups, _ := newTestBackupService(t)
	store := newFakeStore()
	store.listErr = errors.New("store offline")
	remote := NewRemoteBackupService(store, backups, t.TempDir(), zerolog.Nop())

	err := remote.RotateOldBackups(context.Background(), 7)
	assert.ErrorContains(t, err, "store offline")
}
