package backup_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/edgard/statsbot/internal/backup"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(in.Body); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = buf.Bytes()
	return &s3.PutObjectOutput{}, nil
}

type record struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
}

func TestAppenderWritesLines(t *testing.T) {
	t.Parallel()

	a, err := backup.NewAppender(filepath.Join(t.TempDir(), "bak"))
	require.NoError(t, err)

	require.NoError(t, a.Append(backup.StreamMessages, record{MessageID: 1, Text: "one"}))
	require.NoError(t, a.Append(backup.StreamMessages, record{MessageID: 2, Text: "two"}))
	require.NoError(t, a.Append(backup.StreamUserEvents, map[string]any{"user_id": 3}))

	raw, err := os.ReadFile(filepath.Join(a.Dir(), backup.StreamMessages+backup.FileExt))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, int64(2), gjson.Get(lines[1], "message_id").Int())
	assert.Equal(t, "one", gjson.Get(lines[0], "text").String())

	events, err := os.ReadFile(filepath.Join(a.Dir(), backup.StreamUserEvents+backup.FileExt))
	require.NoError(t, err)
	assert.Equal(t, int64(3), gjson.GetBytes(events, "user_id").Int())
}

func TestAppenderConcurrent(t *testing.T) {
	t.Parallel()

	a, err := backup.NewAppender(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, a.Append(backup.StreamMessages, record{MessageID: int64(i)}))
		}()
	}
	wg.Wait()

	raw, err := os.ReadFile(filepath.Join(a.Dir(), backup.StreamMessages+backup.FileExt))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, 20)
	for _, line := range lines {
		assert.True(t, gjson.Valid(line), line)
	}
}

func TestNewAppenderRejectsEmptyDir(t *testing.T) {
	t.Parallel()

	_, err := backup.NewAppender("")
	assert.Error(t, err)
}

func TestArchiverUpload(t *testing.T) {
	t.Parallel()

	a, err := backup.NewAppender(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, a.Append(backup.StreamMessages, record{MessageID: 1, Text: "hello"}))
	require.NoError(t, os.WriteFile(filepath.Join(a.Dir(), "empty"+backup.FileExt), nil, 0o640))

	bucket := &fakeBucket{}
	arch, err := backup.NewArchiver(nil, bucket, a.Dir(), backup.S3Options{Bucket: "logs", Prefix: "/chat/"})
	require.NoError(t, err)

	keys, err := arch.Upload(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "chat/"), keys[0])
	assert.True(t, strings.HasSuffix(keys[0], "/messages.jsonl.sz"), keys[0])

	stored, ok := bucket.objects["logs/"+keys[0]]
	require.True(t, ok)
	plain, err := backup.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, "hello", gjson.GetBytes(plain, "text").String())
}

func TestArchiverErrors(t *testing.T) {
	t.Parallel()

	_, err := backup.NewArchiver(nil, &fakeBucket{}, t.TempDir(), backup.S3Options{})
	assert.ErrorIs(t, err, backup.ErrNoBucket)

	a, err := backup.NewAppender(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, a.Append(backup.StreamMessages, record{MessageID: 1}))

	boom := errors.New("boom")
	arch, err := backup.NewArchiver(nil, &fakeBucket{err: boom}, a.Dir(), backup.S3Options{Bucket: "logs"})
	require.NoError(t, err)
	_, err = arch.Upload(context.Background())
	assert.ErrorIs(t, err, boom)
}
