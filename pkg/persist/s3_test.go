package persist

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/sharedstate/internal/errors"
)

type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	metadata map[string]map[string]string
	putErr   error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects:  make(map[string][]byte),
		metadata: make(map[string]map[string]string),
	}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.metadata[key] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bucket := aws.ToString(in.Bucket) + "/"
	var keys []string
	for k := range f.objects {
		key, ok := strings.CutPrefix(k, bucket)
		if ok && strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	exerciseStore(t, NewS3Store(newFakeS3(), "bucket", "states/"))
}

func TestS3StoreObjectLayout(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, "bucket", "app/")

	if err := store.Save(context.Background(), snapshot("theme", `"dark"`, 7)); err != nil {
		t.Fatal(err)
	}

	meta, ok := client.metadata["bucket/app/theme.json"]
	if !ok {
		t.Fatalf("object not written at app/theme.json; have %v", client.objects)
	}
	if meta["version"] != "7" || meta["snapshot-id"] != "id-theme" {
		t.Errorf("metadata = %v", meta)
	}
	if meta["saved-at"] != "2026-01-02T03:04:05Z" {
		t.Errorf("saved-at = %q", meta["saved-at"])
	}
}

func TestS3StoreListSkipsOtherPrefixes(t *testing.T) {
	client := newFakeS3()
	NewS3Store(client, "bucket", "other/").Save(context.Background(), snapshot("x", `1`, 1))
	store := NewS3Store(client, "bucket", "mine/")
	store.Save(context.Background(), snapshot("y", `1`, 1))

	names, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "y" {
		t.Errorf("List() = %v, want [y]", names)
	}
}

func TestS3StoreSaveError(t *testing.T) {
	client := newFakeS3()
	client.putErr = stderrors.New("access denied")
	store := NewS3Store(client, "bucket", "")

	err := store.Save(context.Background(), snapshot("a", `1`, 1))
	if !errors.HasCode(err, errors.CodeSnapshotSave) {
		t.Fatalf("error = %v, want %s", err, errors.CodeSnapshotSave)
	}
	if !strings.Contains(err.Error(), "access denied") {
		t.Errorf("error %q should include cause", err)
	}
}
