package persist

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/sharedstate/internal/errors"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store keeps snapshots as JSON objects in an S3 bucket, one object per
// state, under the key <prefix><name>.json.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := persist.NewS3Store(s3.NewFromConfig(cfg), "my-bucket", "states/")
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Store creates a new S3 snapshot store.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *S3Store) key(name string) string {
	return s.prefix + name + ".json"
}

// Save implements Store.
func (s *S3Store) Save(ctx context.Context, snap Snapshot) error {
	if !ValidName(snap.Name) {
		return ErrInvalidName
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return errors.New(errors.CodeSnapshotEncode).Wrap(err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(snap.Name)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"snapshot-id": snap.ID,
			"version":     strconv.FormatUint(snap.Version, 10),
			"saved-at":    snap.SavedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return errors.New(errors.CodeSnapshotSave).WithDetailf("s3 put %s failed", s.key(snap.Name)).Wrap(err)
	}
	return nil
}

// Load implements Store.
func (s *S3Store) Load(ctx context.Context, name string) (Snapshot, error) {
	if !ValidName(name) {
		return Snapshot{}, ErrInvalidName
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if stderrors.As(err, &noKey) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, errors.New(errors.CodeSnapshotLoad).WithDetailf("s3 get %s failed", s.key(name)).Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Snapshot{}, errors.New(errors.CodeSnapshotLoad).Wrap(err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, errors.New(errors.CodeSnapshotDecode).WithDetailf("corrupt object %s", s.key(name)).Wrap(err)
	}
	return snap, nil
}

// Delete implements Store.
func (s *S3Store) Delete(ctx context.Context, name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return errors.New(errors.CodeSnapshotSave).WithDetailf("s3 delete %s failed", s.key(name)).Wrap(err)
	}
	return nil
}

// List implements Store.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.New(errors.CodeSnapshotLoad).Wrap(err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			name, ok := strings.CutSuffix(strings.TrimPrefix(*obj.Key, s.prefix), ".json")
			if ok && ValidName(name) {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names, nil
}
