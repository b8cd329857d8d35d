package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"fitsync/internal/fit"
)

// fakeS3 is an in-memory S3API. Multipart calls are never reached for the
// small bodies records use.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	down    bool
}

var _ S3API = (*fakeS3)(nil)

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

var errDialFailed = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errDialFailed
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errDialFailed
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errDialFailed
	}
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errDialFailed
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errDialFailed
	}
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not supported")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported")
}

func TestS3RecordStore_PutGetListDelete(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	s := NewS3RecordStore(api, "bucket", "/fitsync/")

	if _, err := s.Get(ctx, CollectionWorkouts, "u/2024-01-15"); !errors.Is(err, fit.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, CollectionWorkouts, "u/2024-01-15", []byte(`{"id":"w1"}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := api.objects["fitsync/workout_entries/u/2024-01-15.json"]; !ok {
		t.Errorf("object keys = %v", api.objects)
	}

	got, err := s.Get(ctx, CollectionWorkouts, "u/2024-01-15")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"id":"w1"}` {
		t.Errorf("Get() = %s", got)
	}

	keys, err := s.List(ctx, CollectionWorkouts, "u/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != "u/2024-01-15" {
		t.Errorf("List() = %v", keys)
	}

	if err := s.Delete(ctx, CollectionWorkouts, "u/2024-01-15"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(api.objects) != 0 {
		t.Errorf("objects after delete = %v", api.objects)
	}
}

func TestS3RecordStore_Unreachable(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	api.down = true
	s := NewS3RecordStore(api, "bucket", "")

	if err := s.Ping(ctx); !errors.Is(err, fit.ErrUnreachable) {
		t.Errorf("Ping() error = %v, want ErrUnreachable", err)
	}
	if _, err := s.Get(ctx, CollectionProfiles, "u"); !errors.Is(err, fit.ErrUnreachable) {
		t.Errorf("Get() error = %v, want ErrUnreachable", err)
	}
	if _, err := s.List(ctx, CollectionWeights, "u/"); !errors.Is(err, fit.ErrUnreachable) {
		t.Errorf("List() error = %v, want ErrUnreachable", err)
	}
}

func TestS3RecordStore_BackedService(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewS3RecordStore(newFakeS3(), "bucket", "records"), nil)

	if _, err := svc.AddWeightEntry(ctx, "2024-01-15", 104.5); err != nil {
		t.Fatalf("AddWeightEntry() error = %v", err)
	}
	got, err := svc.GetWeightEntries(ctx)
	if err != nil {
		t.Fatalf("GetWeightEntries() error = %v", err)
	}
	if len(got) != 1 || got[0].Weight != 104.5 {
		t.Errorf("GetWeightEntries() = %v", got)
	}
	if !svc.CheckConnection(ctx) {
		t.Error("CheckConnection() = false, want true")
	}
}
