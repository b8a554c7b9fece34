package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	bucketExists bool
	created      []string
	objects      map[string][]byte
	types        map[string]string
	failKey      string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if !f.bucketExists {
		return nil, errors.New("not found")
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = append(f.created, aws.ToString(in.Bucket))
	f.bucketExists = true
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.failKey {
		return nil, errors.New("access denied")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func testObjects() []Object {
	objs := []Object{{Key: "cat_nine_grid.zip", ContentType: "application/zip", Data: []byte("zip")}}
	for _, name := range []string{"cat_1_1.png", "cat_1_2.png", "cat_1_3.png", "cat_2_1.png", "cat_2_2.png",
		"cat_2_3.png", "cat_3_1.png", "cat_3_2.png", "cat_3_3.png"} {
		objs = append(objs, Object{Key: name, ContentType: "image/png", Data: []byte(name)})
	}
	return objs
}

func TestPublish_CreatesBucketAndUploads(t *testing.T) {
	fake := newFakeS3()
	p := newPublisher(fake, Config{Bucket: "tiles", Prefix: "grids"}, nil)

	keys, err := p.Publish(context.Background(), "abc123", testObjects())
	require.NoError(t, err)

	assert.Equal(t, []string{"tiles"}, fake.created)
	assert.Len(t, keys, 10)
	assert.Equal(t, []byte("cat_2_2.png"), fake.objects["grids/abc123/cat_2_2.png"])
	assert.Equal(t, "application/zip", fake.types["grids/abc123/cat_nine_grid.zip"])
}

func TestPublish_ExistingBucket(t *testing.T) {
	fake := newFakeS3()
	fake.bucketExists = true
	p := newPublisher(fake, Config{Bucket: "tiles"}, nil)

	keys, err := p.Publish(context.Background(), "run", testObjects()[:1])
	require.NoError(t, err)
	assert.Empty(t, fake.created)
	assert.Equal(t, []string{"run/cat_nine_grid.zip"}, keys)
}

func TestPublish_PartialFailure(t *testing.T) {
	fake := newFakeS3()
	fake.failKey = "run/cat_1_2.png"
	p := newPublisher(fake, Config{Bucket: "tiles"}, nil)

	keys, err := p.Publish(context.Background(), "run", testObjects())
	assert.Error(t, err)
	assert.Len(t, keys, 9, "remaining objects are still uploaded")
}

func TestNewPublisher_Disabled(t *testing.T) {
	_, err := NewPublisher(context.Background(), Config{}, nil)
	assert.ErrorIs(t, err, ErrDisabled)
}
