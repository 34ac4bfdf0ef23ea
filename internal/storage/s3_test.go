package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stencil/internal/domain"
)

type fakeS3 struct {
	objects map[string][]byte
	listed  []*s3.ListObjectsV2Input
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listed = append(f.listed, in)
	if in.ContinuationToken == nil {
		return &s3.ListObjectsV2Output{
			Contents: []s3types.Object{{
				Key:          aws.String("u1/images/a.png"),
				Size:         aws.Int64(10),
				LastModified: aws.Time(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("next"),
		}, nil
	}
	return &s3.ListObjectsV2Output{
		Contents:    []s3types.Object{{Key: aws.String("u1/images/b.png"), Size: aws.Int64(5)}},
		IsTruncated: aws.Bool(false),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	store := NewS3StoreWithClient(fake, "bucket", "https://cdn.example.com/")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "u1/images/a.png", []byte("data"), "image/png"))
	err := store.Put(ctx, "u1/images/a.png", []byte("again"), "image/png")
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists))

	data, err := store.Get(ctx, "u1/images/a.png")
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
	_, err = store.Get(ctx, "u1/images/none.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	files, err := store.List(ctx, "u1/images")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.png", files[0].Name)
	assert.Equal(t, int64(10), files[0].Size)
	assert.Equal(t, "https://cdn.example.com/u1/images/b.png", files[1].URL)
	assert.Equal(t, "u1/images/", aws.ToString(fake.listed[0].Prefix))
	assert.Equal(t, "next", aws.ToString(fake.listed[1].ContinuationToken))

	require.NoError(t, store.Delete(ctx, "u1/images/a.png"))
	assert.NotContains(t, fake.objects, "u1/images/a.png")
}
