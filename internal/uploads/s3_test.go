package uploads

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	objects map[string]string
	headErr error
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_SaveAndDelete(t *testing.T) {
	fake := &fakeObjects{objects: map[string]string{}}
	s := &S3{client: fake, bucket: "media", publicURL: "https://cdn.example.com"}
	ctx := context.Background()

	obj, err := s.Save(ctx, "x.jpg", strings.NewReader("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/x.jpg", obj.Path)
	assert.Equal(t, "https://cdn.example.com/uploads/x.jpg", obj.URL)
	assert.Equal(t, "jpeg", fake.objects["uploads/x.jpg"])

	require.NoError(t, s.Delete(ctx, "x.jpg"))
	assert.Empty(t, fake.objects)
	assert.ErrorIs(t, s.Delete(ctx, "x.jpg"), ErrNotFound)
}

func TestS3_DeleteSurfacesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	s := &S3{client: &fakeObjects{objects: map[string]string{}, headErr: boom}, bucket: "media"}

	err := s.Delete(context.Background(), "x.jpg")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Options{Region: "us-east-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}
