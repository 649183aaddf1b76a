package media

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 records DeleteObjects calls.
type fakeS3 struct {
	calls   []*s3.DeleteObjectsInput
	err     error
	failKey string
}

func (f *fakeS3) DeleteObjects(_ context.Context, params *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	out := &s3.DeleteObjectsOutput{}
	for _, obj := range params.Delete.Objects {
		if aws.ToString(obj.Key) == f.failKey {
			out.Errors = append(out.Errors, types.Error{Key: obj.Key, Message: aws.String("AccessDenied")})
		}
	}
	return out, nil
}

func keysOf(input *s3.DeleteObjectsInput) []string {
	var keys []string
	for _, obj := range input.Delete.Objects {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys
}

func TestS3Store_DeletePrefixesKeys(t *testing.T) {
	fake := &fakeS3{}
	store := newS3Store(fake, "bucket", "media/", zerolog.Nop())

	err := store.Delete(context.Background(), "p1/front.jpg", "media/p1/back.jpg", " ", "")

	require.NoError(t, err)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, "bucket", aws.ToString(fake.calls[0].Bucket))
	assert.Equal(t, []string{"media/p1/front.jpg", "media/p1/back.jpg"}, keysOf(fake.calls[0]))
}

func TestS3Store_DeleteNothing(t *testing.T) {
	fake := &fakeS3{}
	store := newS3Store(fake, "bucket", "", zerolog.Nop())

	require.NoError(t, store.Delete(context.Background()))
	assert.Empty(t, fake.calls)
}

func TestS3Store_DeleteBatches(t *testing.T) {
	fake := &fakeS3{}
	store := newS3Store(fake, "bucket", "", zerolog.Nop())

	keys := make([]string, 0, 2500)
	for i := 0; i < 2500; i++ {
		keys = append(keys, fmt.Sprintf("k%d", i))
	}

	require.NoError(t, store.Delete(context.Background(), keys...))
	require.Len(t, fake.calls, 3)
	assert.Len(t, fake.calls[0].Delete.Objects, 1000)
	assert.Len(t, fake.calls[2].Delete.Objects, 500)
}

func TestS3Store_DeleteErrors(t *testing.T) {
	t.Run("Request failure", func(t *testing.T) {
		fake := &fakeS3{err: errors.New("connection reset")}
		store := newS3Store(fake, "bucket", "", zerolog.Nop())

		err := store.Delete(context.Background(), "a")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("Per-object failure", func(t *testing.T) {
		fake := &fakeS3{failKey: "b"}
		store := newS3Store(fake, "bucket", "", zerolog.Nop())

		err := store.Delete(context.Background(), "a", "b")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete b")
	})
}

func TestNoopStore(t *testing.T) {
	store := NewNoopStore(zerolog.Nop())
	assert.NoError(t, store.Delete(context.Background(), "a", "b"))
}
