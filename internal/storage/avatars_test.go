package storage

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigner() *S3AvatarSigner {
	client := s3.New(s3.Options{
		Region: "eu-central-1",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}, nil
		}),
	})
	return NewS3AvatarSignerFromClient(client, "eu-central-1", "avatars-bucket", 5*time.Minute)
}

func TestPresignAvatarUpload(t *testing.T) {
	upload, err := testSigner().PresignAvatarUpload(context.Background(), 42, "image/png")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, upload.Method)
	assert.True(t, strings.HasPrefix(upload.Key, "avatars/42/"))
	assert.True(t, strings.HasSuffix(upload.Key, ".png"))
	assert.Contains(t, upload.UploadURL, "X-Amz-Signature")
	assert.Contains(t, upload.UploadURL, "avatars-bucket")
	assert.Equal(t, "https://avatars-bucket.s3.eu-central-1.amazonaws.com/"+upload.Key, upload.AvatarURL)
}

func TestPresignAvatarUploadRejectsUnknownType(t *testing.T) {
	_, err := testSigner().PresignAvatarUpload(context.Background(), 42, "application/pdf")
	require.ErrorIs(t, err, ErrUnsupportedContentType)
}

func TestAvatarKey(t *testing.T) {
	assert.Equal(t, "avatars/7/abc.jpg", AvatarKey(7, "abc", ".jpg"))
}
