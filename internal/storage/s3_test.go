package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
)

// fakeS3 answers the path-style HEAD, PUT and DELETE requests the store sends.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	requests []string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(req.URL.Path, "/")
	f.requests = append(f.requests, req.Method+" "+path)

	respond := func(status int) *http.Response {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     http.Header{},
			Request:    req,
		}
	}

	switch req.Method {
	case http.MethodHead:
		if _, ok := f.objects[path]; ok {
			return respond(http.StatusOK), nil
		}
		return respond(http.StatusNotFound), nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objects[path] = body
		return respond(http.StatusOK), nil
	case http.MethodDelete:
		delete(f.objects, path)
		return respond(http.StatusNoContent), nil
	}
	return respond(http.StatusNotImplemented), nil
}

func newFakeS3(t *testing.T) (*S3, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string][]byte)}
	s, err := NewS3(context.Background(), S3Config{
		Region:          "us-east-1",
		Endpoint:        "https://s3.test.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
		PublicURL:       "https://cdn.example.com",
	}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
	})
	require.NoError(t, err)
	return s, fake
}

func TestS3_Upload(t *testing.T) {
	s, fake := newFakeS3(t)
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "obras-imagenes", "a.jpg", "image/jpeg", []byte("jpeg")))
	assert.Equal(t, []string{"HEAD obras-imagenes/a.jpg", "PUT obras-imagenes/a.jpg"}, fake.requests)
	assert.Contains(t, fake.objects, "obras-imagenes/a.jpg")

	err := s.Upload(ctx, "obras-imagenes", "a.jpg", "image/jpeg", []byte("jpeg"))
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestS3_Remove(t *testing.T) {
	s, fake := newFakeS3(t)
	fake.objects["obras-imagenes/a.jpg"] = []byte("x")

	require.NoError(t, s.Remove(context.Background(), "obras-imagenes", "a.jpg", ""))
	assert.Empty(t, fake.objects)
	assert.Equal(t, []string{"DELETE obras-imagenes/a.jpg"}, fake.requests)
}

func TestS3_RequiresPublicURL(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{})
	assert.Error(t, err)
}
