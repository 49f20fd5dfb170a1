package transport

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
)

func TestRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "tx-1", r.Header.Get("X-transaction-id"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"q":1}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := New(WithHeader("Accept", "application/json"))
	defer s.Close()

	resp, err := s.Request(context.Background(), http.MethodPost, srv.URL, []byte(`{"q":1}`),
		map[string]string{"X-transaction-id": "tx-1"})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var out map[string]bool
	require.NoError(t, resp.JSON(&out))
	assert.True(t, out["ok"])
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	s := New(WithTimeout(20 * time.Millisecond))
	_, err := s.Request(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, prismaerrors.ErrTransportTimeout)
	assert.True(t, prismaerrors.IsTransport(err))
}

func TestRequestConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New().Request(context.Background(), http.MethodGet, url, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, prismaerrors.ErrTransport)
}

func TestClosedSession(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, s.Closed())

	_, err := s.Request(context.Background(), http.MethodGet, "http://localhost", nil, nil)
	assert.ErrorIs(t, err, prismaerrors.ErrClientClosed)
	assert.EqualError(t, err, "prisma: Cannot make a request from a closed client.")

	assert.ErrorIs(t, s.Download(context.Background(), "http://localhost/x", filepath.Join(t.TempDir(), "x")), prismaerrors.ErrClientClosed)
}

func TestMalformedJSON(t *testing.T) {
	resp := &Response{StatusCode: 200, Body: []byte("not json")}
	var v any
	assert.ErrorIs(t, resp.JSON(&v), prismaerrors.ErrMalformedResponse)
}

func TestDownloadHTTPGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte("engine-binary"))
	require.NoError(t, gz.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.gz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "bin", "query-engine")
	s := New()
	require.NoError(t, s.Download(context.Background(), srv.URL+"/query-engine.gz", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "engine-binary", string(data))

	err = s.Download(context.Background(), srv.URL+"/missing.gz", dest+"2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	_, statErr := os.Stat(dest + "2.tmp")
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloadLocalFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("local"), 0o644))

	dest := filepath.Join(dir, "dest")
	require.NoError(t, New().Download(context.Background(), "file://"+src, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://engines/abc/query-engine.gz")
	require.NoError(t, err)
	assert.Equal(t, "engines", bucket)
	assert.Equal(t, "abc/query-engine.gz", key)

	_, _, err = parseS3URL("s3://bucket-only")
	assert.Error(t, err)
}
