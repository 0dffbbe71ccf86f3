// internal/pact/loader_test.go
package pact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp/go-multierror"
	"github.com/solatis/pactkeeper/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pactDoc(consumer, provider string) string {
	return fmt.Sprintf(`{"consumer":{"name":%q},"provider":{"name":%q},"interactions":[]}`, consumer, provider)
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(pactDoc("a", "p")), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{"broken":`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	pacts, err := NewLoader().Load(t.Context(), DirectorySource{Dir: dir})

	require.Error(t, err)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 1)
	require.Len(t, pacts, 1, "valid documents load despite failures")
	assert.Equal(t, "a", pacts[0].Consumer.Name)
	assert.Equal(t, FileSource{Path: filepath.Join(dir, "a.json")}, pacts[0].Source)
}

func TestLoad_URLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/one.json":
			_, _ = io.WriteString(w, pactDoc("one", "p"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loader := NewLoader(WithHTTPClient(srv.Client()))

	pacts, err := loader.Load(t.Context(), URLSource{URL: srv.URL + "/one.json"})
	require.NoError(t, err)
	require.Len(t, pacts, 1)
	assert.Equal(t, "URL "+srv.URL+"/one.json", pacts[0].Source.Description())

	pacts, err = loader.Load(t.Context(), URLsSource{URLs: []string{srv.URL + "/one.json", srv.URL + "/missing.json"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Len(t, pacts, 1)
}

func TestLoad_Broker(t *testing.T) {
	var (
		mu   sync.Mutex
		auth []string
	)
	record := func(r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		auth = append(auth, r.Header.Get("Authorization"))
	}
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/pacts/provider/users/latest", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		assert.Equal(t, "application/hal+json", r.Header.Get("Accept"))
		fmt.Fprintf(w, `{"_links":{"pacts":[{"href":%q,"name":"web"},{"href":%q,"name":"app"}]}}`,
			srv.URL+"/pacts/web", srv.URL+"/pacts/app")
	})
	mux.HandleFunc("/pacts/web", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		_, _ = io.WriteString(w, pactDoc("web", "users"))
	})
	mux.HandleFunc("/pacts/app", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, pactDoc("app", "users"))
	})

	src := BrokerSource{URL: srv.URL, Provider: "users", Token: "secret"}
	pacts, err := NewLoader(WithHTTPClient(srv.Client())).Load(t.Context(), src)
	require.NoError(t, err)
	require.Len(t, pacts, 2)
	assert.Equal(t, "app", pacts[0].Consumer.Name)
	assert.Equal(t, src, pacts[0].Source)
	assert.Equal(t, "Pact Broker "+srv.URL, pacts[0].Source.Description())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer secret", "Bearer secret"}, auth)
}

func TestLoad_BrokerNoPacts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "u" || pass != "p" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := BrokerSource{URL: srv.URL, Provider: "users", Tags: []string{"prod"}, Username: "u", Password: "p"}
	_, err := NewLoader(WithHTTPClient(srv.Client())).Load(t.Context(), src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNoPactsFound))
	assert.Contains(t, err.Error(), "for provider 'users' and tag 'prod'")
	assert.Contains(t, err.Error(), "/pacts/provider/users/latest/prod")
}

type fakeS3 struct {
	objects map[string]string
}

func (f fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestLoad_S3(t *testing.T) {
	loader := NewLoader(WithS3Client(fakeS3{objects: map[string]string{"bucket/pacts/web-users.json": pactDoc("web", "users")}}))

	pacts, err := loader.Load(t.Context(), S3Source{URL: "s3://bucket/pacts/web-users.json"})
	require.NoError(t, err)
	require.Len(t, pacts, 1)
	assert.Equal(t, "S3 Bucket s3://bucket/pacts/web-users.json", pacts[0].Source.Description())

	_, err = loader.Load(t.Context(), S3Source{URL: "s3://bucket/missing.json"})
	assert.Error(t, err)
	_, err = loader.Load(t.Context(), S3Source{URL: "https://bucket/key"})
	assert.Error(t, err)
}

func TestLoad_OtherSources(t *testing.T) {
	loader := NewLoader()

	pacts, err := loader.Load(t.Context(), ReaderSource{Reader: bytes.NewBufferString(pactDoc("r", "p"))})
	require.NoError(t, err)
	require.Len(t, pacts, 1)
	assert.Equal(t, "Reader", pacts[0].Source.Description())

	want := []*Pact{{Consumer: Participant{Name: "c"}}}
	pacts, err = loader.Load(t.Context(), ClosureSource{Fn: func(context.Context) ([]*Pact, error) { return want, nil }})
	require.NoError(t, err)
	assert.Equal(t, want, pacts)

	_, err = loader.Load(t.Context(), UnknownSource{})
	assert.True(t, errors.Is(err, types.ErrUnsupportedSource))
}

func TestSourceDescriptions(t *testing.T) {
	tests := []struct {
		src  Source
		want string
	}{
		{DirectorySource{Dir: "/p"}, "Directory /p"},
		{FileSource{Path: "a.json"}, "File a.json"},
		{URLSource{URL: "http://x"}, "URL http://x"},
		{URLsSource{URLs: []string{"a", "b"}}, "URLs [a, b]"},
		{BrokerSource{URL: "http://b"}, "Pact Broker http://b"},
		{S3Source{URL: "s3://b/k"}, "S3 Bucket s3://b/k"},
		{UnknownSource{}, "Unknown"},
		{ClosureSource{}, "Closure"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.src.Description())
	}
}
