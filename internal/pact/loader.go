// internal/pact/loader.go
package pact

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp/go-multierror"
	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * Pact loading.
 *
 * Load resolves a Source into pacts. Sources holding several documents
 * (directories, URL lists, broker listings) load what they can: failures
 * are collected into a multierror returned alongside the pacts that did
 * load. Each loaded pact records the narrowest source it came from.
 */

const maxDocumentSize = 32 << 20

// S3API is the subset of the S3 client used for loading.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader resolves pact sources.
type Loader struct {
	client *http.Client
	s3     S3API
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient sets the client used for URL and broker sources.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) { l.client = c }
}

// WithS3Client sets the client used for S3 sources. Without one, a client is
// built from the default AWS credential chain on first use.
func WithS3Client(c S3API) LoaderOption {
	return func(l *Loader) { l.s3 = c }
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{client: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the pacts produced by src.
func (l *Loader) Load(ctx context.Context, src Source) ([]*Pact, error) {
	slog.Debug("pact: loading pacts", "source", src.Description())

	switch s := src.(type) {
	case DirectorySource:
		return l.loadDirectory(s)
	case FileSource:
		return single(l.loadFile(s.Path))
	case URLSource:
		return single(l.loadURL(ctx, s.URL, nil))
	case URLsSource:
		return l.loadURLs(ctx, s)
	case BrokerSource:
		return l.loadBroker(ctx, s)
	case ReaderSource:
		return single(l.loadReader(s))
	case S3Source:
		return single(l.loadS3(ctx, s))
	case ClosureSource:
		if s.Fn == nil {
			return nil, fmt.Errorf("%w: closure source without function", types.ErrUnsupportedSource)
		}
		return s.Fn(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedSource, src.Description())
	}
}

func single(p *Pact, err error) ([]*Pact, error) {
	if err != nil {
		return nil, err
	}
	return []*Pact{p}, nil
}

func parseFrom(r io.Reader, src Source) (*Pact, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read pact from %s: %w", src.Description(), err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", types.ErrInvalidPact, src.Description(), maxDocumentSize)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Description(), err)
	}
	p.Source = src
	return p, nil
}

func (l *Loader) loadFile(path string) (*Pact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pact file: %w", err)
	}
	defer f.Close()
	return parseFrom(f, FileSource{Path: path})
}

func (l *Loader) loadDirectory(s DirectorySource) ([]*Pact, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read pact directory: %w", err)
	}

	var (
		pacts  []*Pact
		result *multierror.Error
	)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		p, err := l.loadFile(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		pacts = append(pacts, p)
	}
	return pacts, result.ErrorOrNil()
}

func (l *Loader) loadURLs(ctx context.Context, s URLsSource) ([]*Pact, error) {
	var (
		pacts  []*Pact
		result *multierror.Error
	)
	for _, u := range s.URLs {
		p, err := l.loadURL(ctx, u, nil)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		pacts = append(pacts, p)
	}
	return pacts, result.ErrorOrNil()
}

func (l *Loader) loadReader(s ReaderSource) (*Pact, error) {
	if s.Reader == nil {
		return nil, fmt.Errorf("%w: reader source without reader", types.ErrUnsupportedSource)
	}
	return parseFrom(s.Reader, s)
}

// authorize applies broker credentials to req.
type authorize func(req *http.Request)

func (l *Loader) get(ctx context.Context, target, accept string, auth authorize) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", target, err)
	}
	req.Header.Set("Accept", accept)
	if auth != nil {
		auth(req)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s failed: %w", target, err)
	}
	return resp, nil
}

func (l *Loader) loadURL(ctx context.Context, target string, auth authorize) (*Pact, error) {
	resp, err := l.get(ctx, target, "application/json", auth)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned %s", target, resp.Status)
	}
	return parseFrom(resp.Body, URLSource{URL: target})
}

type halLinks struct {
	Links struct {
		Pacts []struct {
			Href  string `json:"href"`
			Name  string `json:"name"`
			Title string `json:"title"`
		} `json:"pacts"`
	} `json:"_links"`
}

func (s BrokerSource) authorize() authorize {
	switch {
	case s.Token != "":
		return func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+s.Token) }
	case s.Username != "":
		return func(req *http.Request) { req.SetBasicAuth(s.Username, s.Password) }
	default:
		return nil
	}
}

// ProviderURL returns the broker URL listing the latest pacts for the provider and tag.
func (s BrokerSource) ProviderURL(tag string) string {
	u := strings.TrimRight(s.URL, "/") + "/pacts/provider/" + url.PathEscape(s.Provider) + "/latest"
	if tag != "" {
		u += "/" + url.PathEscape(tag)
	}
	return u
}

func (l *Loader) loadBroker(ctx context.Context, s BrokerSource) ([]*Pact, error) {
	tags := s.Tags
	if len(tags) == 0 {
		tags = []string{""}
	}
	auth := s.authorize()

	var (
		pacts  []*Pact
		result *multierror.Error
	)
	for _, tag := range tags {
		links, err := l.brokerLinks(ctx, s, tag, auth)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		for _, href := range links {
			p, err := l.loadURL(ctx, href, auth)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			p.Source = s
			pacts = append(pacts, p)
		}
	}
	return pacts, result.ErrorOrNil()
}

func (l *Loader) brokerLinks(ctx context.Context, s BrokerSource, tag string, auth authorize) ([]string, error) {
	listing := s.ProviderURL(tag)
	slog.Debug("pact: loading pacts from pact broker", "provider", s.Provider, "tag", tag)

	resp, err := l.get(ctx, listing, "application/hal+json", auth)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, noPactsFound(s.Provider, tag, listing)
	default:
		return nil, fmt.Errorf("GET %s returned %s", listing, resp.Status)
	}

	var hal halLinks
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentSize)).Decode(&hal); err != nil {
		return nil, fmt.Errorf("invalid broker response from %s: %w", listing, err)
	}
	if len(hal.Links.Pacts) == 0 {
		return nil, noPactsFound(s.Provider, tag, listing)
	}

	links := make([]string, 0, len(hal.Links.Pacts))
	for _, link := range hal.Links.Pacts {
		links = append(links, link.Href)
	}
	sort.Strings(links)
	return links, nil
}

func noPactsFound(provider, tag, listing string) error {
	return fmt.Errorf("%w for provider '%s' and tag '%s'. (URL %s)", types.ErrNoPactsFound, provider, tag, listing)
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 URL %q: %w", raw, err)
	}
	if u.Scheme != "s3" || u.Host == "" || strings.Trim(u.Path, "/") == "" {
		return "", "", fmt.Errorf("invalid S3 URL %q: want s3://bucket/key", raw)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

func (l *Loader) loadS3(ctx context.Context, s S3Source) (*Pact, error) {
	bucket, key, err := ParseS3URL(s.URL)
	if err != nil {
		return nil, err
	}
	if l.s3 == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		l.s3 = s3.NewFromConfig(cfg)
	}

	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get failed for %s: %w", s.URL, err)
	}
	defer func() { _ = out.Body.Close() }()
	return parseFrom(out.Body, s)
}
