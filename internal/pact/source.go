// internal/pact/source.go
package pact

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Source says where pact documents come from.
type Source interface {
	Description() string
	isSource()
}

// DirectorySource loads every *.json file in a directory.
type DirectorySource struct {
	Dir string
}

// FileSource loads a single pact file.
type FileSource struct {
	Path string
}

// URLSource loads a pact from one URL.
type URLSource struct {
	URL string
}

// URLsSource loads one pact per URL.
type URLsSource struct {
	URLs []string
}

// BrokerSource loads the latest pacts for a provider from a pact broker.
// With tags set, the latest pact per tag is loaded instead.
type BrokerSource struct {
	URL      string
	Provider string
	Tags     []string
	Username string
	Password string
	Token    string
}

// ReaderSource loads a single pact from a reader.
type ReaderSource struct {
	Reader io.Reader
}

// S3Source loads a pact from an s3://bucket/key URL.
type S3Source struct {
	URL string
}

// UnknownSource marks pacts whose origin is not known.
type UnknownSource struct{}

// ClosureSource produces pacts from a function.
type ClosureSource struct {
	Fn func(ctx context.Context) ([]*Pact, error)
}

func (DirectorySource) isSource() {}
func (FileSource) isSource()      {}
func (URLSource) isSource()       {}
func (URLsSource) isSource()      {}
func (BrokerSource) isSource()    {}
func (ReaderSource) isSource()    {}
func (S3Source) isSource()        {}
func (UnknownSource) isSource()   {}
func (ClosureSource) isSource()   {}

func (s DirectorySource) Description() string { return "Directory " + s.Dir }
func (s FileSource) Description() string      { return "File " + s.Path }
func (s URLSource) Description() string       { return "URL " + s.URL }
func (s URLsSource) Description() string      { return fmt.Sprintf("URLs [%s]", strings.Join(s.URLs, ", ")) }
func (s BrokerSource) Description() string    { return "Pact Broker " + s.URL }
func (ReaderSource) Description() string      { return "Reader" }
func (s S3Source) Description() string        { return "S3 Bucket " + s.URL }
func (UnknownSource) Description() string     { return "Unknown" }
func (ClosureSource) Description() string     { return "Closure" }
