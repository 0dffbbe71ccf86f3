// internal/pact/writer.go
package pact

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Writer persists a pact after a successful consumer test.
type Writer interface {
	WritePact(p *Pact, version SpecVersion) error
}

// FileName returns the conventional file name for p.
func FileName(p *Pact) string {
	return fmt.Sprintf("%s-%s.json", p.Consumer.Name, p.Provider.Name)
}

// Write renders p to w.
func Write(w io.Writer, p *Pact, version SpecVersion) error {
	data, err := Marshal(p, version)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write pact: %w", err)
	}
	return nil
}

// DirWriter writes pacts as files into Dir.
type DirWriter struct {
	Dir string
}

// WritePact writes p to Dir/<consumer>-<provider>.json, replacing any previous file.
func (w DirWriter) WritePact(p *Pact, version SpecVersion) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create pact directory: %w", err)
	}
	data, err := Marshal(p, version)
	if err != nil {
		return err
	}

	path := filepath.Join(w.Dir, FileName(p))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pact file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write pact file: %w", err)
	}
	slog.Info("pact: wrote pact file", "path", path, "interactions", len(p.Interactions))
	return nil
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(p *Pact, version SpecVersion) error

func (f WriterFunc) WritePact(p *Pact, version SpecVersion) error { return f(p, version) }
