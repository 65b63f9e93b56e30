package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

// ErrLoad matches every *LoadError.
var ErrLoad = errors.New("knowledge: load failed")

// LoadError reports that the corpus could not be fetched or decoded.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("knowledge: load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is reports ErrLoad as a match.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// Source yields a corpus document.
type Source interface {
	Open(ctx context.Context) (*Document, error)
	String() string
}

// FileSource reads the corpus from a local JSON file.
type FileSource struct {
	Path string
}

func (s FileSource) String() string { return s.Path }

// Open reads and decodes the file.
func (s FileSource) Open(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(data)
}

// maxDocumentSize bounds the body read by HTTPSource.
const maxDocumentSize = 32 << 20

// HTTPSource fetches the corpus over HTTP.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) String() string { return s.URL }

// Open issues a GET and decodes the body. Any non-2xx status is an error.
func (s HTTPSource) Open(ctx context.Context) (*Document, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, err
	}
	return ParseDocument(data)
}

// Load opens src and flattens it into a corpus. Every failure is returned
// as a *LoadError.
func Load(ctx context.Context, src Source) (*Corpus, error) {
	doc, err := src.Open(ctx)
	if err != nil {
		return nil, &LoadError{Source: src.String(), Err: err}
	}
	return NewCorpus(doc), nil
}
