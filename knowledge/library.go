package knowledge

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

// Library owns the corpus of a running site. The navigation lookup used by
// subcategory filtering reads the same loaded document, so one load serves
// every consumer.
type Library struct {
	src    Source
	logger *log.Logger

	loadMu sync.Mutex // serializes Load

	mu       sync.RWMutex
	corpus   *Corpus
	loadedAt time.Time
	lastErr  error
}

// NewLibrary creates a library for src. The corpus is empty until Load.
func NewLibrary(src Source, logger *log.Logger) *Library {
	if logger == nil {
		logger = log.New("knowledge")
	}
	return &Library{src: src, logger: logger, corpus: Empty()}
}

// Load fetches the corpus and installs it. On failure the library holds an
// empty corpus, the error is logged and Load returns false.
func (l *Library) Load(ctx context.Context) bool {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	start := time.Now()
	c, err := Load(ctx, l.src)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastErr = err
	if err != nil {
		l.corpus = Empty()
		l.loadedAt = time.Time{}
		l.logger.Errorf("corpus load failed: %v", err)
		return false
	}
	l.corpus = c
	l.loadedAt = time.Now()
	l.logger.Infof("corpus loaded from %s: %d articles in %s", l.src, c.Len(), time.Since(start))
	return true
}

// Corpus returns the current corpus. It is never nil.
func (l *Library) Corpus() *Corpus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.corpus
}

// Status reports when the corpus was last loaded and the last load error.
func (l *Library) Status() (loadedAt time.Time, err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt, l.lastErr
}

// Source returns the source the library loads from.
func (l *Library) Source() Source {
	return l.src
}
