package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rxportal/patientkit/pkg/logger"
)

// ErrSinkClosed is returned by SearchSink.Close when called twice.
var ErrSinkClosed = errors.New("telemetry: sink closed")

// Indexer stores a JSON document under id in index.
type Indexer interface {
	Index(ctx context.Context, index, id string, doc []byte) error
}

// Document is the JSON shape written by SearchSink.
type Document struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"` // "event" or "error"
	Timestamp time.Time         `json:"timestamp"`
	Event     *Event            `json:"event,omitempty"`
	Error     string            `json:"error,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
	Contexts  []Context         `json:"contexts,omitempty"`
	User      *User             `json:"user,omitempty"`
}

// SearchSinkConfig tunes the background indexing worker.
type SearchSinkConfig struct {
	Index        string        `env:"TELEMETRY_SEARCH_INDEX" envDefault:"patientkit-telemetry"`
	BufferSize   int           `env:"TELEMETRY_SEARCH_BUFFER" envDefault:"256"`
	WriteTimeout time.Duration `env:"TELEMETRY_SEARCH_WRITE_TIMEOUT" envDefault:"5s"`
}

// SearchSink indexes telemetry documents asynchronously.
// Documents are queued on a bounded buffer; when it is full the document is
// dropped and counted, so callers never wait on the search cluster.
type SearchSink struct {
	indexer Indexer
	cfg     SearchSinkConfig
	log     *slog.Logger
	queue   chan Document
	user    atomic.Pointer[User]
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewSearchSink starts a sink writing through indexer.
func NewSearchSink(indexer Indexer, cfg SearchSinkConfig, log *slog.Logger) *SearchSink {
	if indexer == nil {
		panic("telemetry: indexer cannot be nil")
	}
	if cfg.Index == "" {
		cfg.Index = "patientkit-telemetry"
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}

	s := &SearchSink{
		indexer: indexer,
		cfg:     cfg,
		log:     log.With(logger.Component("telemetry.search")),
		queue:   make(chan Document, max(cfg.BufferSize, 1)),
	}

	s.wg.Add(1)
	go s.worker()

	return s
}

func (s *SearchSink) RecordEvent(_ context.Context, e Event) {
	e = normalize(e)
	s.enqueue(Document{
		Kind:      "event",
		Timestamp: e.Timestamp,
		Event:     &e,
	})
}

func (s *SearchSink) RecordError(_ context.Context, err error, tags map[string]string, extra ...Context) {
	if err == nil {
		return
	}
	s.enqueue(Document{
		Kind:      "error",
		Timestamp: time.Now(),
		Error:     err.Error(),
		Tags:      maps.Clone(tags),
		Contexts:  extra,
	})
}

func (s *SearchSink) SetUser(_ context.Context, u *User) {
	s.user.Store(cloneUser(u))
}

// Dropped returns how many documents were discarded because the buffer was full.
func (s *SearchSink) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops accepting documents and waits for queued ones to be written.
func (s *SearchSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSinkClosed
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *SearchSink) enqueue(doc Document) {
	doc.ID = uuid.NewString()
	doc.User = s.user.Load()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.dropped.Add(1)
		return
	}

	select {
	case s.queue <- doc:
	default:
		s.dropped.Add(1)
	}
}

func (s *SearchSink) worker() {
	defer s.wg.Done()

	for doc := range s.queue {
		body, err := json.Marshal(doc)
		if err != nil {
			s.log.Error("failed to encode telemetry document", logger.Error(err))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
		if err := s.indexer.Index(ctx, s.cfg.Index, doc.ID, body); err != nil {
			s.log.WarnContext(ctx, "failed to index telemetry document", logger.Error(err))
		}
		cancel()
	}
}
