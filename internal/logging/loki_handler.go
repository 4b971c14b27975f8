package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

const defaultFlushInterval = 5 * time.Second

// LokiOptions configures a LokiHandler / Configure un LokiHandler
type LokiOptions struct {
	URL    string            // Loki endpoint, e.g. http://localhost:3100
	Labels map[string]string // Static stream labels
	// BatchSize is the number of lines sent together; 0 sends every line at once.
	BatchSize     int
	FlushInterval time.Duration
	Level         slog.Leveler
	Client        *http.Client
	// ErrorOutput receives push failures; a down Loki never fails the caller.
	ErrorOutput io.Writer
}

// lokiSink is the batch shared by a handler and the handlers derived from it.
type lokiSink struct {
	url    string
	labels map[string]string
	client *http.Client
	errOut io.Writer

	mu        sync.Mutex
	batch     [][]string
	batchSize int
	timer     *time.Timer
	interval  time.Duration
	closed    bool
}

// LokiHandler is a slog.Handler that pushes JSON lines to Loki in batches.
type LokiHandler struct {
	sink   *lokiSink
	level  slog.Leveler
	attrs  []groupedAttr
	prefix string // dotted path of the open groups
}

// groupedAttr is an attr bound to the groups open when WithAttrs was called.
type groupedAttr struct {
	prefix string
	attr   slog.Attr
}

type lokiPushRequest struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

// NewLokiHandler creates a handler pushing to opts.URL / Crée un handler vers Loki
func NewLokiHandler(opts LokiOptions) *LokiHandler {
	if opts.Labels == nil {
		opts.Labels = map[string]string{}
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 5 * time.Second}
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushInterval
	}
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	if opts.ErrorOutput == nil {
		opts.ErrorOutput = os.Stderr
	}

	s := &lokiSink{
		url:       opts.URL + "/loki/api/v1/push",
		labels:    opts.Labels,
		client:    opts.Client,
		errOut:    opts.ErrorOutput,
		batchSize: opts.BatchSize,
		interval:  opts.FlushInterval,
	}
	if s.batchSize > 0 {
		s.timer = time.AfterFunc(s.interval, s.periodicFlush)
	}
	return &LokiHandler{sink: s, level: opts.Level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LokiHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle queues the record and pushes the batch once it is full.
func (h *LokiHandler) Handle(_ context.Context, r slog.Record) error {
	line := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	at := r.Time
	if at.IsZero() {
		at = time.Now()
	} else {
		line["time"] = r.Time.Format(time.RFC3339Nano)
	}
	for _, ga := range h.attrs {
		put(line, ga.prefix, ga.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		put(line, h.prefix, a)
		return true
	})

	raw, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("failed to marshal log to JSON: %w", err)
	}
	return h.sink.add(at, string(raw))
}

// put stores a under prefix, flattening groups into dotted keys.
// A group with an empty key is inlined.
func put(line map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := join(prefix, a.Key)
	if a.Value.Kind() == slog.KindGroup {
		for _, sub := range a.Value.Group() {
			put(line, key, sub)
		}
		return
	}
	line[key] = a.Value.Any()
}

func join(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// WithAttrs returns a handler adding attrs to every line, qualified by the
// groups open now and not by groups opened later.
func (h *LokiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = make([]groupedAttr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, groupedAttr{prefix: h.prefix, attr: a})
	}
	return &clone
}

// WithGroup returns a handler prefixing later keys with name.
func (h *LokiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = join(h.prefix, name)
	return &clone
}

// Close flushes any remaining logs and stops the periodic flush timer
func (h *LokiHandler) Close() error {
	h.sink.mu.Lock()
	h.sink.closed = true
	if h.sink.timer != nil {
		h.sink.timer.Stop()
	}
	h.sink.mu.Unlock()
	return h.sink.flush()
}

func (s *lokiSink) add(at time.Time, line string) error {
	s.mu.Lock()
	s.batch = append(s.batch, []string{strconv.FormatInt(at.UnixNano(), 10), line})
	full := len(s.batch) >= s.batchSize
	s.mu.Unlock()

	if full {
		return s.flush()
	}
	return nil
}

// flush sends all batched lines to Loki.
func (s *lokiSink) flush() error {
	s.mu.Lock()
	if len(s.batch) == 0 {
		s.mu.Unlock()
		return nil
	}
	values := s.batch
	s.batch = nil
	s.mu.Unlock()

	body, err := json.Marshal(lokiPushRequest{
		Streams: []lokiStream{{Stream: s.labels, Values: values}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}
	s.push(body)
	return nil
}

func (s *lokiSink) push(body []byte) {
	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(s.errOut, "loki: failed to create request: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		fmt.Fprintf(s.errOut, "loki: push failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		fmt.Fprintf(s.errOut, "loki: push rejected with %d: %s\n", resp.StatusCode, msg)
	}
}

func (s *lokiSink) periodicFlush() {
	_ = s.flush()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.timer.Reset(s.interval)
	}
}
