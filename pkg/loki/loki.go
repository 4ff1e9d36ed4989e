package loki

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

var ErrStopped = errors.New("loki pusher is stopped")

type Logger interface {
	Error(msg string, args ...any)
}

type Config struct {

	// TenantKey and TenantValue form an optional tenant header for multi-tenant setups.
	TenantKey   string
	TenantValue string

	// Url of the loki push endpoint, e.g. https://example-prod.grafana.net/loki/api/v1/push
	Url string `validate:"required,url"`

	// BatchMaxSize is the maximum number of log lines sent in one request.
	BatchMaxSize int `validate:"gte=1"`

	// BatchMaxWait is the maximum time an entry waits in the batch.
	BatchMaxWait time.Duration `validate:"gte=1"`

	// BufferSize bounds the queue between Push and the sending goroutine.
	BufferSize int `validate:"gte=1"`

	// Labels are added to every stream.
	Labels map[string]string

	// Username and Password enable basic auth when both are set.
	Username string
	Password string
}

func (cfg *Config) setDefaults() {
	if cfg.BatchMaxSize == 0 {
		cfg.BatchMaxSize = 1000
	}
	if cfg.BatchMaxWait == 0 {
		cfg.BatchMaxWait = 5 * time.Second
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 1024
	}
	if cfg.Labels == nil {
		cfg.Labels = map[string]string{}
	}
}

type LogEntry struct {
	Level   string            `json:"level"`
	Message string            `json:"msg"`
	Caller  string            `json:"caller,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

type timedEntry struct {
	at    time.Time
	entry LogEntry
}

// Pusher batches log entries and ships them to loki. Entries are grouped into one stream per level.
type Pusher struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	client  *http.Client
	entries chan timedEntry
	batch   []timedEntry
	wg      sync.WaitGroup
	once    sync.Once
	logger  Logger
}

func New(ctx context.Context, cfg Config, logger Logger) (*Pusher, error) {

	cfg.setDefaults()
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pusher{
		config:  cfg,
		ctx:     ctx,
		cancel:  cancel,
		client:  &http.Client{Timeout: 10 * time.Second},
		entries: make(chan timedEntry, cfg.BufferSize),
		batch:   make([]timedEntry, 0, cfg.BatchMaxSize),
		logger:  logger,
	}

	p.wg.Add(1)
	go p.run()
	return p, nil
}

// Push queues the entry. It never blocks: when the buffer is full the entry is dropped.
func (p *Pusher) Push(e LogEntry) error {
	if p.ctx.Err() != nil {
		return ErrStopped
	}
	select {
	case p.entries <- timedEntry{at: time.Now(), entry: e}:
		return nil
	default:
		return fmt.Errorf("loki buffer is full, entry dropped")
	}
}

// Stop flushes what is batched and stops the pusher.
func (p *Pusher) Stop() {
	p.once.Do(func() {
		p.cancel()
		p.wg.Wait()
	})
}

func (p *Pusher) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.BatchMaxWait)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			p.drain()
			p.flush(context.Background())
			return
		case e := <-p.entries:
			p.batch = append(p.batch, e)
			if len(p.batch) >= p.config.BatchMaxSize {
				p.flush(p.ctx)
			}
		case <-ticker.C:
			p.flush(p.ctx)
		}
	}
}

func (p *Pusher) drain() {
	for {
		select {
		case e := <-p.entries:
			p.batch = append(p.batch, e)
		default:
			return
		}
	}
}

func (p *Pusher) flush(ctx context.Context) {
	if len(p.batch) == 0 {
		return
	}
	if err := p.send(ctx, p.buildRequest()); err != nil {
		p.logger.Error("failed to send logs", "error", err)
	}
	p.batch = p.batch[:0]
}

func (p *Pusher) buildRequest() pushRequest {
	byLevel := make(map[string]*stream)
	var order []string

	for _, e := range p.batch {
		line, err := json.Marshal(e.entry)
		if err != nil {
			continue
		}

		s, ok := byLevel[e.entry.Level]
		if !ok {
			labels := make(map[string]string, len(p.config.Labels)+1)
			for k, v := range p.config.Labels {
				labels[k] = v
			}
			labels["level"] = e.entry.Level
			s = &stream{Stream: labels}
			byLevel[e.entry.Level] = s
			order = append(order, e.entry.Level)
		}
		s.Values = append(s.Values, []string{strconv.FormatInt(e.at.UnixNano(), 10), string(line)})
	}

	request := pushRequest{Streams: make([]stream, 0, len(order))}
	for _, level := range order {
		request.Streams = append(request.Streams, *byLevel[level])
	}
	return request
}

func (p *Pusher) send(ctx context.Context, request pushRequest) error {
	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)

	if err := json.NewEncoder(gz).Encode(request); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Url, buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")

	if p.config.TenantKey != "" {
		req.Header.Set(p.config.TenantKey, p.config.TenantValue)
	}
	if p.config.Username != "" && p.config.Password != "" {
		req.SetBasicAuth(p.config.Username, p.config.Password)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("received unexpected response code from Loki: %s, body: %s", resp.Status, string(body))
	}

	return nil
}
