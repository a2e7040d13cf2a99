package core

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// JobStatus is the outcome of one processed file.
type JobStatus string

const (
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// JobEvent is published once per finished job.
type JobEvent struct {
	RunID      string    `json:"run_id"`
	Command    string    `json:"command"`
	Input      string    `json:"input"`
	Output     string    `json:"output,omitempty"`
	Status     JobStatus `json:"status"`
	Rows       int       `json:"rows"`
	Skipped    int       `json:"skipped"`
	Normal     int       `json:"normal"`
	Attack     int       `json:"attack"`
	Synthetic  int       `json:"synthetic"`
	Unknown    int       `json:"unknown,omitempty"`
	Strategy   string    `json:"strategy,omitempty"`
	Digest     string    `json:"digest,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Marshal serializes the event to JSON.
func (e *JobEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalJobEvent deserializes a JobEvent from JSON.
func UnmarshalJobEvent(data []byte) (*JobEvent, error) {
	var e JobEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher receives finished job events. A nil *JobBus is a valid
// Publisher that drops everything.
type Publisher interface {
	PublishJob(event *JobEvent) error
}

// JobBus wraps NATS JetStream for publishing job results.
type JobBus struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	ns     *server.Server
	prefix string
	logger zerolog.Logger
	mu     sync.Mutex

	published int64
	failed    int64
}

// NewJobBus connects to NATS. If cfg.Embedded is true, it starts an
// embedded server first. A Port of -1 picks a random free port.
func NewJobBus(cfg *BusConfig, logger zerolog.Logger) (*JobBus, error) {
	bus := &JobBus{
		prefix: strings.TrimSuffix(cfg.SubjectPrefix, "."),
		logger: logger.With().Str("component", "job_bus").Logger(),
	}
	if bus.prefix == "" {
		bus.prefix = "flowprep"
	}

	url := cfg.URL
	if cfg.Embedded {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating NATS data dir: %w", err)
		}

		opts := &server.Options{
			Host:      "127.0.0.1",
			Port:      cfg.Port,
			JetStream: true,
			StoreDir:  cfg.DataDir,
			NoLog:     true,
			NoSigs:    true,
		}

		ns, err := server.NewServer(opts)
		if err != nil {
			return nil, fmt.Errorf("creating embedded NATS server: %w", err)
		}

		ns.Start()

		if !ns.ReadyForConnections(10 * time.Second) {
			ns.Shutdown()
			return nil, fmt.Errorf("embedded NATS server failed to start within timeout")
		}

		bus.ns = ns
		url = ns.ClientURL()
		bus.logger.Info().Str("url", url).Msg("embedded NATS server started")
	}

	nc, err := nats.Connect(url,
		nats.Name("flowprep"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				bus.logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
	)
	if err != nil {
		bus.shutdownServer()
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	bus.nc = nc

	js, err := nc.JetStream()
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}
	bus.js = js

	streamCfg := &nats.StreamConfig{
		Name:      streamName(bus.prefix),
		Subjects:  []string{bus.prefix + ".jobs.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour * 30,
		Storage:   nats.FileStorage,
		Discard:   nats.DiscardOld,
	}
	if _, err := js.AddStream(streamCfg); err != nil {
		if _, updateErr := js.UpdateStream(streamCfg); updateErr != nil {
			bus.Close()
			return nil, fmt.Errorf("creating/updating jobs stream: %w (original: %v)", updateErr, err)
		}
	}

	bus.logger.Info().Str("url", url).Str("stream", streamCfg.Name).Msg("connected to NATS JetStream")
	return bus, nil
}

func streamName(prefix string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "*", "_", ">", "_")
	return strings.ToUpper(r.Replace(prefix)) + "_JOBS"
}

// Subject returns the subject a job event with the given status is
// published on.
func (b *JobBus) Subject(status JobStatus) string {
	return fmt.Sprintf("%s.jobs.%s", b.prefix, status)
}

// PublishJob publishes a finished job to the jobs stream.
func (b *JobBus) PublishJob(event *JobEvent) error {
	if b == nil {
		return nil
	}
	data, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling job event: %w", err)
	}

	subject := b.Subject(event.Status)
	if _, err := b.js.Publish(subject, data); err != nil {
		b.mu.Lock()
		b.failed++
		b.mu.Unlock()
		return fmt.Errorf("publishing job event to %s: %w", subject, err)
	}

	b.mu.Lock()
	b.published++
	b.mu.Unlock()

	b.logger.Debug().
		Str("run_id", event.RunID).
		Str("subject", subject).
		Str("input", event.Input).
		Msg("job event published")
	return nil
}

// Subscribe delivers job events on subject to handler using a core NATS
// subscription. Malformed payloads are logged and dropped.
func (b *JobBus) Subscribe(subject string, handler func(*JobEvent)) (*nats.Subscription, error) {
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		event, err := UnmarshalJobEvent(msg.Data)
		if err != nil {
			b.logger.Error().Err(err).Str("subject", msg.Subject).Msg("failed to unmarshal job event")
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	if err := b.nc.Flush(); err != nil {
		return nil, fmt.Errorf("flushing subscription to %s: %w", subject, err)
	}
	return sub, nil
}

// Counts returns how many events were published and how many failed.
func (b *JobBus) Counts() (published, failed int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published, b.failed
}

// Close drains the connection and stops the embedded server, if any.
func (b *JobBus) Close() error {
	if b == nil {
		return nil
	}
	if b.nc != nil {
		if err := b.nc.Drain(); err != nil {
			b.logger.Warn().Err(err).Msg("NATS drain failed")
		}
		// Drain is asynchronous; wait for it before stopping the server.
		for i := 0; i < 50 && !b.nc.IsClosed(); i++ {
			time.Sleep(20 * time.Millisecond)
		}
	}
	b.shutdownServer()
	b.logger.Info().Msg("job bus closed")
	return nil
}

func (b *JobBus) shutdownServer() {
	if b.ns != nil {
		b.ns.Shutdown()
		b.ns.WaitForShutdown()
		b.ns = nil
	}
}
