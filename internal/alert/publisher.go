package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/t77yq/cronhive/internal/model"
)

// streamName holds dead-job alerts on the broker.
const streamName = "CRONHIVE_ALERTS"

// Config controls the alert publisher connection.
type Config struct {
	URL           string
	SubjectPrefix string
	ConnectWait   time.Duration
}

// Publisher publishes dead-job alerts to NATS JetStream so downstream
// notification tooling can fan them out.
type Publisher struct {
	logger *zap.Logger
	nc     *nats.Conn
	js     nats.JetStreamContext
	prefix string
}

// NewPublisher connects to NATS and ensures the alert stream exists.
func NewPublisher(logger *zap.Logger, cfg Config) (*Publisher, error) {
	logger = logger.Named("alert")

	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "cronhive"
	}
	if cfg.ConnectWait == 0 {
		cfg.ConnectWait = 5 * time.Second
	}

	opts := []nats.Option{
		nats.Name("cronhive"),
		nats.Timeout(cfg.ConnectWait),
		nats.MaxReconnects(3),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{
		logger: logger,
		nc:     nc,
		js:     js,
		prefix: cfg.SubjectPrefix,
	}
	if err := p.ensureStream(); err != nil {
		nc.Close()
		return nil, err
	}
	return p, nil
}

// ensureStream creates the alert stream when it does not exist yet.
func (p *Publisher) ensureStream() error {
	_, err := p.js.StreamInfo(streamName)
	if err == nil {
		return nil
	}
	if err != nats.ErrStreamNotFound {
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	_, err = p.js.AddStream(&nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{p.prefix + ".>"},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	p.logger.Info("Created alert stream", zap.String("name", streamName))
	return nil
}

// PublishDeadJobs publishes one alert per dead entry in the report. A publish
// failure stops the batch; remaining alerts go out on the next scan.
func (p *Publisher) PublishDeadJobs(ctx context.Context, report *model.Report) error {
	subject := p.prefix + ".dead_job"

	for _, entry := range report.Entries {
		if entry == nil || entry.Verdict == nil || entry.Verdict.Status != model.VerdictDead {
			continue
		}

		a := &model.DeadJobAlert{
			ID:              uuid.New().String(),
			ScanID:          report.ScanID,
			Severity:        model.AlertSeverityCritical,
			Source:          entry.Job.Source,
			User:            entry.Job.User,
			Schedule:        entry.Job.Schedule,
			Command:         entry.Job.Command,
			ExpectedLastRun: entry.Verdict.ExpectedLastRun,
			CheckedAt:       entry.Verdict.CheckedAt,
		}

		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to marshal alert: %w", err)
		}
		if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
			return fmt.Errorf("failed to publish alert: %w", err)
		}

		p.logger.Info("Published dead job alert",
			zap.String("id", a.ID),
			zap.String("source", a.Source),
			zap.String("schedule", a.Schedule))
	}
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	p.nc.Close()
}
