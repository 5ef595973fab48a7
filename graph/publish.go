package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/facultyatlas/scraper"
	"github.com/c360studio/facultyatlas/store"
)

// Publisher announces entities and scrape results on NATS subjects under a
// configurable prefix. A nil Publisher is valid and publishes nothing, so
// callers never need to branch on whether NATS is configured.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *slog.Logger
}

// Connect dials NATS and returns a publisher. An empty URL returns a nil
// publisher, which degrades to a no-op.
func Connect(url, subjectPrefix string, logger *slog.Logger) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url, nats.Name("facultyatlas"))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return &Publisher{nc: nc, prefix: subjectPrefix, logger: logger.With("component", "graph")}, nil
}

// Close drains the connection.
func (p *Publisher) Close() error {
	if p == nil || p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}

// PublishFaculty publishes one aggregated faculty view as an entity ingest
// message on <prefix>.entity.ingest.
func (p *Publisher) PublishFaculty(ctx context.Context, view *store.FacultyView) error {
	if p == nil || p.nc == nil {
		return nil // no NATS configured, skip publishing
	}
	return p.publish(ctx, p.prefix+".entity.ingest", facultyMessage(view))
}

// PublishScrapeResult announces a completed university scrape on
// <prefix>.scrape.completed. Faculty payloads are omitted; subscribers pull
// entities from the ingest subject.
func (p *Publisher) PublishScrapeResult(ctx context.Context, result *scraper.Result) error {
	if p == nil || p.nc == nil {
		return nil
	}
	summary := struct {
		UniversityName string           `json:"university_name"`
		BaseURL        string           `json:"base_url"`
		Success        bool             `json:"success"`
		Error          string           `json:"error,omitempty"`
		Metadata       scraper.Metadata `json:"metadata"`
	}{
		UniversityName: result.UniversityName,
		BaseURL:        result.BaseURL,
		Success:        result.Success,
		Error:          result.Error,
		Metadata:       result.Metadata,
	}
	return p.publish(ctx, p.prefix+".scrape.completed", summary)
}

func (p *Publisher) publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", subject, err)
	}
	p.logger.Debug("published", "subject", subject, "bytes", len(data))
	return nil
}
