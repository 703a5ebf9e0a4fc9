// Package content imports markdown sources from a storage provider into the
// blog service.
package content

import (
	"blogpress/internal/blog"
	"blogpress/internal/storage"
	"blogpress/internal/telemetry"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	sourceSuffix = ".md"
	maxFileSize  = 10 * 1024 * 1024
)

type metaData struct {
	// ID pins the blog id. Without it the id is derived from the source key.
	ID      string `yaml:"id"`
	Preview string `yaml:"preview"`
	Draft   bool   `yaml:"draft"`
}

type ImportReport struct {
	Found   int `json:"found"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type Importer struct {
	provider  storage.Provider
	sink      BlogSink
	namespace uuid.UUID
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

func NewImporter(provider storage.Provider, sink BlogSink, namespace uuid.UUID, metrics *telemetry.Metrics, logger *slog.Logger) *Importer {
	return &Importer{
		provider:  provider,
		sink:      sink,
		namespace: namespace,
		metrics:   metrics,
		logger:    logger,
	}
}

// Import puts every markdown source of the provider into the sink. Sources
// failing to compile are logged and counted, the rest carry on.
func (i *Importer) Import(ctx context.Context) (ImportReport, error) {
	var report ImportReport

	keys, err := i.provider.List(ctx, sourceSuffix)
	if err != nil {
		return report, fmt.Errorf("cannot list sources: %w", err)
	}
	report.Found = len(keys)
	i.logger.Info("importing sources", "count", len(keys))

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome, err := i.importOne(ctx, key)
		if err != nil {
			report.Failed++
			i.logger.Error("import failed", "key", key, "err", err)
			i.metrics.SourcesImportedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
			continue
		}

		switch outcome {
		case "created":
			report.Created++
		case "updated":
			report.Updated++
		case "skipped":
			report.Skipped++
		}
		i.metrics.SourcesImportedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		i.logger.Debug(" -> imported", "key", key, "outcome", outcome)
	}

	return report, nil
}

func (i *Importer) importOne(ctx context.Context, key string) (string, error) {
	raw, err := i.read(ctx, key)
	if err != nil {
		return "", err
	}

	var meta metaData
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		// broken yaml, keep the document as is
		body = raw
		meta = metaData{}
	}
	if meta.Draft {
		return "skipped", nil
	}

	id, err := i.sourceID(key, meta.ID)
	if err != nil {
		return "", err
	}

	in := blog.Input{Content: string(body)}
	if p := strings.TrimSpace(meta.Preview); p != "" {
		in.Preview = &p
	}

	_, created, err := i.sink.Put(ctx, id, in)
	if err != nil {
		return "", err
	}
	if created {
		return "created", nil
	}
	return "updated", nil
}

func (i *Importer) read(ctx context.Context, key string) ([]byte, error) {
	rc, err := i.provider.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadingFile, key, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadingFile, key, err)
	}
	if len(raw) > maxFileSize {
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, key)
	}
	return raw, nil
}

// sourceID keeps ids stable across imports of the same key.
func (i *Importer) sourceID(key, pinned string) (uuid.UUID, error) {
	if pinned == "" {
		return uuid.NewV5(i.namespace, key), nil
	}
	id, err := uuid.FromString(pinned)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, pinned)
	}
	return id, nil
}
