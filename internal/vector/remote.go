package vector

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/hyperjump/ruiji/internal/embedding"
	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/pkg/utils"
	"go.uber.org/zap"
)

const (
	payloadContext  = "context"
	payloadResponse = "response"

	// IDContent derives identifiers from record content so resubmitted batches overwrite.
	IDContent = "content"
	// IDRandom assigns a fresh random identifier per stored record.
	IDRandom = "random"
)

// RemoteOptions describes the pre-provisioned collection a RemoteIndex writes to.
type RemoteOptions struct {
	APIKey     string
	Collection string
	Namespace  string
	Dimensions int
	Metric     string
	IDStrategy string
}

// RemoteIndex stores records in a managed vector service. Scores are the service's
// native similarity and are not on the same scale as FlatIndex scores.
type RemoteIndex struct {
	svc      VectorService
	embedder embedding.Embedder
	opts     RemoteOptions
	logger   *zap.Logger
}

// NewRemoteIndex verifies the credential and that the collection exists. It never
// creates collections.
func NewRemoteIndex(ctx context.Context, svc VectorService, embedder embedding.Embedder, opts RemoteOptions, logger *zap.Logger) (*RemoteIndex, error) {
	if opts.APIKey == "" {
		return nil, models.ConfigError("remote vector backend requires an api key")
	}
	if opts.Collection == "" {
		return nil, models.ConfigError("remote vector backend requires a collection name")
	}
	switch opts.IDStrategy {
	case "":
		opts.IDStrategy = IDContent
	case IDContent, IDRandom:
	default:
		return nil, models.ConfigError("unknown id strategy %q", opts.IDStrategy)
	}

	names, err := svc.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if !slices.Contains(names, opts.Collection) {
		return nil, models.ConfigError("index %s does not exist; create it with dimension=%d and metric=%s",
			opts.Collection, opts.Dimensions, opts.Metric)
	}

	return &RemoteIndex{svc: svc, embedder: embedder, opts: opts, logger: utils.OrNop(logger)}, nil
}

// CreateIndex is a no-op; the collection is provisioned out of band.
func (r *RemoteIndex) CreateIndex(_ context.Context, dimension int) error {
	r.logger.Debug("remote collection is pre-provisioned, skipping create",
		zap.String("collection", r.opts.Collection),
		zap.Int("dimension", dimension))
	return nil
}

// Load embeds records and upserts them in one call. A failed upsert is returned as
// is; nothing is retried or rolled back.
func (r *RemoteIndex) Load(ctx context.Context, records []models.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if err := models.ValidateRecords(records); err != nil {
		return 0, err
	}
	vecs, err := r.embedder.EmbedBatch(ctx, models.Contexts(records), embedding.InputPassage)
	if err != nil {
		return 0, fmt.Errorf("embed records: %w", err)
	}

	items := make([]Item, len(records))
	for i, rec := range records {
		if r.opts.Dimensions > 0 && len(vecs[i]) != r.opts.Dimensions {
			return 0, models.DimensionError(len(vecs[i]), r.opts.Dimensions)
		}
		items[i] = Item{
			ID:     r.recordID(rec),
			Vector: vecs[i],
			Payload: map[string]string{
				payloadContext:  rec.Context,
				payloadResponse: rec.Response,
			},
		}
	}

	if err := r.svc.Upsert(ctx, r.opts.Collection, r.opts.Namespace, items); err != nil {
		return 0, fmt.Errorf("upsert %d records into %s/%s: %w", len(items), r.opts.Collection, r.opts.Namespace, err)
	}
	r.logger.Info("upserted records",
		zap.String("collection", r.opts.Collection),
		zap.String("namespace", r.opts.Namespace),
		zap.Int("records", len(items)))
	return len(items), nil
}

func (r *RemoteIndex) recordID(rec models.Record) string {
	if r.opts.IDStrategy == IDRandom {
		return uuid.NewString()
	}
	name := r.opts.Namespace + "\x00" + rec.Context + "\x00" + rec.Response
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// Search runs a namespaced top-k query and maps matches in service order.
func (r *RemoteIndex) Search(ctx context.Context, query string, k int) ([]*models.SearchResult, error) {
	if k <= 0 {
		return []*models.SearchResult{}, nil
	}
	q, err := r.embedder.Embed(ctx, query, embedding.InputQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := r.svc.Query(ctx, r.opts.Collection, r.opts.Namespace, q, k)
	if err != nil {
		return nil, fmt.Errorf("query %s/%s: %w", r.opts.Collection, r.opts.Namespace, err)
	}

	results := make([]*models.SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, &models.SearchResult{
			Record: models.Record{
				ID:       m.ID,
				Context:  m.Payload[payloadContext],
				Response: m.Payload[payloadResponse],
			},
			Score: float64(m.Score),
			Rank:  len(results) + 1,
		})
	}
	return results, nil
}

// Size returns the number of points stored under the namespace.
func (r *RemoteIndex) Size(ctx context.Context) (int64, error) {
	return r.svc.Count(ctx, r.opts.Collection, r.opts.Namespace)
}

func (r *RemoteIndex) Dimensions() int { return r.opts.Dimensions }

// Ready is always true; the collection is presumed provisioned.
func (r *RemoteIndex) Ready() bool { return true }

func (r *RemoteIndex) Type() string { return TypeRemote }

func (r *RemoteIndex) Close() error {
	return r.svc.Close()
}
