// Package record implements the persistent registry collaborator over the
// Redis store: paginated loads, KNN radius fetches, name lookups, and row
// lifecycle.
package record

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mapfold/poidex/internal/db"
	"github.com/mapfold/poidex/internal/domain"
	"github.com/mapfold/poidex/internal/domain/geo"
	"github.com/mapfold/poidex/internal/domain/match"
)

const (
	keyPrefix = "poidex:record:"
	indexName = "poidex:records:idx"
	seqKey    = "poidex:record:seq"

	// knnFanout bounds how many hits a radius query pulls before the
	// meter filter. The registry holds thousands of rows, not millions.
	knnFanout = 512
)

// store is the consumer interface for the registry (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchTag(ctx context.Context, q *db.TagQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo is the registry repository.
type Repo struct {
	store store
}

// New creates a registry repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// storeErr tags a failed store call as transient unavailability so callers
// (and the HTTP error mapper) can tell it apart from domain conditions.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

// returnFields lists every hash field a search should hydrate.
var returnFields = []string{
	fieldName, fieldNameNorm, fieldLat, fieldLng, fieldLocation, fieldCity,
	fieldCountry, fieldCategory, fieldDescription, fieldAttribution,
	fieldExternalRef, fieldImageURL, fieldMapURL, fieldProvenance,
	fieldPrioritized,
}

// EnsureIndex creates the registry FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:     indexName,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: fieldNameNorm, Type: db.IndexFieldTag},
			{Name: fieldProvenance, Type: db.IndexFieldTag},
			{
				Name: fieldVector, Alias: "vector", Type: db.IndexFieldVector,
				VectorDim: geo.VectorDim, VectorDistance: db.DistanceL2,
			},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return storeErr("create registry index", err)
	}
	return nil
}

// FetchPage returns one page of the registry, ordered by the index, plus the
// offset of the next page (-1 when exhausted).
func (r *Repo) FetchPage(ctx context.Context, offset, limit int) ([]domain.Record, int, error) {
	if limit <= 0 {
		limit = 100
	}

	sr, err := r.store.SearchList(ctx, indexName, "*", offset, limit, returnFields)
	if err != nil {
		return nil, -1, storeErr("fetch page", err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, -1, nil
	}

	records := make([]domain.Record, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		records = append(records, parseHashFields(recordID(e.Key), e.Fields))
	}

	next := -1
	if offset+len(sr.Entries) < sr.Total {
		next = offset + len(sr.Entries)
	}
	return records, next, nil
}

// FetchNear returns registry records within radiusMeters of center, via KNN
// over the ECEF vector index with a meter cutoff on the raw L2 scores.
func (r *Repo) FetchNear(ctx context.Context, center domain.Coordinates, radiusMeters float64) ([]domain.Record, error) {
	if !center.Valid() {
		return nil, domain.ErrInvalidCoordinates
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		Vector:       geo.ToVector(center),
		K:            knnFanout,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, storeErr("fetch near", err)
	}

	var records []domain.Record
	for _, e := range sr.Entries {
		if geo.L2ToMeters(e.Score) > radiusMeters {
			continue
		}
		records = append(records, parseHashFields(recordID(e.Key), e.Fields))
	}
	return records, nil
}

// FetchByName looks up a record by exact normalized name.
// Returns domain.ErrNotFound on a miss.
func (r *Repo) FetchByName(ctx context.Context, name string) (domain.Record, error) {
	norm := match.Normalize(name)
	if norm == "" {
		return domain.Record{}, domain.ErrNotFound
	}

	sr, err := r.store.SearchTag(ctx, &db.TagQuery{
		IndexName:    indexName,
		Field:        fieldNameNorm,
		Value:        norm,
		Limit:        1,
		ReturnFields: returnFields,
	})
	if err != nil {
		return domain.Record{}, storeErr("fetch by name", err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return domain.Record{}, domain.ErrNotFound
	}

	e := sr.Entries[0]
	return parseHashFields(recordID(e.Key), e.Fields), nil
}

// Count returns the number of registry rows.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName, "*")
	if err != nil {
		return 0, storeErr("count", err)
	}
	return n, nil
}

// Create allocates a registry row for the record and persists it. The
// returned record carries the new store-backed ID; the input ID is ignored.
func (r *Repo) Create(ctx context.Context, rec domain.Record) (domain.Record, error) {
	row, err := r.store.Incr(ctx, seqKey)
	if err != nil {
		return domain.Record{}, storeErr("allocate row", err)
	}

	rec.ID = domain.StoreID(row)
	if err := r.store.HSet(ctx, keyPrefix+rec.ID, buildHashFields(&rec)); err != nil {
		return domain.Record{}, storeErr("create "+rec.ID, err)
	}
	return rec, nil
}

// Update rewrites the full hash for an existing record.
// Returns domain.ErrNotFound for unknown IDs.
func (r *Repo) Update(ctx context.Context, rec domain.Record) error {
	key := keyPrefix + rec.ID
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return storeErr("check "+rec.ID, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	if err := r.store.HSet(ctx, key, buildHashFields(&rec)); err != nil {
		return storeErr("update "+rec.ID, err)
	}
	return nil
}

// SetEnrichment patches the image and map URLs without touching other
// fields. Empty values are skipped, never cleared.
func (r *Repo) SetEnrichment(ctx context.Context, id, imageURL, mapURL string) error {
	fields := make(map[string]string, 2)
	if imageURL != "" {
		fields[fieldImageURL] = imageURL
	}
	if mapURL != "" {
		fields[fieldMapURL] = mapURL
	}
	if len(fields) == 0 {
		return nil
	}
	if err := r.store.HSet(ctx, keyPrefix+id, fields); err != nil {
		return storeErr("set enrichment "+id, err)
	}
	return nil
}

// Delete removes a registry row.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, keyPrefix+id); err != nil {
		return storeErr("delete "+id, err)
	}
	return nil
}

// recordID strips the key prefix back to the record ID.
func recordID(key string) string {
	return strings.TrimPrefix(key, keyPrefix)
}
