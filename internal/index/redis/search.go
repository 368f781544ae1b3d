package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/grantstream/patentrag/internal/domain"
	"github.com/grantstream/patentrag/internal/index"
)

// Hash field names for indexed records.
const (
	fieldVector     = "vector"
	fieldTitle      = "title"
	fieldPatentType = "patent_type"
	fieldText       = "text"
	fieldScore      = "__vector_score"
)

// Ensure creates the HNSW index when absent.
func (s *Store) Ensure(ctx context.Context) error {
	args := []string{
		s.indexName(),
		"ON", "HASH",
		"PREFIX", "1", s.keyPrefix + "rec:",
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.dimensions),
		"DISTANCE_METRIC", "COSINE",
		fieldTitle, "TEXT",
		fieldPatentType, "TAG",
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return fmt.Errorf("create index: %w: %w", err, domain.ErrIndexUnavailable)
	}
	return nil
}

// Upsert writes entries as hashes in a single DoMulti round-trip.
func (s *Store) Upsert(ctx context.Context, entries []index.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(entries))
	for i, e := range entries {
		if len(e.Vector) != s.dimensions {
			return fmt.Errorf("entry %s: got %d dimensions, want %d: %w",
				e.ID, len(e.Vector), s.dimensions, domain.ErrVectorDimMismatch)
		}
		cmds[i] = s.b().Hset().Key(s.recordKey(e.ID)).FieldValue().
			FieldValue(fieldVector, vectorToBytes(e.Vector)).
			FieldValue(fieldTitle, e.Title).
			FieldValue(fieldPatentType, e.PatentType).
			FieldValue(fieldText, e.Text).
			Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return fmt.Errorf("upsert %s: %w: %w", entries[i].ID, err, domain.ErrIndexUnavailable)
		}
	}
	return nil
}

// Query runs a KNN vector search via FT.SEARCH.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]index.Hit, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("got %d dimensions, want %d: %w",
			len(vector), s.dimensions, domain.ErrVectorDimMismatch)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @%s $BLOB]", k, fieldVector)
	args := []string{
		s.indexName(), queryStr,
		"RETURN", "4", fieldTitle, fieldPatentType, fieldText, fieldScore,
		"SORTBY", fieldScore,
		"LIMIT", "0", strconv.Itoa(k),
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("knn search: %w: %w", err, domain.ErrIndexUnavailable)
	}

	return s.parseHits(raw)
}

// Count returns the number of indexed records via a zero-limit search.
func (s *Store) Count(ctx context.Context) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(s.indexName(), "*", "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, fmt.Errorf("count: %w: %w", err, domain.ErrIndexUnavailable)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse total: %w", err)
	}
	return int(total), nil
}

// parseHits decodes the RESP2 FT.SEARCH reply:
// [total, key1, fields1, key2, fields2, ...] with fields as flat
// name/value pairs.
func (s *Store) parseHits(raw []rueidis.RedisMessage) ([]index.Hit, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	hits := make([]index.Hit, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		hit := index.Hit{ID: key[len(s.keyPrefix+"rec:"):]}
		for j := 0; j+1 < len(fields); j += 2 {
			name, _ := fields[j].ToString()
			value, _ := fields[j+1].ToString()
			switch name {
			case fieldTitle:
				hit.Title = value
			case fieldPatentType:
				hit.PatentType = value
			case fieldText:
				hit.Text = value
			case fieldScore:
				if dist, perr := strconv.ParseFloat(value, 64); perr == nil {
					// COSINE returns distance; flip to similarity.
					hit.Score = 1 - dist
				}
			}
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

// vectorToBytes encodes float32 values as little-endian bytes for the
// VECTOR field blob.
func vectorToBytes(vec []float32) string {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
