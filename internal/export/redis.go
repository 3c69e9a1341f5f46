package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/redis"
)

const redisBatch = 200

// Reserved hash fields; terms never start with an underscore.
const (
	fieldTarget = "_target"
	fieldSplit  = "_split"
)

// HashStore is the subset of the Redis client the sink needs.
type HashStore interface {
	StoreHashes(ctx context.Context, hashes []redis.Hash, ttl time.Duration) error
	ReplaceList(ctx context.Context, key string, values []string, ttl time.Duration) error
}

// RedisSink stores every document's stored cells as a hash under
// features:<run>:<doc>, and the vocabulary in column order as a list under
// features:<run>:vocabulary. Everything expires after TTL.
type RedisSink struct {
	store HashStore
	ttl   time.Duration
}

func NewRedisSink(store HashStore, ttl time.Duration) *RedisSink {
	return &RedisSink{store: store, ttl: ttl}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Close() error {
	if c, ok := s.store.(Closer); ok {
		return c.Close()
	}
	return nil
}

// DocumentKey is the hash key for doc in run.
func DocumentKey(runID string, doc int) string {
	return "features:" + runID + ":" + strconv.Itoa(doc)
}

// VocabularyKey is the list key holding run's terms.
func VocabularyKey(runID string) string {
	return "features:" + runID + ":vocabulary"
}

func (s *RedisSink) Export(ctx context.Context, snap *Snapshot) error {
	if err := s.store.ReplaceList(ctx, VocabularyKey(snap.RunID), snap.Vocabulary.Terms(), s.ttl); err != nil {
		return err
	}
	rows := snap.Rows()
	for start := 0; start < len(rows); start += redisBatch {
		end := min(start+redisBatch, len(rows))
		hashes := make([]redis.Hash, 0, end-start)
		for _, row := range rows[start:end] {
			hashes = append(hashes, documentHash(row))
		}
		if err := s.store.StoreHashes(ctx, hashes, s.ttl); err != nil {
			return fmt.Errorf("documents %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func documentHash(row DocumentRow) redis.Hash {
	fields := make(map[string]any, len(row.Features)+2)
	for term, w := range row.Features {
		fields[term] = w
	}
	fields[fieldTarget] = row.Target
	fields[fieldSplit] = row.Split
	return redis.Hash{Key: DocumentKey(row.RunID, row.Doc), Fields: fields}
}
