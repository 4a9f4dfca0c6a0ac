// Package databases holds the vector-index client (C6 of the search
// pipeline). It is a thin wrapper over the qdrant Go client, adapted from
// the teacher's generic DatabaseProvider into a client that knows about
// exactly two collections — article vectors and chunk vectors — since
// that is the whole of the semantic client's contract (spec §4.6).
package databases

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// ArticleHit is one result from the article-vector collection.
type ArticleHit struct {
	ArticleID string
	Score     float32
}

// ChunkHit is one result from the chunk-vector collection. ArticleID and
// ChunkID are carried in the point payload since the point id itself is
// a hashed, non-reversible uint64 (spec §8).
type ChunkHit struct {
	ChunkID   string
	ArticleID string
	Score     float32
}

// SemanticClient is C6: it encodes nothing itself (the caller hands it an
// already-embedded, L2-normalized query vector) and issues the two
// cosine top-K searches the spec calls for.
type SemanticClient struct {
	client            *qdrant.Client
	articleCollection string
	chunkCollection   string
}

// SemanticClientConfig configures the qdrant connection and the names of
// the two fixed-dimension cosine collections.
type SemanticClientConfig struct {
	Host              string
	Port              int
	APIKey            string
	UseTLS            bool
	ArticleCollection string
	ChunkCollection   string
}

func NewSemanticClient(cfg SemanticClientConfig) (*SemanticClient, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client for %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &SemanticClient{
		client:            client,
		articleCollection: cfg.ArticleCollection,
		chunkCollection:   cfg.ChunkCollection,
	}, nil
}

// ArticlePointID returns the point id used for an article's own embedding:
// the numeric article id itself (spec §8).
func ArticlePointID(articleID uint64) uint64 {
	return articleID
}

// ChunkPointID returns the point id used for a chunk embedding: the first
// 8 bytes of SHA-1(chunk_id), big-endian, as a uint64 (spec §8). Chunk ids
// are arbitrary strings, so they cannot be used as qdrant numeric ids
// directly; the readable chunk_id and its article_id are carried in the
// point payload instead.
func ChunkPointID(chunkID string) uint64 {
	sum := sha1.Sum([]byte(chunkID))
	return binary.BigEndian.Uint64(sum[:8])
}

// SearchArticles issues the article-vector cosine top-K search. Payload is
// not required for this collection (spec §4.6); only ids and scores are
// read back.
func (c *SemanticClient) SearchArticles(ctx context.Context, queryVector []float32, topK int) ([]ArticleHit, error) {
	points, err := c.client.GetPointsClient().Search(ctx, &qdrant.SearchPoints{
		CollectionName: c.articleCollection,
		Vector:         queryVector,
		Limit:          uint64(topK),
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return nil, fmt.Errorf("article vector search failed: %w", err)
	}

	hits := make([]ArticleHit, 0, len(points.Result))
	for _, p := range points.Result {
		hits = append(hits, ArticleHit{
			ArticleID: pointIDString(p.Id),
			Score:     p.Score,
		})
	}
	return hits, nil
}

// SearchChunks issues the chunk-vector cosine top-K search. Payload must
// carry chunk_id and article_id since the point id is an opaque hash
// (spec §4.6, §8).
func (c *SemanticClient) SearchChunks(ctx context.Context, queryVector []float32, topK int) ([]ChunkHit, error) {
	points, err := c.client.GetPointsClient().Search(ctx, &qdrant.SearchPoints{
		CollectionName: c.chunkCollection,
		Vector:         queryVector,
		Limit:          uint64(topK),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("chunk vector search failed: %w", err)
	}

	hits := make([]ChunkHit, 0, len(points.Result))
	for _, p := range points.Result {
		hit := ChunkHit{Score: p.Score}
		if p.Payload != nil {
			if v, ok := p.Payload["chunk_id"]; ok {
				hit.ChunkID = v.GetStringValue()
			}
			if v, ok := p.Payload["article_id"]; ok {
				hit.ArticleID = v.GetStringValue()
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// EnsureCollection creates a cosine-distance collection of the given
// vector dimension if it does not already exist, so a fresh environment
// can be brought up without a separate admin step. cmd/searchsvc does
// not call it; the service expects both collections to exist.
func (c *SemanticClient) EnsureCollection(ctx context.Context, collection string, dimension uint64) error {
	exists, err := c.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", collection, err)
	}
	if exists {
		return nil
	}

	return c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

// UpsertArticleVector stores an article's embedding under its numeric id.
func (c *SemanticClient) UpsertArticleVector(ctx context.Context, articleID uint64, vector []float32) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(ArticlePointID(articleID)),
		Vectors: qdrant.NewVectors(vector...),
	}
	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.articleCollection,
		Points:         []*qdrant.PointStruct{point},
	})
	return err
}

// UpsertChunkVector stores a chunk's embedding under its hashed point id,
// carrying the readable chunk_id/article_id in the payload.
func (c *SemanticClient) UpsertChunkVector(ctx context.Context, chunkID, articleID string, vector []float32) error {
	payload := map[string]*qdrant.Value{
		"chunk_id":   qdrant.NewValueString(chunkID),
		"article_id": qdrant.NewValueString(articleID),
	}
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(ChunkPointID(chunkID)),
		Vectors: qdrant.NewVectors(vector...),
		Payload: payload,
	}
	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.chunkCollection,
		Points:         []*qdrant.PointStruct{point},
	})
	return err
}

func (c *SemanticClient) Close() error {
	return c.client.Close()
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil || id.PointIdOptions == nil {
		return ""
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num)
	case *qdrant.PointId_Uuid:
		return v.Uuid
	default:
		return ""
	}
}
