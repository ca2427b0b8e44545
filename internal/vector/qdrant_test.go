package vector

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hyperjump/ruiji/internal/embedding"
	"github.com/hyperjump/ruiji/internal/models"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
)

// pointsStore is an in-memory Qdrant points service.
type pointsStore struct {
	pb.UnimplementedPointsServer

	mu       sync.Mutex
	points   map[string]*pb.PointStruct
	apiKeys  []string
	lastWait bool
}

func (s *pointsStore) recordKey(ctx context.Context) {
	md, _ := metadata.FromIncomingContext(ctx)
	s.apiKeys = append(s.apiKeys, md.Get("api-key")...)
}

// collectionList serves a fixed collection listing backed by the same store.
type collectionList struct {
	pb.UnimplementedCollectionsServer
	store *pointsStore
}

func (c collectionList) List(ctx context.Context, _ *pb.ListCollectionsRequest) (*pb.ListCollectionsResponse, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.recordKey(ctx)
	return &pb.ListCollectionsResponse{Collections: []*pb.CollectionDescription{{Name: "other"}, {Name: "counseling-index"}}}, nil
}

func (s *pointsStore) Upsert(ctx context.Context, req *pb.UpsertPoints) (*pb.PointsOperationResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordKey(ctx)
	s.lastWait = req.GetWait()
	for _, p := range req.GetPoints() {
		s.points[p.GetId().GetUuid()] = p
	}
	return &pb.PointsOperationResponse{Result: &pb.UpdateResult{Status: pb.UpdateStatus_Completed}}, nil
}

func inNamespace(p *pb.PointStruct, f *pb.Filter) bool {
	for _, c := range f.GetMust() {
		field := c.GetField()
		if p.GetPayload()[field.GetKey()].GetStringValue() != field.GetMatch().GetKeyword() {
			return false
		}
	}
	return true
}

func (s *pointsStore) Search(ctx context.Context, req *pb.SearchPoints) (*pb.SearchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordKey(ctx)
	var out []*pb.ScoredPoint
	for _, p := range s.points {
		if !inNamespace(p, req.GetFilter()) || uint64(len(out)) >= req.GetLimit() {
			continue
		}
		out = append(out, &pb.ScoredPoint{
			Id:      p.GetId(),
			Payload: p.GetPayload(),
			Score:   0.75,
			Vectors: &pb.VectorsOutput{VectorsOptions: &pb.VectorsOutput_Vector{
				Vector: &pb.VectorOutput{Data: p.GetVectors().GetVector().GetData()},
			}},
		})
	}
	return &pb.SearchResponse{Result: out}, nil
}

func (s *pointsStore) Count(ctx context.Context, req *pb.CountPoints) (*pb.CountResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordKey(ctx)
	var n uint64
	for _, p := range s.points {
		if inNamespace(p, req.GetFilter()) {
			n++
		}
	}
	return &pb.CountResponse{Result: &pb.CountResult{Count: n}}, nil
}

func newBufconnQdrant(t *testing.T) (*QdrantService, *pointsStore) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	store := &pointsStore{points: map[string]*pb.PointStruct{}}
	srv := grpc.NewServer()
	pb.RegisterPointsServer(srv, store)
	pb.RegisterCollectionsServer(srv, collectionList{store: store})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	svc, err := dialQdrant("passthrough:///bufnet", "secret", false,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc, store
}

func TestQdrantService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, store := newBufconnQdrant(t)

	names, err := svc.ListCollections(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[1] != "counseling-index" {
		t.Errorf("collections=%v", names)
	}

	id := uuid.NewString()
	items := []Item{{ID: id, Vector: []float32{0.6, 0.8}, Payload: map[string]string{payloadContext: "I can't sleep", payloadResponse: "Keep a regular bedtime."}}}
	if err := svc.Upsert(ctx, "counseling-index", "counseling", items); err != nil {
		t.Fatal(err)
	}
	stored := store.points[id]
	if stored == nil {
		t.Fatalf("point %s not stored under its uuid", id)
	}
	if !store.lastWait {
		t.Error("upsert should wait for the write")
	}
	if ns := stored.GetPayload()[namespaceKey].GetStringValue(); ns != "counseling" {
		t.Errorf("namespace payload=%q", ns)
	}

	matches, err := svc.Query(ctx, "counseling-index", "counseling", []float32{0.6, 0.8}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches=%d, want 1", len(matches))
	}
	m := matches[0]
	if m.ID != id || m.Score != 0.75 || len(m.Vector) != 2 || m.Vector[1] != 0.8 {
		t.Errorf("match=%+v", m)
	}
	if _, ok := m.Payload[namespaceKey]; ok {
		t.Error("namespace leaked into the returned payload")
	}
	if m.Payload[payloadResponse] != "Keep a regular bedtime." {
		t.Errorf("payload=%v", m.Payload)
	}

	if n, err := svc.Count(ctx, "counseling-index", "counseling"); err != nil || n != 1 {
		t.Errorf("count=%d err=%v", n, err)
	}
	if n, _ := svc.Count(ctx, "counseling-index", "other"); n != 0 {
		t.Errorf("count in other namespace=%d, want 0", n)
	}
	if other, _ := svc.Query(ctx, "counseling-index", "other", []float32{0.6, 0.8}, 3); len(other) != 0 {
		t.Errorf("query in other namespace returned %d matches", len(other))
	}

	for _, k := range store.apiKeys {
		if k != "secret" {
			t.Errorf("api-key metadata=%q", k)
		}
	}
	if len(store.apiKeys) == 0 {
		t.Error("api-key metadata not sent")
	}
}

func TestRemoteIndex_OverQdrant(t *testing.T) {
	ctx := context.Background()
	svc, _ := newBufconnQdrant(t)
	e := embedding.NewBatchEmbedder(embedding.NewMockProvider(8, 0))
	idx, err := NewRemoteIndex(ctx, svc, e, RemoteOptions{
		APIKey:     "secret",
		Collection: "counseling-index",
		Namespace:  "counseling",
		Dimensions: 8,
		Metric:     "cosine",
		IDStrategy: IDContent,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	recs := []models.Record{{Context: "I feel lonely", Response: "Reach out to someone you trust."}}
	for i := 0; i < 2; i++ {
		if _, err := idx.Load(ctx, recs); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := idx.Size(ctx); n != 1 {
		t.Errorf("size=%d after loading the same record twice, want 1", n)
	}
	results, err := idx.Search(ctx, "lonely", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Record.Response != "Reach out to someone you trust." {
		t.Errorf("results=%+v", results)
	}
}
