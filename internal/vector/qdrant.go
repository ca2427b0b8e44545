package vector

import (
	"context"
	"crypto/tls"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const namespaceKey = "namespace"

// QdrantService implements VectorService over the Qdrant gRPC API. Namespaces are a
// keyword payload field applied as a filter on every read.
type QdrantService struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
}

// NewQdrantService dials addr (host:port). A non-empty apiKey is sent as api-key metadata.
func NewQdrantService(addr, apiKey string, useTLS bool) (*QdrantService, error) {
	return dialQdrant(addr, apiKey, useTLS)
}

func dialQdrant(addr, apiKey string, useTLS bool, extra ...grpc.DialOption) (*QdrantService, error) {
	creds := insecure.NewCredentials()
	if useTLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if apiKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(apiKey)))
	}
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	return &QdrantService{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
	}, nil
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func (s *QdrantService) ListCollections(ctx context.Context) ([]string, error) {
	resp, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.GetCollections()))
	for _, c := range resp.GetCollections() {
		names = append(names, c.GetName())
	}
	return names, nil
}

func (s *QdrantService) Upsert(ctx context.Context, collection, namespace string, items []Item) error {
	points := make([]*pb.PointStruct, len(items))
	for i, it := range items {
		payload := map[string]*pb.Value{
			namespaceKey: stringValue(namespace),
		}
		for k, v := range it.Payload {
			payload[k] = stringValue(v)
		}
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: it.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: it.Vector}}},
			Payload: payload,
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         points,
	})
	return err
}

func (s *QdrantService) Query(ctx context.Context, collection, namespace string, vector []float32, k int) ([]Match, error) {
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Filter:         namespaceFilter(namespace),
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(resp.GetResult()))
	for i, pt := range resp.GetResult() {
		payload := make(map[string]string, len(pt.GetPayload()))
		for k, v := range pt.GetPayload() {
			if k != namespaceKey {
				payload[k] = v.GetStringValue()
			}
		}
		matches[i] = Match{
			ID:      pt.GetId().GetUuid(),
			Score:   pt.GetScore(),
			Vector:  pt.GetVectors().GetVector().GetData(),
			Payload: payload,
		}
	}
	return matches, nil
}

func (s *QdrantService) Count(ctx context.Context, collection, namespace string) (int64, error) {
	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: collection,
		Filter:         namespaceFilter(namespace),
		Exact:          &exact,
	})
	if err != nil {
		return 0, err
	}
	return int64(resp.GetResult().GetCount()), nil
}

func (s *QdrantService) Close() error {
	return s.conn.Close()
}

func stringValue(v string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
}

// namespaceFilter returns nil for the default (empty) namespace.
func namespaceFilter(namespace string) *pb.Filter {
	if namespace == "" {
		return nil
	}
	return &pb.Filter{
		Must: []*pb.Condition{{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{
					Key:   namespaceKey,
					Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: namespace}},
				},
			},
		}},
	}
}
