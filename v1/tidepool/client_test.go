package tidepool

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func ptr[T any](v T) *T { return &v }

func TestNewClientAppliesDefaultsAndValidates(t *testing.T) {
	client, err := NewClient(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultQueryURL, client.Config().QueryURL)
	assert.Equal(t, DefaultIngestURL, client.Config().IngestURL)
	assert.Equal(t, DefaultTimeout, client.Config().Timeout)
	assert.Equal(t, DefaultNamespace, client.Config().Namespace)

	client, err = NewClient(Config{QueryURL: "http://query:8080/", IngestURL: " http://ingest:8081 "})
	require.NoError(t, err)
	assert.Equal(t, "http://query:8080", client.Config().QueryURL)
	assert.Equal(t, "http://ingest:8081", client.Config().IngestURL)

	for name, cfg := range map[string]Config{
		"blank query url":  {QueryURL: "   "},
		"blank ingest url": {IngestURL: "\t"},
		"negative timeout": {Timeout: -time.Millisecond},
		"blank namespace":  {Namespace: "  "},
	} {
		_, err := NewClient(cfg)
		assert.True(t, IsValidationError(err), name)
	}
}

func TestQueryEndToEnd(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	query.Reply(http.MethodPost, "/v1/vectors/default", http.StatusOK, map[string]any{
		"namespace": "default",
		"results":   []any{map[string]any{"id": "doc-1", "score": 0.92}},
	})
	client := newTestClient(t, query, ingest)

	resp, err := client.Query(context.Background(), Vector{0.1, 0.2, 0.3, 0.4}, QueryOptions{TopK: 5})
	require.NoError(t, err)
	assert.Equal(t, "default", resp.Namespace)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "doc-1", resp.Results[0].ID)
	assert.InDelta(t, 0.92, resp.Results[0].Score, 1e-6)

	req := query.Last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	_, err = uuid.Parse(req.Header.Get("X-Request-ID"))
	assert.NoError(t, err)

	assert.Equal(t, float64(5), req.Body["top_k"])
	assert.Equal(t, "vector", req.Body["mode"])
	assert.Equal(t, false, req.Body["include_vectors"])
	assert.Len(t, req.Body["vector"], 4)
	for _, key := range []string{"text", "alpha", "fusion", "rrf_k", "ef_search", "nprobe", "filters", "distance_metric"} {
		assert.NotContains(t, req.Body, key)
	}
	assert.Empty(t, ingest.Requests())
}

func TestQueryWireBodyCarriesAllOptions(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	query.Reply(http.MethodPost, "/v1/vectors/default", http.StatusOK, []any{})
	client := newTestClient(t, query, ingest)

	_, err := client.Query(context.Background(), Vector{1, 2, 3}, QueryOptions{
		TopK:           5,
		DistanceMetric: DistanceCosine,
		Filters:        Attributes{"lang": "en"},
		EfSearch:       10,
		NProbe:         4,
		Alpha:          ptr(2.0),
		Fusion:         FusionRRF,
		RRFK:           ptr(8),
		IncludeVectors: true,
		Text:           "  tide pools ",
	})
	require.NoError(t, err)

	body := query.Last(t).Body
	assert.Equal(t, float64(5), body["top_k"])
	assert.Equal(t, "cosine_distance", body["distance_metric"])
	assert.Equal(t, map[string]any{"lang": "en"}, body["filters"])
	assert.Equal(t, float64(10), body["ef_search"])
	assert.Equal(t, float64(4), body["nprobe"])
	assert.Equal(t, float64(1), body["alpha"])
	assert.Equal(t, "rrf", body["fusion"])
	assert.Equal(t, float64(8), body["rrf_k"])
	assert.Equal(t, true, body["include_vectors"])
	assert.Equal(t, "tide pools", body["text"])
	assert.Equal(t, "hybrid", body["mode"])
}

func TestQueryCallingConventionsAgree(t *testing.T) {
	opts := QueryOptions{TopK: 3, Namespace: "tenant_a", Alpha: ptr(0.3), Text: "hello"}
	vector := Vector{0.5, 0.25}

	positional, err := buildQueryBody(QueryRequest{Vector: vector, QueryOptions: opts})
	require.NoError(t, err)

	query, ingest := newStubBackend(t), newStubBackend(t)
	query.Reply(http.MethodPost, "/v1/vectors/tenant_a", http.StatusOK, map[string]any{"results": []any{}})
	client := newTestClient(t, query, ingest)

	_, err = client.Query(context.Background(), vector, opts)
	require.NoError(t, err)
	_, err = client.QueryWithRequest(context.Background(), QueryRequest{Vector: vector, QueryOptions: opts})
	require.NoError(t, err)

	reqs := query.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, reqs[0].Body, reqs[1].Body)

	want, err := json.Marshal(positional)
	require.NoError(t, err)
	var wantBody map[string]any
	require.NoError(t, json.Unmarshal(want, &wantBody))
	assert.Equal(t, wantBody, reqs[0].Body)
}

func TestTextOnlyQuery(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	query.Reply(http.MethodPost, "/v1/vectors/docs", http.StatusOK, map[string]any{
		"ns":      "docs",
		"vectors": []any{map[string]any{"id": "a", "distance": 1.5}},
	})
	client := newTestClient(t, query, ingest)

	resp, err := client.QueryWithRequest(context.Background(), QueryRequest{
		QueryOptions: QueryOptions{Text: " hello ", Namespace: "docs"},
	})
	require.NoError(t, err)
	assert.Equal(t, "docs", resp.Namespace)
	assert.InDelta(t, 1.5, resp.Results[0].Score, 1e-6)

	body := query.Last(t).Body
	assert.Equal(t, "text", body["mode"])
	assert.Equal(t, "hello", body["text"])
	assert.Equal(t, float64(DefaultTopK), body["top_k"])
	assert.NotContains(t, body, "vector")
}

func TestQueryValidationFailsBeforeNetwork(t *testing.T) {
	tests := []struct {
		name   string
		req    QueryRequest
		errMsg string
	}{
		{name: "negative topK", req: QueryRequest{Vector: Vector{1}, QueryOptions: QueryOptions{TopK: -1}}, errMsg: "topK"},
		{name: "negative efSearch", req: QueryRequest{Vector: Vector{1}, QueryOptions: QueryOptions{EfSearch: -1}}, errMsg: "efSearch"},
		{name: "negative nprobe", req: QueryRequest{Vector: Vector{1}, QueryOptions: QueryOptions{NProbe: -2}}, errMsg: "nprobe"},
		{name: "zero rrfK", req: QueryRequest{Vector: Vector{1}, QueryOptions: QueryOptions{RRFK: ptr(0)}}, errMsg: "rrfK"},
		{name: "bogus mode", req: QueryRequest{Vector: Vector{1}, QueryOptions: QueryOptions{Mode: "bogus"}}, errMsg: "mode"},
		{name: "text mode without text", req: QueryRequest{Vector: Vector{1}, QueryOptions: QueryOptions{Mode: QueryModeText}}, errMsg: "text is required"},
		{name: "hybrid with blank text", req: QueryRequest{Vector: Vector{1}, QueryOptions: QueryOptions{Mode: QueryModeHybrid, Text: "   "}}, errMsg: "text is required"},
		{name: "hybrid without vector", req: QueryRequest{QueryOptions: QueryOptions{Mode: QueryModeHybrid, Text: "x"}}, errMsg: "vector is required"},
		{name: "no inputs at all", req: QueryRequest{}, errMsg: "vector is required"},
		{name: "empty vector", req: QueryRequest{Vector: Vector{}}, errMsg: "cannot be empty"},
		{name: "non-finite vector", req: QueryRequest{Vector: Vector{float32(math.Inf(1))}}, errMsg: "finite"},
		{name: "nan alpha", req: QueryRequest{Vector: Vector{1}, QueryOptions: QueryOptions{Alpha: ptr(math.NaN())}}, errMsg: "alpha"},
		{name: "bogus fusion", req: QueryRequest{Vector: Vector{1}, QueryOptions: QueryOptions{Fusion: "max"}}, errMsg: "fusion"},
		{name: "bogus metric", req: QueryRequest{Vector: Vector{1}, QueryOptions: QueryOptions{DistanceMetric: "l1"}}, errMsg: "distanceMetric"},
	}

	query, ingest := newStubBackend(t), newStubBackend(t)
	query.Router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})
	client := newTestClient(t, query, ingest)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.QueryWithRequest(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
	assert.Empty(t, query.Requests())
}

func TestUpsertNamespaceResolution(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	ingest.Router.HandleFunc("/v1/vectors/{namespace}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}).Methods(http.MethodPost)
	client := newTestClient(t, query, ingest)

	docs := []Document{{ID: "doc-1", Vector: Vector{1, 2}}}
	ctx := context.Background()

	require.NoError(t, client.Upsert(ctx, docs, UpsertOptions{}))
	require.NoError(t, client.Upsert(ctx, docs, UpsertOptions{Namespace: "tenant_a"}))
	require.NoError(t, client.Upsert(ctx, docs, UpsertOptions{Namespace: "   "}))

	reqs := ingest.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "/v1/vectors/default", reqs[0].Path)
	assert.Equal(t, "/v1/vectors/tenant_a", reqs[1].Path)
	assert.Equal(t, "/v1/vectors/default", reqs[2].Path)
	assert.Empty(t, query.Requests())
}

func TestUpsertBody(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	ingest.Reply(http.MethodPost, "/v1/vectors/default", http.StatusOK, nil)
	client := newTestClient(t, query, ingest)

	err := client.Upsert(context.Background(), []Document{
		{ID: "a", Vector: Vector{1, 2}, Text: "hello", Attributes: Attributes{"tags": []any{"x"}}},
		{ID: "b", Vector: Vector{3, 4}},
	}, UpsertOptions{DistanceMetric: DistanceDotProduct})
	require.NoError(t, err)

	body := ingest.Last(t).Body
	assert.Equal(t, "dot_product", body["distance_metric"])
	vectors, ok := body["vectors"].([]any)
	require.True(t, ok)
	require.Len(t, vectors, 2)

	first := vectors[0].(map[string]any)
	assert.Equal(t, "a", first["id"])
	assert.Equal(t, "hello", first["text"])
	assert.Equal(t, map[string]any{"tags": []any{"x"}}, first["attributes"])

	second := vectors[1].(map[string]any)
	assert.NotContains(t, second, "text")
	assert.NotContains(t, second, "attributes")
}

func TestUpsertValidation(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	client := newTestClient(t, query, ingest)
	ctx := context.Background()

	assert.True(t, IsValidationError(client.Upsert(ctx, nil, UpsertOptions{})))
	assert.True(t, IsValidationError(client.Upsert(ctx, []Document{
		{ID: "a", Vector: Vector{1, 2}},
		{ID: "b", Vector: Vector{1}},
	}, UpsertOptions{})))
	assert.True(t, IsValidationError(client.Upsert(ctx, []Document{{ID: "a", Vector: Vector{1}}}, UpsertOptions{DistanceMetric: "hamming"})))
	assert.Empty(t, ingest.Requests())
}

func TestDelete(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	ingest.Reply(http.MethodDelete, "/v1/vectors/tenant_a", http.StatusOK, map[string]any{"deleted": 2})
	client := newTestClient(t, query, ingest)

	require.NoError(t, client.Delete(context.Background(), []string{"a", "b"}, DeleteOptions{Namespace: "tenant_a"}))

	req := ingest.Last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, []any{"a", "b"}, req.Body["ids"])

	err := client.Delete(context.Background(), []string{""}, DeleteOptions{})
	assert.True(t, IsValidationError(err))
	assert.Len(t, ingest.Requests(), 1)
}

func TestNamespaceOperations(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	query.Reply(http.MethodGet, "/v1/namespaces", http.StatusOK, map[string]any{
		"namespaces": []any{"default", map[string]any{"namespace": "tenant_a", "approx_count": 10}},
	})
	query.Reply(http.MethodGet, "/v1/namespaces/tenant_a", http.StatusOK, map[string]any{
		"namespace": "tenant_a", "approxCount": 10, "dimensions": 4, "pendingCompaction": false,
	})
	ingest.Reply(http.MethodGet, "/v1/namespaces/tenant_a/status", http.StatusOK, map[string]any{
		"last_run": "2024-05-01T12:00:00Z", "wal_files": 1, "wal_entries": 3, "segments": 2, "total_vecs": 10, "dimensions": 4,
	})
	ingest.Router.HandleFunc("/v1/namespaces/tenant_a/compact", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)
	client := newTestClient(t, query, ingest)
	ctx := context.Background()

	list, err := client.ListNamespaces(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "default", list[0].Namespace)
	assert.Equal(t, int64(10), list[1].ApproxCount)

	info, err := client.GetNamespace(ctx, "tenant_a")
	require.NoError(t, err)
	assert.Equal(t, 4, info.Dimensions)
	require.NotNil(t, info.PendingCompaction)
	assert.False(t, *info.PendingCompaction)

	status, err := client.GetNamespaceStatus(ctx, "tenant_a")
	require.NoError(t, err)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, 3, status.WALEntries)
	assert.Equal(t, 2, status.Segments)

	require.NoError(t, client.Compact(ctx, "tenant_a"))
	req := ingest.Last(t)
	assert.Equal(t, "/v1/namespaces/tenant_a/compact", req.Path)
	assert.Empty(t, req.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
}

func TestGetNamespaceNotFound(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	query.Router.HandleFunc("/v1/namespaces/{namespace}", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusNotFound, "namespace missing")
	})
	client := newTestClient(t, query, ingest)

	_, err := client.GetNamespace(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))

	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "namespace missing", terr.Message)
	assert.Equal(t, http.StatusNotFound, terr.StatusCode)
	assert.Equal(t, "/v1/namespaces/default", query.Last(t).Path)
}

func TestStatusServiceUnavailable(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	ingest.Reply(http.MethodGet, "/status", http.StatusServiceUnavailable, map[string]any{"error": "overloaded"})
	client := newTestClient(t, query, ingest)

	_, err := client.Status(context.Background())
	require.Error(t, err)
	assert.True(t, IsServiceUnavailableError(err))

	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "overloaded", terr.Message)
	assert.Equal(t, http.StatusServiceUnavailable, terr.StatusCode)
	assert.Equal(t, map[string]any{"error": "overloaded"}, terr.RawBody)
}

func TestStatusWithRetry(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	var calls atomic.Int32
	ingest.Router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "warming up"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lastRun": nil, "totalVecs": 42})
	})
	client := newTestClient(t, query, ingest)

	noWait := func(context.Context, time.Duration) error { return nil }
	status, err := Retry(context.Background(), RetryPolicy{Sleep: noWait}, func(ctx context.Context) (*IngestStatus, error) {
		return client.Status(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, 42, status.TotalVecs)
	assert.Nil(t, status.LastRun)
	assert.Equal(t, int32(3), calls.Load())
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantKind    ErrorKind
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "json message field",
			handler:     func(w http.ResponseWriter, r *http.Request) { writeJSON(w, 500, map[string]any{"message": "kaput"}) },
			wantKind:    KindClient,
			wantStatus:  500,
			wantMessage: "kaput",
		},
		{
			name:        "payload too large without body",
			handler:     func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusRequestEntityTooLarge) },
			wantKind:    KindValidation,
			wantStatus:  413,
			wantMessage: "Request Entity Too Large",
		},
		{
			name:        "bad request as text",
			handler:     func(w http.ResponseWriter, r *http.Request) { writeText(w, 400, "dimension mismatch") },
			wantKind:    KindValidation,
			wantStatus:  400,
			wantMessage: "dimension mismatch",
		},
		{
			name:        "unknown status",
			handler:     func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(599) },
			wantKind:    KindClient,
			wantStatus:  599,
			wantMessage: "599",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, ingest := newStubBackend(t), newStubBackend(t)
			ingest.Router.HandleFunc("/status", tt.handler)
			client := newTestClient(t, query, ingest)

			_, err := client.Status(context.Background())
			var terr *Error
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tt.wantKind, terr.Kind)
			assert.Equal(t, tt.wantStatus, terr.StatusCode)
			assert.Contains(t, terr.Message, tt.wantMessage)
		})
	}
}

func TestHealth(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	query.Reply(http.MethodGet, "/health", http.StatusOK, map[string]any{"service": "query", "status": "ok"})
	ingest.Router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})
	client := newTestClient(t, query, ingest)
	ctx := context.Background()

	body, err := client.Health(ctx, ServiceQuery)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"service": "query", "status": "ok"}, body)

	body, err = client.Health(ctx, ServiceIngest)
	require.NoError(t, err)
	assert.Equal(t, "ok", body)

	_, err = client.Health(ctx, "storage")
	assert.True(t, IsValidationError(err))
}

func TestUndecodableSuccessBodyIsAbsent(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	query.Router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{not json"))
	})
	client := newTestClient(t, query, ingest)

	body, err := client.Health(context.Background(), ServiceQuery)
	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestUnexpectedShapeIsClientError(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	query.Reply(http.MethodPost, "/v1/vectors/default", http.StatusOK, map[string]any{"hits": []any{}})
	client := newTestClient(t, query, ingest)

	_, err := client.Query(context.Background(), Vector{1}, QueryOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClient)
	assert.Contains(t, err.Error(), "unexpected response shape")
}

func TestRequestTimeout(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	ingest.Router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	client, err := NewClient(*FromURLs(query.URL, ingest.URL).WithTimeout(50 * time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Status(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, IsTimeoutError(err))

	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, StatusTimeout, terr.StatusCode)
	assert.Equal(t, KindClient, terr.Kind)
}

func TestCallerCancellationIsNotATimeout(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	client := newTestClient(t, query, ingest)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Status(ctx)
	require.Error(t, err)
	assert.False(t, IsTimeoutError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentCallersDoNotInterfere(t *testing.T) {
	query, ingest := newStubBackend(t), newStubBackend(t)
	ingest.Router.HandleFunc("/v1/vectors/{namespace}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, nil)
	}).Methods(http.MethodPost)
	client := newTestClient(t, query, ingest)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 20; i++ {
		ns := fmt.Sprintf("tenant_%d", i%2)
		id := fmt.Sprintf("doc-%d", i)
		g.Go(func() error {
			return client.Upsert(ctx, []Document{{ID: id, Vector: Vector{float32(i), 1}}}, UpsertOptions{Namespace: ns})
		})
	}
	require.NoError(t, g.Wait())

	perPath := map[string]int{}
	for _, req := range ingest.Requests() {
		perPath[req.Path]++
		doc := req.Body["vectors"].([]any)[0].(map[string]any)
		var n int
		_, err := fmt.Sscanf(doc["id"].(string), "doc-%d", &n)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("/v1/vectors/tenant_%d", n%2), req.Path)
	}
	assert.Equal(t, map[string]int{"/v1/vectors/tenant_0": 10, "/v1/vectors/tenant_1": 10}, perPath)
}

func TestConfigIsACopy(t *testing.T) {
	client, err := NewClient(*DefaultConfig())
	require.NoError(t, err)

	cfg := client.Config()
	cfg.Namespace = "mutated"
	assert.Equal(t, DefaultNamespace, client.Config().Namespace)
	assert.NoError(t, client.Close())
}
