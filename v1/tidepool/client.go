package tidepool

import (
	"context"
	"net/http"
	"strings"

	"github.com/milannair/tidepool-go/v1/observability"
)

// Client talks to the Query and Ingest services. Its configuration is fixed
// at construction and no per-call state is stored on it, so a single Client
// may be shared by any number of goroutines.
type Client struct {
	cfg      Config
	http     *http.Client
	logger   Logger
	observer observability.Observer
	tracer   Tracer
}

// NewClient validates cfg and returns a ready client. Zero-valued fields
// take their defaults; blank URLs or namespace and negative timeouts are
// rejected with a validation *Error.
//
// Example:
//
//	client, err := tidepool.NewClient(*tidepool.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.QueryURL = strings.TrimRight(strings.TrimSpace(cfg.QueryURL), "/")
	cfg.IngestURL = strings.TrimRight(strings.TrimSpace(cfg.IngestURL), "/")
	cfg.Namespace = strings.TrimSpace(cfg.Namespace)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: cfg.Logger,
	}, nil
}

// WithObserver attaches an observer that is notified after every operation.
// This method uses the builder pattern and returns the client for method chaining.
//
// Example:
//
//	client := client.WithObserver(metrics).WithLogger(log)
func (c *Client) WithObserver(observer observability.Observer) *Client {
	c.observer = observer
	return c
}

// WithLogger sets the logger for this client and returns the client for method chaining.
func (c *Client) WithLogger(logger Logger) *Client {
	c.logger = logger
	return c
}

// WithTracer enables a span per operation and trace-context propagation to
// both services.
func (c *Client) WithTracer(tracer Tracer) *Client {
	c.tracer = tracer
	return c
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Close releases idle connections held by the transport.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Health calls GET /health on the chosen service and returns the decoded body.
func (c *Client) Health(ctx context.Context, service Service) (result any, err error) {
	if _, err := c.baseURL(service); err != nil {
		return nil, err
	}
	ctx, done := c.begin(ctx, "health", "", service, 0)
	defer func() { done(err) }()

	return c.do(ctx, service, http.MethodGet, "/health", nil)
}

type upsertBody struct {
	Vectors        []Document     `json:"vectors"`
	DistanceMetric DistanceMetric `json:"distance_metric,omitempty"`
}

// Upsert writes documents to a namespace. Documents with an existing ID are
// replaced, not merged.
func (c *Client) Upsert(ctx context.Context, docs []Document, opts UpsertOptions) (err error) {
	ns, err := c.resolveNamespace(opts.Namespace)
	if err != nil {
		return err
	}
	ctx, done := c.begin(ctx, "upsert", ns, ServiceIngest, int64(len(docs)))
	defer func() { done(err) }()

	if err = validateDocuments(docs); err != nil {
		return err
	}
	if err = validateDistanceMetric(opts.DistanceMetric); err != nil {
		return err
	}

	_, err = c.do(ctx, ServiceIngest, http.MethodPost, vectorsPath(ns), upsertBody{
		Vectors:        docs,
		DistanceMetric: opts.DistanceMetric,
	})
	return err
}

// Query searches a namespace with a vector, and optionally text. It is the
// positional form of QueryWithRequest.
//
// Example:
//
//	resp, err := client.Query(ctx, tidepool.Vector{0.1, 0.2, 0.3}, tidepool.QueryOptions{TopK: 5})
func (c *Client) Query(ctx context.Context, vector Vector, opts QueryOptions) (*QueryResponse, error) {
	return c.query(ctx, QueryRequest{Vector: vector, QueryOptions: opts})
}

// QueryWithRequest is Query taking a single request value; text-only
// searches leave Vector nil.
func (c *Client) QueryWithRequest(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	return c.query(ctx, req)
}

func (c *Client) query(ctx context.Context, req QueryRequest) (resp *QueryResponse, err error) {
	ns, err := c.resolveNamespace(req.Namespace)
	if err != nil {
		return nil, err
	}
	ctx, done := c.begin(ctx, "query", ns, ServiceQuery, 0)
	defer func() { done(err) }()

	body, err := buildQueryBody(req)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, ServiceQuery, http.MethodPost, vectorsPath(ns), body)
	if err != nil {
		return nil, err
	}
	return normalizeQueryResponse(raw, ns)
}

type deleteBody struct {
	IDs []string `json:"ids"`
}

// Delete removes documents by ID.
func (c *Client) Delete(ctx context.Context, ids []string, opts DeleteOptions) (err error) {
	ns, err := c.resolveNamespace(opts.Namespace)
	if err != nil {
		return err
	}
	ctx, done := c.begin(ctx, "delete", ns, ServiceIngest, int64(len(ids)))
	defer func() { done(err) }()

	if err = validateIDs(ids); err != nil {
		return err
	}

	_, err = c.do(ctx, ServiceIngest, http.MethodDelete, vectorsPath(ns), deleteBody{IDs: ids})
	return err
}

// GetNamespace describes one namespace; an empty name means the default.
func (c *Client) GetNamespace(ctx context.Context, namespace string) (info *NamespaceInfo, err error) {
	ns, err := c.resolveNamespace(namespace)
	if err != nil {
		return nil, err
	}
	ctx, done := c.begin(ctx, "get_namespace", ns, ServiceQuery, 0)
	defer func() { done(err) }()

	raw, err := c.do(ctx, ServiceQuery, http.MethodGet, namespacePath(ns), nil)
	if err != nil {
		return nil, err
	}
	return normalizeNamespaceInfo(raw, ns)
}

// ListNamespaces lists the namespaces known to the query service.
func (c *Client) ListNamespaces(ctx context.Context) (list []NamespaceInfo, err error) {
	ctx, done := c.begin(ctx, "list_namespaces", "", ServiceQuery, 0)
	defer func() { done(err) }()

	raw, err := c.do(ctx, ServiceQuery, http.MethodGet, "/v1/namespaces", nil)
	if err != nil {
		return nil, err
	}
	return normalizeNamespaceList(raw)
}

// GetNamespaceStatus reports WAL and segment state of one namespace.
func (c *Client) GetNamespaceStatus(ctx context.Context, namespace string) (status *NamespaceStatus, err error) {
	ns, err := c.resolveNamespace(namespace)
	if err != nil {
		return nil, err
	}
	ctx, done := c.begin(ctx, "get_namespace_status", ns, ServiceIngest, 0)
	defer func() { done(err) }()

	raw, err := c.do(ctx, ServiceIngest, http.MethodGet, namespacePath(ns)+"/status", nil)
	if err != nil {
		return nil, err
	}
	return normalizeStatus(raw)
}

// Status reports the ingest service's global state.
func (c *Client) Status(ctx context.Context) (status *IngestStatus, err error) {
	ctx, done := c.begin(ctx, "status", "", ServiceIngest, 0)
	defer func() { done(err) }()

	raw, err := c.do(ctx, ServiceIngest, http.MethodGet, "/status", nil)
	if err != nil {
		return nil, err
	}
	s, err := normalizeStatus(raw)
	if err != nil {
		return nil, err
	}
	return (*IngestStatus)(s), nil
}

// Compact asks the ingest service to compact a namespace, making recent
// writes queryable.
func (c *Client) Compact(ctx context.Context, namespace string) (err error) {
	ns, err := c.resolveNamespace(namespace)
	if err != nil {
		return err
	}
	ctx, done := c.begin(ctx, "compact", ns, ServiceIngest, 0)
	defer func() { done(err) }()

	_, err = c.do(ctx, ServiceIngest, http.MethodPost, namespacePath(ns)+"/compact", nil)
	return err
}
