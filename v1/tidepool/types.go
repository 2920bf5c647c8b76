package tidepool

import "time"

// Vector is an ordered sequence of finite numbers.
type Vector []float32

// AttrValue is any JSON-compatible value: nil, bool, number, string,
// []AttrValue or map[string]AttrValue.
type AttrValue = any

// Attributes is arbitrary metadata attached to a document.
type Attributes map[string]AttrValue

// Document is a vector with identity and optional metadata.
// Re-upserting a document with the same ID replaces it.
type Document struct {
	ID         string     `json:"id"`
	Vector     Vector     `json:"vector"`
	Text       string     `json:"text,omitempty"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// VectorResult is a single ranked query hit.
type VectorResult struct {
	ID         string     `json:"id"`
	Score      float32    `json:"score"`
	Vector     Vector     `json:"vector,omitempty"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// QueryResponse is the namespace that was queried and its hits in rank order.
type QueryResponse struct {
	Namespace string         `json:"namespace"`
	Results   []VectorResult `json:"results"`
}

// DistanceMetric controls how distances are computed.
type DistanceMetric string

const (
	DistanceCosine     DistanceMetric = "cosine_distance"
	DistanceEuclidean  DistanceMetric = "euclidean_squared"
	DistanceDotProduct DistanceMetric = "dot_product"
)

// QueryMode selects vector, lexical or hybrid search.
type QueryMode string

const (
	QueryModeVector QueryMode = "vector"
	QueryModeText   QueryMode = "text"
	QueryModeHybrid QueryMode = "hybrid"
)

// FusionMode controls how hybrid scores are combined.
type FusionMode string

const (
	FusionBlend FusionMode = "blend"
	FusionRRF   FusionMode = "rrf"
)

// Service names one of the two backends.
type Service string

const (
	ServiceQuery  Service = "query"
	ServiceIngest Service = "ingest"
)

// NamespaceInfo describes a namespace as reported by the query service.
type NamespaceInfo struct {
	Namespace   string `json:"namespace"`
	ApproxCount int64  `json:"approx_count"`
	Dimensions  int    `json:"dimensions"`
	// PendingCompaction is nil when the backend did not report it.
	PendingCompaction *bool `json:"pending_compaction,omitempty"`
}

// NamespaceStatus describes the maintenance state of one namespace.
type NamespaceStatus struct {
	// LastRun is nil when no run happened or the timestamp was unreadable.
	LastRun    *time.Time `json:"last_run,omitempty"`
	WALFiles   int        `json:"wal_files"`
	WALEntries int        `json:"wal_entries"`
	Segments   int        `json:"segments"`
	TotalVecs  int        `json:"total_vecs"`
	Dimensions int        `json:"dimensions"`
}

// IngestStatus describes the ingest service as a whole.
type IngestStatus NamespaceStatus

// UpsertOptions configures Upsert.
type UpsertOptions struct {
	// Namespace overrides the configured default when non-blank.
	Namespace      string
	DistanceMetric DistanceMetric
}

// DeleteOptions configures Delete.
type DeleteOptions struct {
	Namespace string
}

// QueryOptions configures Query. Zero values mean "not set"; TopK defaults to 10.
type QueryOptions struct {
	TopK           int
	Namespace      string
	DistanceMetric DistanceMetric
	IncludeVectors bool
	Filters        Attributes
	EfSearch       int
	NProbe         int
	Text           string
	// Mode is inferred from the supplied vector and text when empty.
	Mode QueryMode
	// Alpha is clamped into [0,1].
	Alpha  *float64
	Fusion FusionMode
	RRFK   *int
}

// QueryRequest is the single-object form of a query.
type QueryRequest struct {
	Vector Vector
	QueryOptions
}
