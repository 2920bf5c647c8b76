package tidepool

import "strings"

// queryBody is the wire form of a query. Optional fields are omitted when
// not set.
type queryBody struct {
	Vector         Vector         `json:"vector,omitempty"`
	Text           string         `json:"text,omitempty"`
	TopK           int            `json:"top_k"`
	IncludeVectors bool           `json:"include_vectors"`
	Mode           QueryMode      `json:"mode"`
	DistanceMetric DistanceMetric `json:"distance_metric,omitempty"`
	Filters        Attributes     `json:"filters,omitempty"`
	EfSearch       int            `json:"ef_search,omitempty"`
	NProbe         int            `json:"nprobe,omitempty"`
	Alpha          *float64       `json:"alpha,omitempty"`
	Fusion         FusionMode     `json:"fusion,omitempty"`
	RRFK           *int           `json:"rrf_k,omitempty"`
}

// buildQueryBody validates a reconciled request and produces its wire body.
// Text that is only whitespace counts as absent.
func buildQueryBody(req QueryRequest) (*queryBody, error) {
	topK := req.TopK
	if topK == 0 {
		topK = DefaultTopK
	}
	if err := requirePositive(topK, "topK"); err != nil {
		return nil, err
	}
	if err := optionalPositive(req.EfSearch, "efSearch"); err != nil {
		return nil, err
	}
	if err := optionalPositive(req.NProbe, "nprobe"); err != nil {
		return nil, err
	}
	if req.RRFK != nil {
		if err := requirePositive(*req.RRFK, "rrfK"); err != nil {
			return nil, err
		}
	}

	text := strings.TrimSpace(req.Text)
	hasVector := req.Vector != nil
	hasText := text != ""

	mode, err := resolveQueryMode(req.Mode, hasVector, hasText)
	if err != nil {
		return nil, err
	}
	switch mode {
	case QueryModeVector:
		if !hasVector {
			return nil, newValidationError("vector is required for vector mode")
		}
	case QueryModeText:
		if !hasText {
			return nil, newValidationError("text is required for text mode")
		}
	case QueryModeHybrid:
		if !hasVector {
			return nil, newValidationError("vector is required for hybrid mode")
		}
		if !hasText {
			return nil, newValidationError("text is required for hybrid mode")
		}
	}
	if hasVector {
		if err := validateVector(req.Vector, 0); err != nil {
			return nil, err
		}
	}

	body := &queryBody{
		Vector:         req.Vector,
		Text:           text,
		TopK:           topK,
		IncludeVectors: req.IncludeVectors,
		Mode:           mode,
		DistanceMetric: req.DistanceMetric,
		Filters:        req.Filters,
		EfSearch:       req.EfSearch,
		NProbe:         req.NProbe,
		Fusion:         req.Fusion,
		RRFK:           req.RRFK,
	}

	if req.Alpha != nil {
		alpha, err := clampAlpha(*req.Alpha)
		if err != nil {
			return nil, err
		}
		body.Alpha = &alpha
	}
	if err := validateFusion(req.Fusion); err != nil {
		return nil, err
	}
	if err := validateDistanceMetric(req.DistanceMetric); err != nil {
		return nil, err
	}
	return body, nil
}
