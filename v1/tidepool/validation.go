package tidepool

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// requireNonEmpty returns value trimmed, failing when nothing is left.
func requireNonEmpty(value, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", newValidationError("%s must be a non-empty string", field)
	}
	return trimmed, nil
}

// validateVector checks that v is non-empty and finite. When expectedDims is
// positive the length must match it exactly.
func validateVector(v Vector, expectedDims int) error {
	if v == nil {
		return newValidationError("vector must be an array of numbers")
	}
	if len(v) == 0 {
		return newValidationError("vector cannot be empty")
	}
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return newValidationError("vector must contain only finite numbers (index %d)", i)
		}
	}
	if expectedDims > 0 && len(v) != expectedDims {
		return newValidationError("vector dimension mismatch: expected %d, got %d", expectedDims, len(v))
	}
	return nil
}

func requirePositive(value int, field string) error {
	if value <= 0 {
		return newValidationError("%s must be a positive integer", field)
	}
	return nil
}

// optionalPositive treats zero as "not set".
func optionalPositive(value int, field string) error {
	if value == 0 {
		return nil
	}
	return requirePositive(value, field)
}

// resolveQueryMode validates an explicit mode or infers one: hybrid when both
// inputs are present, text when only text is, vector otherwise.
func resolveQueryMode(mode QueryMode, hasVector, hasText bool) (QueryMode, error) {
	if mode != "" {
		switch mode {
		case QueryModeVector, QueryModeText, QueryModeHybrid:
			return mode, nil
		}
		return "", newValidationError("mode must be one of vector, text, hybrid (got %q)", mode)
	}
	switch {
	case hasVector && hasText:
		return QueryModeHybrid, nil
	case hasText:
		return QueryModeText, nil
	default:
		return QueryModeVector, nil
	}
}

// validateFusion accepts an empty (unset) fusion mode.
func validateFusion(fusion FusionMode) error {
	switch fusion {
	case "", FusionBlend, FusionRRF:
		return nil
	}
	return newValidationError("fusion must be one of blend, rrf (got %q)", fusion)
}

// clampAlpha rejects non-finite values and silently clamps the rest into [0,1].
func clampAlpha(alpha float64) (float64, error) {
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return 0, newValidationError("alpha must be a finite number")
	}
	return math.Min(1, math.Max(0, alpha)), nil
}

func validateDistanceMetric(metric DistanceMetric) error {
	switch metric {
	case "", DistanceCosine, DistanceEuclidean, DistanceDotProduct:
		return nil
	}
	return newValidationError("distanceMetric must be one of cosine_distance, euclidean_squared, dot_product (got %q)", metric)
}

// validateDocuments checks a non-empty batch whose vectors all share the
// first document's dimensionality.
func validateDocuments(docs []Document) error {
	if len(docs) == 0 {
		return newValidationError("documents must be a non-empty array")
	}
	dims := len(docs[0].Vector)
	for i, doc := range docs {
		if strings.TrimSpace(doc.ID) == "" {
			return newValidationError("documents[%d].id must be a non-empty string", i)
		}
		if err := validateVector(doc.Vector, dims); err != nil {
			var verr *Error
			if errors.As(err, &verr) {
				verr.Message = fmt.Sprintf("documents[%d]: %s", i, verr.Message)
			}
			return err
		}
	}
	return nil
}

func validateIDs(ids []string) error {
	if len(ids) == 0 {
		return newValidationError("ids must be a non-empty array")
	}
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return newValidationError("ids[%d] must be a non-empty string", i)
		}
	}
	return nil
}
