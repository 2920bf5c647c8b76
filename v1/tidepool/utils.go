package tidepool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	contentTypeJSON = "application/json"
	headerRequestID = "X-Request-ID"
)

func vectorsPath(namespace string) string {
	return "/v1/vectors/" + url.PathEscape(namespace)
}

func namespacePath(namespace string) string {
	return "/v1/namespaces/" + url.PathEscape(namespace)
}

// resolveNamespace picks the explicit namespace when it is non-blank and the
// configured default otherwise. The result is validated again.
func (c *Client) resolveNamespace(explicit string) (string, error) {
	ns := explicit
	if strings.TrimSpace(ns) == "" {
		ns = c.cfg.Namespace
	}
	return requireNonEmpty(ns, "namespace")
}

func (c *Client) baseURL(service Service) (string, error) {
	switch service {
	case ServiceQuery:
		return c.cfg.QueryURL, nil
	case ServiceIngest:
		return c.cfg.IngestURL, nil
	}
	return "", newValidationError("service must be one of query, ingest (got %q)", service)
}

// do performs one HTTP exchange with the given service. The returned value
// is the decoded JSON body, the raw text for non-JSON responses, or nil for
// 204 and undecodable bodies. Non-2xx statuses come back as *Error.
//
// The configured timeout is armed for this call only and released on every
// return path.
func (c *Client) do(ctx context.Context, service Service, method, path string, body any) (any, error) {
	base, err := c.baseURL(service)
	if err != nil {
		return nil, err
	}
	endpoint := base + path

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindClient, Message: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &Error{Kind: KindClient, Message: "failed to build request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	req.Header.Set("Accept", contentTypeJSON)
	requestID := uuid.NewString()
	req.Header.Set(headerRequestID, requestID)
	if c.tracer != nil {
		c.tracer.InjectHeaders(ctx, req.Header)
	}

	fields := map[string]interface{}{
		"method":     method,
		"url":        endpoint,
		"request_id": requestID,
	}
	c.logDebug("tidepool request", fields)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err, fields)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, err, fields)
	}

	isJSON := isJSONContentType(resp.Header.Get("Content-Type"))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload any = string(raw)
		if isJSON {
			if decoded, ok := decodeJSON(raw); ok {
				payload = decoded
			}
		}
		statusText := http.StatusText(resp.StatusCode)
		if statusText == "" {
			statusText = resp.Status
		}
		mapped := MapError(resp.StatusCode, errorMessage(payload, statusText), payload)
		fields["status"] = resp.StatusCode
		c.logWarn("tidepool request failed", mapped, fields)
		return nil, mapped
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if !isJSON {
		return string(raw), nil
	}
	decoded, _ := decodeJSON(raw)
	return decoded, nil
}

// transportError converts a failed exchange. A deadline, whether ours or the
// caller's, becomes a timeout error carrying StatusTimeout.
func (c *Client) transportError(ctx context.Context, err error, fields map[string]interface{}) error {
	var out *Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		out = &Error{
			Kind:       KindClient,
			Message:    fmt.Sprintf("request timed out after %s", c.cfg.Timeout),
			StatusCode: StatusTimeout,
			Err:        fmt.Errorf("%w: %w", ErrTimeout, err),
		}
	} else {
		out = &Error{Kind: KindClient, Message: "request failed", Err: err}
	}
	c.logError("tidepool transport failure", out, fields)
	return out
}

func isJSONContentType(header string) bool {
	if header == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mediaType == contentTypeJSON || strings.HasSuffix(mediaType, "+json")
}

func decodeJSON(raw []byte) (any, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *Client) logDebug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, nil, fields)
	}
}

func (c *Client) logWarn(msg string, err error, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, err, fields)
	}
}

func (c *Client) logError(msg string, err error, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Error(msg, err, fields)
	}
}
