package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lifetrack-backend/internal/apperr"
	"github.com/tbourn/go-lifetrack-backend/internal/validation"
)

// Gatekeeper messages, one per facet. The machine code is VALIDATION_ERROR
// for all three.
const (
	MsgBodyInvalid   = "Request validation failed"
	MsgQueryInvalid  = "Query parameter validation failed"
	MsgParamsInvalid = "Path parameter validation failed"
)

const (
	ctxKeyValidBody   = "valid.body"
	ctxKeyValidQuery  = "valid.query"
	ctxKeyValidParams = "valid.params"
)

// ValidateRequest checks the body, query and path parameters of a request
// against the route's schemas, in that order.
//
// Within one facet every violation is collected; across facets the first
// failing one stops the request: it is reported as a ValidationError whose
// details.field_errors is that facet's violation list, and later facets are
// not evaluated.
//
// On success each validated facet is replaced by its sanitized form:
//   - the body is re-encoded into c.Request.Body (handlers can ShouldBindJSON)
//   - the query is re-encoded into c.Request.URL.RawQuery
//   - path parameters are rewritten in c.Params
//
// The sanitized maps are also available through ValidatedBody,
// ValidatedQuery and ValidatedParams.
func ValidateRequest(req validation.Request) gin.HandlerFunc {
	return func(c *gin.Context) {
		if req.Body != nil {
			if err := validateBody(c, req.Body); err != nil {
				validationRejects.WithLabelValues("body").Inc()
				Abort(c, err)
				return
			}
		}
		if req.Query != nil {
			if err := validateQuery(c, req.Query); err != nil {
				validationRejects.WithLabelValues("query").Inc()
				Abort(c, err)
				return
			}
		}
		if req.Params != nil {
			if err := validateParams(c, req.Params); err != nil {
				validationRejects.WithLabelValues("params").Inc()
				Abort(c, err)
				return
			}
		}
		c.Next()
	}
}

// ValidatedBody returns the sanitized body, or nil when the route has no
// body schema.
func ValidatedBody(c *gin.Context) map[string]any { return validated(c, ctxKeyValidBody) }

// ValidatedQuery returns the sanitized query parameters.
func ValidatedQuery(c *gin.Context) map[string]any { return validated(c, ctxKeyValidQuery) }

// ValidatedParams returns the sanitized path parameters.
func ValidatedParams(c *gin.Context) map[string]any { return validated(c, ctxKeyValidParams) }

func validated(c *gin.Context, key string) map[string]any {
	v, ok := c.Get(key)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

func facetError(msg string, errs validation.Violations) error {
	return apperr.Validation(msg, map[string]any{"field_errors": errs})
}

func validateBody(c *gin.Context, schema *validation.ObjectSchema) error {
	raw, err := readBody(c.Request)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return facetError(MsgBodyInvalid, validation.Violations{{
				Field:   "body",
				Message: fmt.Sprintf("body must not exceed %d bytes", tooBig.Limit),
				Type:    "body.size",
			}})
		}
		return err
	}

	var in any = map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if in, err = decodeJSON(raw); err != nil {
			return facetError(MsgBodyInvalid, validation.Violations{{
				Field:   "body",
				Message: "body must be valid JSON",
				Type:    "json.parse",
			}})
		}
	}

	out, errs := validation.Validate(schema, in)
	if len(errs) > 0 {
		return facetError(MsgBodyInvalid, errs)
	}

	clean, err := json.Marshal(out)
	if err != nil {
		return err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(clean))
	c.Request.ContentLength = int64(len(clean))
	c.Set(ctxKeyValidBody, out)
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// decodeJSON decodes exactly one JSON value, keeping numbers as json.Number.
func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

func validateQuery(c *gin.Context, schema *validation.ObjectSchema) error {
	in := map[string]any{}
	for k, vs := range c.Request.URL.Query() {
		if len(vs) == 1 {
			in[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		in[k] = list
	}

	v, errs := validation.Validate(schema, in)
	if len(errs) > 0 {
		return facetError(MsgQueryInvalid, errs)
	}
	out := v.(map[string]any)

	q := url.Values{}
	for k, val := range out {
		if list, ok := val.([]any); ok {
			for _, item := range list {
				q.Add(k, formatValue(item))
			}
			continue
		}
		if val != nil {
			q.Set(k, formatValue(val))
		}
	}
	c.Request.URL.RawQuery = q.Encode()
	c.Set(ctxKeyValidQuery, out)
	return nil
}

func validateParams(c *gin.Context, schema *validation.ObjectSchema) error {
	in := make(map[string]any, len(c.Params))
	for _, p := range c.Params {
		in[p.Key] = p.Value
	}

	v, errs := validation.Validate(schema, in)
	if len(errs) > 0 {
		return facetError(MsgParamsInvalid, errs)
	}
	out := v.(map[string]any)

	params := make(gin.Params, 0, len(out))
	for _, p := range c.Params {
		if val, ok := out[p.Key]; ok && val != nil {
			params = append(params, gin.Param{Key: p.Key, Value: formatValue(val)})
		}
	}
	c.Params = params
	c.Set(ctxKeyValidParams, out)
	return nil
}

// formatValue renders a sanitized scalar back into its query/path form.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}
