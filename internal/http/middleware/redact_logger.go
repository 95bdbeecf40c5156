package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// RedactOptions configures RedactingLogger.
//
// MaskHeaders lists extra header names whose values are replaced entirely
// with "[REDACTED]", on top of Authorization, Cookie and Set-Cookie.
// Matching is case-insensitive.
type RedactOptions struct {
	MaskHeaders []string
}

// Patterns run in this order: ids before phone numbers, since the loose
// phone pattern would otherwise eat digit groups of a UUID.
var (
	redactUUID  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	redactEmail = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	redactPhone = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

type scrubber struct {
	mask map[string]struct{}
}

func newScrubber(extra []string) *scrubber {
	s := &scrubber{mask: map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}}
	for _, h := range extra {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			s.mask[h] = struct{}{}
		}
	}
	return s
}

func (s *scrubber) text(v string) string {
	if v == "" {
		return v
	}
	v = redactUUID.ReplaceAllString(v, "[REDACTED:id]")
	v = redactEmail.ReplaceAllString(v, "[REDACTED:email]")
	return redactPhone.ReplaceAllString(v, "[REDACTED:phone]")
}

func (s *scrubber) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := s.mask[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = s.text(strings.Join(vv, ", "))
	}
	return out
}

// RedactingLogger is Logger with PII scrubbing: request headers and the
// query string are logged with emails, phone numbers and UUIDs replaced, and
// credential headers masked. Bodies are never logged.
//
// Goal and area ids are UUIDs, so they show up as [REDACTED:id] in the query
// field; the route template in "path" still identifies the endpoint.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	return accessLog(newScrubber(opts.MaskHeaders))
}
