package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersAndUnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/goals/:id", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.GET("/empty", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/goals/:id", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404"))

	for _, p := range []string{"/goals/a", "/goals/b", "/nowhere/1", "/empty"} {
		get(r, p)
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/goals/:id", "200")); got != baseOK+2 {
		t.Fatalf("route counter = %v; want %v", got, baseOK+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404")); got != base404+1 {
		t.Fatalf("unmatched counter = %v; want %v", got, base404+1)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("inflight = %v; want 0", got)
	}
}

func TestValidateRequest_CountsRejectsByFacet(t *testing.T) {
	body := validationRejects.WithLabelValues("body")
	query := validationRejects.WithLabelValues("query")
	baseBody, baseQuery := testutil.ToFloat64(body), testutil.ToFloat64(query)

	var s seen
	r := gateRouter(goalRequest(), &s)
	send(r, "/goals/"+goalID, `{"title":"ab"}`)
	send(r, "/goals/"+goalID+"?page=0", `{"title":"Run"}`)
	send(r, "/goals/"+goalID, `{"title":"Run"}`)

	if got := testutil.ToFloat64(body); got != baseBody+1 {
		t.Fatalf("body rejects = %v; want %v", got, baseBody+1)
	}
	if got := testutil.ToFloat64(query); got != baseQuery+1 {
		t.Fatalf("query rejects = %v; want %v", got, baseQuery+1)
	}
}
