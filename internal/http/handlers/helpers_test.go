package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-lifetrack-backend/internal/apperr"
	"github.com/tbourn/go-lifetrack-backend/internal/http/middleware"
	"github.com/tbourn/go-lifetrack-backend/internal/repo"
	"github.com/tbourn/go-lifetrack-backend/internal/services"
)

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newServer wires real services over a fresh database, the way the router
// does, minus transport extras.
func newServer(t *testing.T) *gin.Engine {
	return newServerWith(t, func(p *services.ProgressService) Guards {
		return Guards{Idempotency: middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, p.Seen)}
	})
}

func newServerWith(t *testing.T, guards func(*services.ProgressService) Guards) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)

	progress := services.NewProgressService(db, time.Hour)
	h := New(
		services.NewAreaService(db, repo.AreaStore{}),
		services.NewGoalService(db),
		progress,
		services.NewDashboardService(db),
	)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler(apperr.Classifier{}), middleware.Authenticate(nil))
	h.Register(r, guards(progress))
	return r
}

// call performs a request as user "u1" unless an X-User-ID pair is passed in
// headers (name, value, name, value...).
func call(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.HeaderUserID, "u1")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// mustCreate posts body to path and returns data.id.
func mustCreate(t *testing.T, r http.Handler, path, body string) string {
	t.Helper()
	w := call(r, http.MethodPost, path, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST %s = %d: %s", path, w.Code, w.Body.String())
	}
	return gjson.Get(w.Body.String(), "data.id").String()
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) string {
	t.Helper()
	body := w.Body.String()
	if w.Code != status {
		t.Fatalf("status=%d want %d: %s", w.Code, status, body)
	}
	if gjson.Get(body, "success").Bool() || gjson.Get(body, "error.code").String() != code {
		t.Fatalf("want error code %s: %s", code, body)
	}
	return body
}
