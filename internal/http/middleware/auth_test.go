package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/levelup-backend/internal/platform/ctxutil"
	"github.com/yungbote/levelup-backend/internal/platform/logger"
	"github.com/yungbote/levelup-backend/internal/services"
)

type stubAuth struct {
	services.AuthService
	tokens map[string]*ctxutil.RequestData
	seen   []string
}

func (s *stubAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	s.seen = append(s.seen, token)
	rd, ok := s.tokens[token]
	if !ok {
		return ctx, errors.New("bad token")
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func newAuthRouter(auth *stubAuth, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), auth)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{am.RequireAuth()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.String(http.StatusOK, rd.UserID.String())
	})
	r.GET("/p", handlers...)
	return r
}

func do(r http.Handler, target, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	student := &ctxutil.RequestData{UserID: uuid.New(), SessionID: uuid.New(), Role: "student"}
	auth := &stubAuth{tokens: map[string]*ctxutil.RequestData{
		"good":  student,
		"empty": {},
	}}
	r := newAuthRouter(auth)

	if rec := do(r, "/p", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", rec.Code)
	}
	if rec := do(r, "/p", "nope"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", rec.Code)
	}
	if rec := do(r, "/p", "empty"); rec.Code != http.StatusForbidden {
		t.Fatalf("token without user: %d", rec.Code)
	}
	rec := do(r, "/p", "good")
	if rec.Code != http.StatusOK || rec.Body.String() != student.UserID.String() {
		t.Fatalf("bearer: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(r, "/p?token=good", ""); rec.Code != http.StatusOK {
		t.Fatalf("query token: %d", rec.Code)
	}
}

func TestRequireAuthPrefersHeaderOverQuery(t *testing.T) {
	auth := &stubAuth{tokens: map[string]*ctxutil.RequestData{
		"header": {UserID: uuid.New(), Role: "student"},
	}}
	r := newAuthRouter(auth)
	if rec := do(r, "/p?token=query", "header"); rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if len(auth.seen) != 1 || auth.seen[0] != "header" {
		t.Fatalf("validated tokens: %v", auth.seen)
	}
}

func TestRequireRole(t *testing.T) {
	auth := &stubAuth{tokens: map[string]*ctxutil.RequestData{
		"student": {UserID: uuid.New(), Role: "student"},
		"teacher": {UserID: uuid.New(), Role: "teacher"},
	}}
	r := newAuthRouter(auth, RequireRole("teacher"))
	if rec := do(r, "/p", "student"); rec.Code != http.StatusForbidden {
		t.Fatalf("student on teacher route: %d", rec.Code)
	}
	if rec := do(r, "/p", "teacher"); rec.Code != http.StatusOK {
		t.Fatalf("teacher: %d", rec.Code)
	}
}

func TestAttachTraceContextEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var got *ctxutil.TraceData
	r.GET("/x", func(c *gin.Context) {
		got = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Header().Get(headerRequestID) != "req-1" {
		t.Fatalf("request id header: %q", rec.Header().Get(headerRequestID))
	}
	if got == nil || got.RequestID != "req-1" || got.TraceID == "" {
		t.Fatalf("trace data: %+v", got)
	}
	if rec.Header().Get(headerTraceID) != got.TraceID {
		t.Fatalf("trace id header mismatch")
	}
}
