package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/middleware"
	"github.com/cgbookstore/bookrec-backend/internal/recommend"
	"github.com/cgbookstore/bookrec-backend/internal/services"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

func testLogger() *logger.Logger {
	log, err := logger.New("dev")
	if err != nil {
		panic(err)
	}
	return log
}

func testUUID(b byte) uuid.UUID {
	var id uuid.UUID
	for i := range id {
		id[i] = b
	}
	return id
}

type stubRecService struct {
	recommendErr error
	similarErr   error
	clicked      bool
	results      []types.ScoredBook

	gotUserID    uuid.UUID
	gotAlgorithm string
	gotLimit     int
}

func (s *stubRecService) Recommend(ctx context.Context, userID uuid.UUID, algorithm string, n int) ([]types.ScoredBook, error) {
	s.gotUserID = userID
	s.gotAlgorithm = algorithm
	s.gotLimit = n
	if s.recommendErr != nil {
		return nil, s.recommendErr
	}
	return s.results, nil
}

func (s *stubRecService) SimilarBooks(ctx context.Context, bookID uuid.UUID, n int) ([]types.ScoredBook, error) {
	s.gotLimit = n
	if s.similarErr != nil {
		return nil, s.similarErr
	}
	return s.results, nil
}

func (s *stubRecService) RecordClick(ctx context.Context, userID uuid.UUID, bookID uuid.UUID) (bool, error) {
	s.gotUserID = userID
	return s.clicked, nil
}

func (s *stubRecService) ExternalSuggestions(ctx context.Context, userID uuid.UUID, n int) []services.Suggestion {
	return nil
}

func newTestRouter(svc services.RecommendationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := testLogger()
	handler := NewRecommendationHandler(log, svc)
	userMW := middleware.NewUserMiddleware(log)

	router := gin.New()
	api := router.Group("/api")
	api.GET("/books/:id/similar", handler.GetSimilarBooks)
	user := api.Group("/")
	user.Use(userMW.RequireUser())
	user.GET("/recommendations", handler.GetRecommendations)
	user.POST("/recommendations/click", handler.RecordClick)
	return router
}

func doRequest(router *gin.Engine, method, path, userID, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetRecommendationsDefaults(t *testing.T) {
	svc := &stubRecService{results: []types.ScoredBook{
		{Book: &types.Book{ID: testUUID(0x01), Title: "Book A"}, Score: 1.0, Reason: "test"},
	}}
	router := newTestRouter(svc)
	user := testUUID(0xAA)

	w := doRequest(router, http.MethodGet, "/api/recommendations", user.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if svc.gotUserID != user {
		t.Fatalf("service saw user %s", svc.gotUserID)
	}
	if svc.gotAlgorithm != types.AlgorithmHybrid {
		t.Fatalf("default algorithm = %q, want hybrid", svc.gotAlgorithm)
	}
	if svc.gotLimit != services.DefaultRecommendationLimit {
		t.Fatalf("default limit = %d", svc.gotLimit)
	}

	var payload recommendationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Results) != 1 || payload.Results[0].Book.Title != "Book A" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestGetRecommendationsMissingUser(t *testing.T) {
	router := newTestRouter(&stubRecService{})
	w := doRequest(router, http.MethodGet, "/api/recommendations", "", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing user header should be 400, got %d", w.Code)
	}
}

func TestGetRecommendationsInvalidUser(t *testing.T) {
	router := newTestRouter(&stubRecService{})
	w := doRequest(router, http.MethodGet, "/api/recommendations", "not-a-uuid", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed user header should be 400, got %d", w.Code)
	}
}

func TestGetRecommendationsErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{recommend.ErrInvalidAlgorithm, http.StatusBadRequest},
		{recommend.ErrInvalidLimit, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
	}
	user := testUUID(0xAA).String()
	for _, tc := range cases {
		router := newTestRouter(&stubRecService{recommendErr: tc.err})
		w := doRequest(router, http.MethodGet, "/api/recommendations?algorithm=hybrid", user, "")
		if w.Code != tc.status {
			t.Fatalf("error %v mapped to %d, want %d", tc.err, w.Code, tc.status)
		}
	}
}

func TestGetRecommendationsNonNumericLimit(t *testing.T) {
	router := newTestRouter(&stubRecService{})
	w := doRequest(router, http.MethodGet, "/api/recommendations?limit=abc", testUUID(0xAA).String(), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric limit should be 400, got %d", w.Code)
	}
}

func TestGetSimilarBooks(t *testing.T) {
	svc := &stubRecService{results: []types.ScoredBook{
		{Book: &types.Book{ID: testUUID(0x02), Title: "Book B"}, Score: 0.8, Reason: "Similar to Book A"},
	}}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodGet, "/api/books/"+testUUID(0x01).String()+"/similar?limit=5", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if svc.gotLimit != 5 {
		t.Fatalf("limit = %d", svc.gotLimit)
	}
}

func TestGetSimilarBooksUnknownBook(t *testing.T) {
	router := newTestRouter(&stubRecService{similarErr: recommend.ErrUnknownBook})
	w := doRequest(router, http.MethodGet, "/api/books/"+testUUID(0x7F).String()+"/similar", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown book should be 404, got %d", w.Code)
	}
}

func TestGetSimilarBooksInvalidID(t *testing.T) {
	router := newTestRouter(&stubRecService{})
	w := doRequest(router, http.MethodGet, "/api/books/not-a-uuid/similar", "", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed book id should be 400, got %d", w.Code)
	}
}

func TestRecordClick(t *testing.T) {
	svc := &stubRecService{clicked: true}
	router := newTestRouter(svc)
	user := testUUID(0xAA)

	body := `{"book_id":"` + testUUID(0x01).String() + `"}`
	w := doRequest(router, http.MethodPost, "/api/recommendations/click", user.String(), body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if svc.gotUserID != user {
		t.Fatalf("service saw user %s", svc.gotUserID)
	}

	var payload map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload["clicked"] {
		t.Fatal("expected clicked=true")
	}
}

func TestRecordClickInvalidBody(t *testing.T) {
	router := newTestRouter(&stubRecService{})
	w := doRequest(router, http.MethodPost, "/api/recommendations/click", testUUID(0xAA).String(), `{"book_id":"nope"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid body should be 400, got %d", w.Code)
	}
}
