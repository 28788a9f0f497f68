package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/achirkof/newscatcher/app/config"
	"github.com/achirkof/newscatcher/app/database"
)

type stubSourceRepo struct {
	source  *database.Source
	enabled map[string]bool
}

func (s *stubSourceRepo) GetSource(sourceName string) (*database.Source, error) {
	return s.source, nil
}
func (s *stubSourceRepo) GetSourceByID(sourceID string) (*database.Source, error) { return nil, nil }
func (s *stubSourceRepo) GetAllSources() ([]database.Source, error)               { return nil, nil }
func (s *stubSourceRepo) GetSourcesDueForCrawl() ([]database.Source, error)       { return nil, nil }
func (s *stubSourceRepo) GetSourceCount() (int, error)                            { return 1, nil }
func (s *stubSourceRepo) GetEnabledSourceCount() (int, error)                     { return 1, nil }
func (s *stubSourceRepo) UpsertSource(sourceName, seedURL, host string, enabled bool) (string, error) {
	return "source-1", nil
}
func (s *stubSourceRepo) RegisterSubdomain(parentSourceID, sourceName, seedURL, host string) (string, error) {
	return "sub-1", nil
}
func (s *stubSourceRepo) UpdateRevalidation(sourceID, etag, lastModified string) error { return nil }
func (s *stubSourceRepo) UpdateNextCrawl(sourceID string, nextCrawl time.Time) error   { return nil }
func (s *stubSourceRepo) SetSourceEnabled(sourceID string, enabled bool) error {
	if s.enabled == nil {
		s.enabled = make(map[string]bool)
	}
	s.enabled[sourceID] = enabled
	return nil
}

type stubArticleRepo struct {
	articles    []database.Article
	seen        []string
	deactivated []string
}

func (s *stubArticleRepo) GetKnownContent() (*database.KnownContent, error) {
	return &database.KnownContent{}, nil
}
func (s *stubArticleRepo) GetArticles(limit, offset int, onlyUnseen bool) ([]database.Article, error) {
	return s.articles, nil
}
func (s *stubArticleRepo) GetArticleCount() (int, error)               { return len(s.articles), nil }
func (s *stubArticleRepo) GetUnseenCount() (int, error)                { return len(s.articles), nil }
func (s *stubArticleRepo) GetStoredTexts() ([]database.StoredText, error) { return nil, nil }
func (s *stubArticleRepo) UpsertArticle(sourceID string, article database.Article) (string, error) {
	return "article-1", nil
}
func (s *stubArticleRepo) MarkSeen(articleID string) error {
	s.seen = append(s.seen, articleID)
	return nil
}
func (s *stubArticleRepo) UpdateScores(articleID string, scores map[string]float64) error { return nil }
func (s *stubArticleRepo) DeactivateArticle(articleID string) error {
	s.deactivated = append(s.deactivated, articleID)
	return nil
}

type stubCriterionRepo struct {
	created   []string
	criterion *database.Criterion
}

func (s *stubCriterionRepo) GetCriteria(activeOnly bool) ([]database.Criterion, error) {
	return nil, nil
}
func (s *stubCriterionRepo) GetCriterion(criterionID string) (*database.Criterion, error) {
	return s.criterion, nil
}
func (s *stubCriterionRepo) CreateCriterion(name string, keywords []string, prompt string) (string, error) {
	s.created = append(s.created, name)
	return "criterion-1", nil
}
func (s *stubCriterionRepo) UpdateCriterion(criterionID, name string, keywords []string, prompt string, active bool) error {
	return nil
}
func (s *stubCriterionRepo) DeleteCriterion(criterionID string) error { return nil }

type stubJobRepo struct{}

func (s *stubJobRepo) CreateJob(sourceID string) (string, error) { return "job-1", nil }
func (s *stubJobRepo) StartJob(jobID string) error               { return nil }
func (s *stubJobRepo) CompleteJob(jobID string, pagesFetched, articlesFound, subdomainsFound int) error {
	return nil
}
func (s *stubJobRepo) FailJob(jobID string, errorMessage string) error { return nil }
func (s *stubJobRepo) GetRecentJobs(limit int) ([]database.CrawlJob, error) {
	return nil, nil
}
func (s *stubJobRepo) GetRunningJobCount() (int, error) { return 0, nil }

type stubScheduler struct {
	crawls   []string
	rescores int
}

func (s *stubScheduler) EnqueueCrawl(sourceName string) error {
	s.crawls = append(s.crawls, sourceName)
	return nil
}

func (s *stubScheduler) EnqueueRescore() error {
	s.rescores++
	return nil
}

func testConfigCache(t *testing.T) *config.SourceConfigCache {
	t.Helper()
	dir := t.TempDir()
	content := "url: \"https://example.com\"\nsettings:\n  enabled: true\n"
	if err := os.WriteFile(filepath.Join(dir, "example.yml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cache := config.NewSourceConfigCache(dir, 0, 0)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}
	return cache
}

func testServer(t *testing.T) (*gin.Engine, *stubScheduler, *stubCriterionRepo) {
	t.Helper()

	scheduler := &stubScheduler{}
	criterionRepo := &stubCriterionRepo{}

	handler := NewHandler(testConfigCache(t), &stubSourceRepo{}, &stubArticleRepo{},
		criterionRepo, &stubJobRepo{}, nil, scheduler)

	return NewServer(handler, "test-key"), scheduler, criterionRepo
}

func TestHealthEndpointNoAuth(t *testing.T) {
	server, _, _ := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["loaded_configurations"] != float64(1) {
		t.Errorf("Expected 1 loaded configuration, got %v", body["loaded_configurations"])
	}
}

func TestAPIRequiresKey(t *testing.T) {
	server, _, _ := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/sources", nil)
	server.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/sources", nil)
	req.Header.Set("X-API-Key", "wrong")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/sources", nil)
	req.Header.Set("X-API-Key", "test-key")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with valid key, got %d", w.Code)
	}
}

func TestAPIBearerAuth(t *testing.T) {
	server, _, _ := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/sources", nil)
	req.Header.Set("Authorization", "Bearer test-key")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer token, got %d", w.Code)
	}
}

func TestAPITriggerCrawl(t *testing.T) {
	server, scheduler, _ := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/sources/example/crawl", nil)
	req.Header.Set("X-API-Key", "test-key")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected 202, got %d", w.Code)
	}
	if len(scheduler.crawls) != 1 || scheduler.crawls[0] != "example" {
		t.Errorf("Expected crawl queued for 'example', got %v", scheduler.crawls)
	}
}

func TestAPITriggerCrawlUnknownSource(t *testing.T) {
	server, scheduler, _ := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/sources/unknown/crawl", nil)
	req.Header.Set("X-API-Key", "test-key")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown source, got %d", w.Code)
	}
	if len(scheduler.crawls) != 0 {
		t.Errorf("Expected no crawl queued, got %v", scheduler.crawls)
	}
}

func TestAPICreateCriterion(t *testing.T) {
	server, scheduler, criterionRepo := testServer(t)

	body := `{"name": "ML", "keywords": ["machine learning"]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/criteria", strings.NewReader(body))
	req.Header.Set("X-API-Key", "test-key")
	req.Header.Set("Content-Type", "application/json")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d", w.Code)
	}
	if len(criterionRepo.created) != 1 || criterionRepo.created[0] != "ML" {
		t.Errorf("Expected criterion 'ML' created, got %v", criterionRepo.created)
	}
	if scheduler.rescores != 1 {
		t.Errorf("Expected rescore queued after criterion change, got %d", scheduler.rescores)
	}
}

func TestAPICreateCriterionValidation(t *testing.T) {
	server, _, criterionRepo := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing_name", `{"keywords": ["go"]}`},
		{"empty_definition", `{"name": "Empty"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/criteria", strings.NewReader(tt.body))
			req.Header.Set("X-API-Key", "test-key")
			req.Header.Set("Content-Type", "application/json")
			server.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
		})
	}

	if len(criterionRepo.created) != 0 {
		t.Errorf("Expected no criteria created, got %v", criterionRepo.created)
	}
}

func TestAPIMarkArticleSeen(t *testing.T) {
	scheduler := &stubScheduler{}
	articleRepo := &stubArticleRepo{}

	handler := NewHandler(testConfigCache(t), &stubSourceRepo{}, articleRepo,
		&stubCriterionRepo{}, &stubJobRepo{}, nil, scheduler)
	server := NewServer(handler, "test-key")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/articles/article-42/seen", nil)
	req.Header.Set("X-API-Key", "test-key")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if len(articleRepo.seen) != 1 || articleRepo.seen[0] != "article-42" {
		t.Errorf("Expected article-42 marked seen, got %v", articleRepo.seen)
	}
}

func TestAPISetSourceEnabled(t *testing.T) {
	sourceRepo := &stubSourceRepo{source: &database.Source{ID: "source-1", Name: "example"}}

	handler := NewHandler(testConfigCache(t), sourceRepo, &stubArticleRepo{},
		&stubCriterionRepo{}, &stubJobRepo{}, nil, &stubScheduler{})
	server := NewServer(handler, "test-key")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/api/sources/example/enabled", strings.NewReader(`{"enabled": false}`))
	req.Header.Set("X-API-Key", "test-key")
	req.Header.Set("Content-Type", "application/json")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if enabled, ok := sourceRepo.enabled["source-1"]; !ok || enabled {
		t.Errorf("Expected source-1 disabled, got %v", sourceRepo.enabled)
	}
}

func TestAPISetSourceEnabledUnknownSource(t *testing.T) {
	server, _, _ := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/api/sources/unknown/enabled", strings.NewReader(`{"enabled": true}`))
	req.Header.Set("X-API-Key", "test-key")
	req.Header.Set("Content-Type", "application/json")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown source, got %d", w.Code)
	}
}

func TestAPIDeactivateArticle(t *testing.T) {
	articleRepo := &stubArticleRepo{}

	handler := NewHandler(testConfigCache(t), &stubSourceRepo{}, articleRepo,
		&stubCriterionRepo{}, &stubJobRepo{}, nil, &stubScheduler{})
	server := NewServer(handler, "test-key")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/api/articles/article-7", nil)
	req.Header.Set("X-API-Key", "test-key")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if len(articleRepo.deactivated) != 1 || articleRepo.deactivated[0] != "article-7" {
		t.Errorf("Expected article-7 deactivated, got %v", articleRepo.deactivated)
	}
}

func TestAPIGetCriterion(t *testing.T) {
	criterionRepo := &stubCriterionRepo{criterion: &database.Criterion{ID: "criterion-1", Name: "ML"}}

	handler := NewHandler(testConfigCache(t), &stubSourceRepo{}, &stubArticleRepo{},
		criterionRepo, &stubJobRepo{}, nil, &stubScheduler{})
	server := NewServer(handler, "test-key")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/criteria/criterion-1", nil)
	req.Header.Set("X-API-Key", "test-key")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	var body database.Criterion
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Name != "ML" {
		t.Errorf("Expected criterion ML, got %q", body.Name)
	}

	criterionRepo.criterion = nil
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/criteria/criterion-1", nil)
	req.Header.Set("X-API-Key", "test-key")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing criterion, got %d", w.Code)
	}
}
