package handler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sarcasm-review/internal/auth"
	"sarcasm-review/internal/classifier"
	"sarcasm-review/internal/config"
	"sarcasm-review/internal/models"
	"sarcasm-review/internal/repository"
	"sarcasm-review/internal/service"
)

const history = `{"user_data": {"messages": [
	{"sender": "AI", "text": "I love this! 💀", "sent_at": "2024-03-01T10:00:00"},
	{"sender": "User", "text": "hi", "sent_at": "2024-03-01T10:01:00"},
	{"sender": "AI", "text": "sure, whatever 🙄", "sent_at": "2024-03-01T10:02:00"},
	{"sender": "AI", "text": "hello world", "sent_at": "2024-03-01T10:03:00"}
]}}`

func newTestRouter(t *testing.T, withRepo bool) *gin.Engine {
	t.Helper()
	return newRouter(t, withRepo, nil)
}

func newRouter(t *testing.T, withRepo bool, authenticator *auth.Authenticator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	input := filepath.Join(dir, "history.json")
	require.NoError(t, os.WriteFile(input, []byte(history), 0o644))

	cfg, err := config.LoadConfig(filepath.Join(dir, "absent.yml"))
	require.NoError(t, err)
	cfg.Input.Path = input
	cfg.Output.Dir = filepath.Join(dir, "out")

	var repo repository.ReviewRepository
	if withRepo {
		db, err := repository.Open(repository.TypeSQLite, ":memory:", zap.NewNop())
		require.NoError(t, err)
		repo = repository.NewReviewRepository(db, zap.NewNop())
		t.Cleanup(func() { repo.Close() })
	}

	reviewer := service.NewReviewer(cfg, classifier.MustDefault(), repo, zap.NewNop())
	router := gin.New()
	NewHandler(reviewer, authenticator, zap.NewNop()).RegisterRoutes(router)
	return router
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	return doAuth(router, method, path, body, "")
}

func doAuth(router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" && strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t, false)
	w := do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestClassify(t *testing.T) {
	router := newTestRouter(t, false)

	tests := []struct {
		name   string
		body   string
		strict bool
		tone   bool
		emoji  []string
	}{
		{"strict mismatch", `{"text": "I love this! 💀"}`, true, false, []string{"💀"}},
		{"tone contradiction", `{"text": "sure, whatever 🙄"}`, false, true, []string{"🙄"}},
		{"nothing", `{"text": "hello world"}`, false, false, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/v1/classify", tt.body)
			require.Equal(t, http.StatusOK, w.Code)

			var resp models.ClassifyResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.strict, resp.StrictMismatch)
			assert.Equal(t, tt.tone, resp.ToneContradiction)
			assert.Equal(t, tt.emoji, resp.Emoji)
			assert.Empty(t, resp.DetectionType)
		})
	}
}

func TestClassify_BadRequest(t *testing.T) {
	router := newTestRouter(t, false)
	w := do(router, http.MethodPost, "/api/v1/classify", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunWorkflow(t *testing.T) {
	router := newTestRouter(t, true)

	w := do(router, http.MethodPost, "/api/v1/runs", `{"profile": "dual-layer"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var run models.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.ExportedCount)

	w = do(router, http.MethodGet, "/api/v1/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), run.ID)

	w = do(router, http.MethodGet, "/api/v1/runs/"+run.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/v1/runs/"+run.ID+"/records", "")
	require.Equal(t, http.StatusOK, w.Code)
	var recs struct {
		Records []models.ReviewRecord `json:"records"`
		Total   int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	assert.Equal(t, 2, recs.Total)

	w = do(router, http.MethodGet, "/api/v1/runs/"+run.ID+"/export/json", "")
	require.Equal(t, http.StatusOK, w.Code)
	var exported []models.ReviewRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exported))
	assert.Len(t, exported, 2)

	w = do(router, http.MethodGet, "/api/v1/runs/"+run.ID+"/export/csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "text_readable", rows[0][0])

	// Mark the first row as real sarcasm and send it back.
	rows[1][6] = "True"
	var reviewed bytes.Buffer
	require.NoError(t, csv.NewWriter(&reviewed).WriteAll(rows))
	w = do(router, http.MethodPost, "/api/v1/runs/"+run.ID+"/verdicts", reviewed.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"imported":1`)

	w = do(router, http.MethodGet, "/api/v1/runs/"+run.ID+"/verdicts", "")
	require.Equal(t, http.StatusOK, w.Code)
	var verdicts struct {
		Verdicts []models.Verdict `json:"verdicts"`
		Total    int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verdicts))
	require.Equal(t, 1, verdicts.Total)
	require.NotNil(t, verdicts.Verdicts[0].IsRealSarcasm)
	assert.True(t, *verdicts.Verdicts[0].IsRealSarcasm)
	assert.Empty(t, verdicts.Verdicts[0].Reviewer)

	w = do(router, http.MethodGet, "/api/v1/stats?run_id="+run.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Tiers []models.TierStats `json:"tiers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.Len(t, stats.Tiers, 1)
	assert.Equal(t, 1, stats.Tiers[0].Confirmed)
	assert.InDelta(t, 1.0, stats.Tiers[0].Precision, 1e-9)
}

func TestImportVerdicts_Mismatch(t *testing.T) {
	router := newTestRouter(t, true)

	w := do(router, http.MethodPost, "/api/v1/runs", `{"profile": "dual-layer"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var run models.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))

	w = do(router, http.MethodPost, "/api/v1/runs/"+run.ID+"/verdicts", "text_readable,is_real_sarcasm\nx,True\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRun_UnknownProfile(t *testing.T) {
	router := newTestRouter(t, true)
	w := do(router, http.MethodPost, "/api/v1/runs", `{"profile": "bogus"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRun_NotFound(t *testing.T) {
	router := newTestRouter(t, true)

	for _, path := range []string{
		"/api/v1/runs/missing",
		"/api/v1/runs/missing/records",
		"/api/v1/runs/missing/export/csv",
	} {
		w := do(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestListRuns_InvalidLimit(t *testing.T) {
	router := newTestRouter(t, true)
	w := do(router, http.MethodGet, "/api/v1/runs?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWithoutRepository(t *testing.T) {
	router := newTestRouter(t, false)

	w := do(router, http.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Runs still execute and write their CSV.
	w = do(router, http.MethodPost, "/api/v1/runs", `{"profile": "emoji-samples"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	a, err := auth.New("test-secret", map[string]string{"alice": hash}, time.Hour, zap.NewNop())
	require.NoError(t, err)
	return newRouter(t, true, a)
}

func login(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := do(router, http.MethodPost, "/api/v1/auth/login", `{"name": "alice", "password": "s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
	return resp.Token
}

func TestLogin(t *testing.T) {
	router := newAuthRouter(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"wrong password", `{"name": "alice", "password": "nope"}`, http.StatusUnauthorized},
		{"unknown reviewer", `{"name": "bob", "password": "s3cret"}`, http.StatusUnauthorized},
		{"missing fields", `{"name": "alice"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/v1/auth/login", tt.body)
			assert.Equal(t, tt.code, w.Code)
		})
	}

	login(t, router)
}

func TestLogin_DisabledWithoutAuthenticator(t *testing.T) {
	router := newTestRouter(t, true)
	w := do(router, http.MethodPost, "/api/v1/auth/login", `{"name": "alice", "password": "s3cret"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuth_WriteRoutesRequireToken(t *testing.T) {
	router := newAuthRouter(t)

	w := do(router, http.MethodPost, "/api/v1/runs", `{"profile": "dual-layer"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPost, "/api/v1/runs/x/verdicts", "text_readable\n")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Read routes stay open.
	w = do(router, http.MethodGet, "/api/v1/runs", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(router, http.MethodPost, "/api/v1/classify", `{"text": "hi"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_VerdictsCarryReviewer(t *testing.T) {
	router := newAuthRouter(t)
	token := login(t, router)

	w := doAuth(router, http.MethodPost, "/api/v1/runs", `{"profile": "dual-layer"}`, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var run models.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))

	w = do(router, http.MethodGet, "/api/v1/runs/"+run.ID+"/export/csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	rows[2][6] = "False"
	var reviewed bytes.Buffer
	require.NoError(t, csv.NewWriter(&reviewed).WriteAll(rows))

	w = doAuth(router, http.MethodPost, "/api/v1/runs/"+run.ID+"/verdicts", reviewed.String(), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(router, http.MethodGet, "/api/v1/runs/"+run.ID+"/verdicts", "")
	require.Equal(t, http.StatusOK, w.Code)
	var verdicts struct {
		Verdicts []models.Verdict `json:"verdicts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verdicts))
	require.Len(t, verdicts.Verdicts, 1)
	assert.Equal(t, "alice", verdicts.Verdicts[0].Reviewer)
}
