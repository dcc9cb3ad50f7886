package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	adapthttp "aqiadvisor/internal/adapter/http"
	"aqiadvisor/internal/adapter/memory"
	"aqiadvisor/internal/app"
	"aqiadvisor/internal/domain"
	"aqiadvisor/internal/logging"
)

// ---------------------------------------------------------------------------
// Mocks (function-fields pattern)
// ---------------------------------------------------------------------------

type mockHistoryRepo struct {
	inner    domain.HistoryRepository
	appendFn func(ctx context.Context, userID int64, monthIndex, aqiValue int, createdAt time.Time) (int64, error)
}

func (m *mockHistoryRepo) AppendHistory(ctx context.Context, userID int64, monthIndex, aqiValue int, createdAt time.Time) (int64, error) {
	if m.appendFn != nil {
		return m.appendFn(ctx, userID, monthIndex, aqiValue, createdAt)
	}
	return m.inner.AppendHistory(ctx, userID, monthIndex, aqiValue, createdAt)
}

func (m *mockHistoryRepo) ListRecentHistory(ctx context.Context, userID int64, limit int) ([]domain.HistoryEntry, error) {
	return m.inner.ListRecentHistory(ctx, userID, limit)
}

type mockRenderer struct {
	renderFn func(ctx context.Context, month int) (map[string][]byte, error)
}

func (m *mockRenderer) RenderCharts(ctx context.Context, month int) (map[string][]byte, error) {
	if m.renderFn != nil {
		return m.renderFn(ctx, month)
	}
	return map[string][]byte{domain.ChartHistogram: []byte("png")}, nil
}

type mockDataset struct {
	summary domain.DatasetSummary
	err     error
}

func (m *mockDataset) Summary() (domain.DatasetSummary, error) {
	return m.summary, m.err
}

type mockVerifier struct {
	identifyFn func(ctx context.Context, raw string) (string, error)
}

func (m *mockVerifier) Identify(ctx context.Context, raw string) (string, error) {
	return m.identifyFn(ctx, raw)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type testDeps struct {
	history  *mockHistoryRepo
	renderer *mockRenderer
	dataset  *mockDataset
	verifier adapthttp.IdentityVerifier
}

func newTestServer(t *testing.T, deps testDeps) *httptest.Server {
	t.Helper()
	db := memory.New()
	if deps.history == nil {
		deps.history = &mockHistoryRepo{}
	}
	deps.history.inner = db
	if deps.renderer == nil {
		deps.renderer = &mockRenderer{}
	}
	if deps.dataset == nil {
		deps.dataset = &mockDataset{summary: domain.DatasetSummary{Columns: []string{"Date", "AQI"}, Rows: 365}}
	}

	logger := logging.Discard()
	authSvc := app.NewAuthService(db, logger).WithHashCost(bcrypt.MinCost)
	advSvc := app.NewAdvisoryService(db, deps.history, domain.DefaultAQITable(), app.DefaultHistoryLimit, logger)
	chartsSvc := app.NewChartsService(deps.renderer, deps.dataset, logger)

	srv := adapthttp.New(authSvc, advSvc, chartsSvc, logger)
	if deps.verifier != nil {
		srv.WithIdentityVerifier(deps.verifier)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL+path, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func expectError(t *testing.T, resp *http.Response, status int, msg string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected %d, got %d", status, resp.StatusCode)
	}
	body := decode(t, resp)
	if body["error"] != msg {
		t.Fatalf("expected error %q, got %v", msg, body["error"])
	}
}

func signup(t *testing.T, ts *httptest.Server, username, category string) {
	t.Helper()
	resp := post(t, ts, "/signup", map[string]string{"username": username, "password": "pw", "category": category})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup %s: status %d", username, resp.StatusCode)
	}
	resp.Body.Close()
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, testDeps{})

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := decode(t, resp); body["ok"] != true {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestSignupAndCheckUser(t *testing.T) {
	ts := newTestServer(t, testDeps{})

	resp := post(t, ts, "/check-user", map[string]string{"username": "alice"})
	if body := decode(t, resp); body["exists"] != false {
		t.Fatalf("expected exists=false, got %v", body)
	}

	resp = post(t, ts, "/signup", map[string]string{"username": "alice", "password": "pw", "category": "Old Age"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if body := decode(t, resp); body["message"] != "User created successfully" {
		t.Fatalf("unexpected body %v", body)
	}

	resp = post(t, ts, "/check-user", map[string]string{"username": "alice"})
	if body := decode(t, resp); body["exists"] != true {
		t.Fatalf("expected exists=true, got %v", body)
	}

	resp = post(t, ts, "/signup", map[string]string{"username": "alice", "password": "x", "category": "Normal People"})
	expectError(t, resp, http.StatusBadRequest, "Username already exists")
}

func TestRequiredFields(t *testing.T) {
	ts := newTestServer(t, testDeps{})

	tests := []struct {
		path string
		body any
		msg  string
	}{
		{"/check-user", map[string]string{}, "Username is required"},
		{"/check-user", "not json", "Username is required"},
		{"/signup", map[string]string{"username": "a", "password": "b"}, "All fields are required"},
		{"/signup", map[string]string{"username": "a", "password": "b", "category": "   "}, "All fields are required"},
		{"/login", map[string]string{"username": "a"}, "Username and password required"},
		{"/predict/3", map[string]string{}, "Username is required"},
		{"/history", map[string]string{"username": ""}, "Username is required"},
		{"/run-notebook", map[string]string{}, "Month parameter is required"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			expectError(t, post(t, ts, tt.path, tt.body), http.StatusBadRequest, tt.msg)
		})
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t, testDeps{})
	signup(t, ts, "alice", "Lung Disease/Asthma")

	resp := post(t, ts, "/login", map[string]string{"username": "alice", "password": "pw"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["status"] != "success" || body["username"] != "alice" || body["category"] != "Lung Disease/Asthma" {
		t.Fatalf("unexpected body %v", body)
	}

	resp = post(t, ts, "/login", map[string]string{"username": "alice", "password": "wrong"})
	expectError(t, resp, http.StatusUnauthorized, "Invalid credentials")

	resp = post(t, ts, "/login", map[string]string{"username": "bob", "password": "pw"})
	expectError(t, resp, http.StatusUnauthorized, "Invalid credentials")
}

func TestAQIEndpoint(t *testing.T) {
	ts := newTestServer(t, testDeps{})

	resp, err := http.Get(ts.URL + "/aqi/2")
	if err != nil {
		t.Fatal(err)
	}
	body := decode(t, resp)
	if body["month_index"] != float64(2) || body["aqi_value"] != float64(355) {
		t.Fatalf("unexpected body %v", body)
	}

	for _, bad := range []string{"0", "13", "abc"} {
		resp, err := http.Get(ts.URL + "/aqi/" + bad)
		if err != nil {
			t.Fatal(err)
		}
		expectError(t, resp, http.StatusBadRequest, "Invalid month index (1-12)")
	}
}

func TestPredictAndHistory(t *testing.T) {
	ts := newTestServer(t, testDeps{})
	signup(t, ts, "alice", "Old Age")

	resp := post(t, ts, "/predict/5", map[string]string{"username": "alice"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode(t, resp)
	if body["month_index"] != float64(5) || body["aqi_value"] != float64(240) {
		t.Fatalf("unexpected body %v", body)
	}
	if body["solution"] != domain.Resolve(domain.BandVeryUnhealthy, domain.CategoryOldAge) {
		t.Fatalf("unexpected solution %v", body["solution"])
	}

	_ = decode(t, post(t, ts, "/predict/2", map[string]string{"username": "alice"}))

	resp = post(t, ts, "/history", map[string]string{"username": "alice"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var hist struct {
		History []struct {
			MonthIndex int    `json:"month_index"`
			AQIValue   int    `json:"aqi_value"`
			Timestamp  string `json:"timestamp"`
		} `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(hist.History) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(hist.History))
	}
	if hist.History[0].MonthIndex != 2 || hist.History[0].AQIValue != 355 {
		t.Fatalf("expected newest first, got %+v", hist.History[0])
	}
	if _, err := time.Parse(time.RFC3339Nano, hist.History[0].Timestamp); err != nil {
		t.Fatalf("timestamp not RFC 3339: %v", err)
	}
}

func TestPredict_Errors(t *testing.T) {
	ts := newTestServer(t, testDeps{})
	signup(t, ts, "alice", "Normal People")

	expectError(t, post(t, ts, "/predict/13", map[string]string{"username": "alice"}),
		http.StatusBadRequest, "Invalid month index (1-12)")
	expectError(t, post(t, ts, "/predict/5", map[string]string{"username": "ghost"}),
		http.StatusUnauthorized, "User not found")
	// Unknown user wins over a bad month.
	expectError(t, post(t, ts, "/predict/13", map[string]string{"username": "ghost"}),
		http.StatusUnauthorized, "User not found")
	expectError(t, post(t, ts, "/history", map[string]string{"username": "ghost"}),
		http.StatusUnauthorized, "User not found")

	// Rejected requests leave no history.
	resp := post(t, ts, "/history", map[string]string{"username": "alice"})
	if body := decode(t, resp); len(body["history"].([]any)) != 0 {
		t.Fatalf("expected empty history, got %v", body)
	}
}

func TestPredict_PersistenceFailure(t *testing.T) {
	ts := newTestServer(t, testDeps{history: &mockHistoryRepo{
		appendFn: func(context.Context, int64, int, int, time.Time) (int64, error) {
			return 0, errors.New("disk full")
		},
	}})
	signup(t, ts, "alice", "Old Age")

	resp := post(t, ts, "/predict/1", map[string]string{"username": "alice"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	body := decode(t, resp)
	if _, ok := body["solution"]; ok {
		t.Fatal("advice must not be returned when the write fails")
	}
	if strings.Contains(body["error"].(string), "disk full") {
		t.Fatal("internal cause leaked to client")
	}
}

func TestUnrecognizedCategoryGetsFallback(t *testing.T) {
	ts := newTestServer(t, testDeps{})
	signup(t, ts, "carol", "Athlete")

	body := decode(t, post(t, ts, "/predict/1", map[string]string{"username": "carol"}))
	if body["solution"] != "No specific solution available." {
		t.Fatalf("unexpected solution %v", body["solution"])
	}
}

func TestBearerIdentity(t *testing.T) {
	ts := newTestServer(t, testDeps{verifier: &mockVerifier{
		identifyFn: func(_ context.Context, raw string) (string, error) {
			if raw == "good-token" {
				return "alice", nil
			}
			return "", errors.New("bad signature")
		},
	}})
	signup(t, ts, "alice", "Old Age")

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/predict/1", strings.NewReader(`{"username":"ghost"}`))
	req.Header.Set("Authorization", "Bearer good-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected token identity to win over body, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/history", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer forged")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	expectError(t, resp, http.StatusUnauthorized, "Invalid credentials")
}

func TestDebugDataset(t *testing.T) {
	ts := newTestServer(t, testDeps{})
	resp, err := http.Get(ts.URL + "/debug-dataset")
	if err != nil {
		t.Fatal(err)
	}
	body := decode(t, resp)
	if body["rows"] != float64(365) {
		t.Fatalf("unexpected body %v", body)
	}

	ts = newTestServer(t, testDeps{dataset: &mockDataset{err: domain.ErrDatasetUnavailable}})
	resp, err = http.Get(ts.URL + "/debug-dataset")
	if err != nil {
		t.Fatal(err)
	}
	expectError(t, resp, http.StatusServiceUnavailable, "Dataset not loaded or empty")
}

func TestRunNotebook(t *testing.T) {
	var gotMonth int
	ts := newTestServer(t, testDeps{renderer: &mockRenderer{
		renderFn: func(_ context.Context, month int) (map[string][]byte, error) {
			gotMonth = month
			return map[string][]byte{domain.ChartTrend: []byte("img"), domain.ChartPollutants: nil}, nil
		},
	}})

	resp := post(t, ts, "/run-notebook", `{"month": "4"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode(t, resp)
	if gotMonth != 4 {
		t.Fatalf("expected month 4, got %d", gotMonth)
	}
	vis := body["visualizations"].(map[string]any)
	if len(vis) != 1 || vis[domain.ChartTrend] != base64.StdEncoding.EncodeToString([]byte("img")) {
		t.Fatalf("unexpected visualizations %v", vis)
	}

	expectError(t, post(t, ts, "/run-notebook", `{"month": 13}`), http.StatusBadRequest, "Invalid month index (1-12)")
	expectError(t, post(t, ts, "/run-notebook", `{"month": 2.5}`), http.StatusBadRequest, "Invalid month index (1-12)")
}

func TestRunNotebook_RendererFailure(t *testing.T) {
	ts := newTestServer(t, testDeps{renderer: &mockRenderer{
		renderFn: func(context.Context, int) (map[string][]byte, error) {
			return nil, errors.New("connection refused")
		},
	}})
	expectError(t, post(t, ts, "/run-notebook", `{"month": 1}`), http.StatusInternalServerError, "Failed to generate visualizations")
}

func TestSSODisabled(t *testing.T) {
	ts := newTestServer(t, testDeps{})
	resp, err := http.Get(ts.URL + "/sso/login")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, testDeps{})
	resp, err := http.Get(ts.URL + "/predict/1")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUsernameWithSurroundingSpaces(t *testing.T) {
	ts := newTestServer(t, testDeps{})
	signup(t, ts, " bob ", "Old Age")

	resp := post(t, ts, "/login", map[string]string{"username": " bob ", "password": "pw"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login to succeed, got %d", resp.StatusCode)
	}
	if body := decode(t, resp); body["username"] != " bob " {
		t.Fatalf("unexpected username %v", body["username"])
	}

	resp = post(t, ts, "/predict/1", map[string]string{"username": " bob "})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected predict to succeed, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	expectError(t, post(t, ts, "/login", map[string]string{"username": "bob", "password": "pw"}),
		http.StatusUnauthorized, "Invalid credentials")
}

func TestRunNotebook_NonNumericMonth(t *testing.T) {
	ts := newTestServer(t, testDeps{})

	expectError(t, post(t, ts, "/run-notebook", `{"month": "abc"}`), http.StatusBadRequest, "Invalid month index (1-12)")
	expectError(t, post(t, ts, "/run-notebook", `{"month": true}`), http.StatusBadRequest, "Invalid month index (1-12)")
	expectError(t, post(t, ts, "/run-notebook", `{"month": null}`), http.StatusBadRequest, "Month parameter is required")
}

func TestSSOLogin_RemembersCategory(t *testing.T) {
	logger := logging.Discard()
	db := memory.New()
	srv := adapthttp.New(
		app.NewAuthService(db, logger),
		app.NewAdvisoryService(db, db, domain.DefaultAQITable(), 0, logger),
		app.NewChartsService(&mockRenderer{}, &mockDataset{}, logger),
		logger,
	).WithSSO(&adapthttp.SSO{OAuth2: oauth2.Config{
		ClientID:    "aqi",
		RedirectURL: "https://aqi.example.com/sso/callback",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://idp.example.com/auth", TokenURL: "https://idp.example.com/token"},
	}})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(ts.URL + "/sso/login?category=" + url.QueryEscape("Lung Disease/Asthma"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "https://idp.example.com/auth?") {
		t.Fatalf("unexpected redirect %q", loc)
	}
	var category string
	for _, c := range resp.Cookies() {
		if c.Name == "sso_category" {
			category, _ = url.QueryUnescape(c.Value)
		}
	}
	if category != "Lung Disease/Asthma" {
		t.Fatalf("expected category cookie, got %q", category)
	}
}
