package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galeriaarte/galeria-server/internal/auth"
	"github.com/galeriaarte/galeria-server/internal/config"
	"github.com/galeriaarte/galeria-server/internal/domain"
	"github.com/galeriaarte/galeria-server/internal/logger"
	"github.com/galeriaarte/galeria-server/internal/media/images"
	"github.com/galeriaarte/galeria-server/internal/realtime"
	"github.com/galeriaarte/galeria-server/internal/service"
	"github.com/galeriaarte/galeria-server/internal/sse"
	"github.com/galeriaarte/galeria-server/internal/store"
	"github.com/galeriaarte/galeria-server/internal/store/storetest"
)

const testSecret = "una-clave-de-pruebas-suficientemente-larga"

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// fakePipeline stores nothing and names uploads after the title.
type fakePipeline struct {
	mu      sync.Mutex
	n       int
	deleted []string
}

func (p *fakePipeline) Upload(_ context.Context, _ images.File, opts images.UploadOptions) (images.Uploaded, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	key := fmt.Sprintf("%s-%d.png", domain.Slugify(opts.Title), p.n)
	return images.Uploaded{URL: "https://cdn.test/" + opts.Bucket + "/" + key, Key: key, ContentType: "image/png"}, nil
}

func (p *fakePipeline) Delete(_ context.Context, url, bucket string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, bucket+"/"+url)
	return nil
}

// testServer wraps the API server with its in-memory tables.
type testServer struct {
	*Server
	api        humatest.TestAPI
	token      string
	works      *storetest.WorkTable
	categories *storetest.CategoryTable
	colors     *storetest.ColorTable
	category   domain.CategoryRow
	red, blue  domain.ColorRow
	pipeline   *fakePipeline
}

func setupTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	log := logger.Discard()

	ts := &testServer{
		works:      storetest.NewWorkTable(),
		categories: &storetest.CategoryTable{},
		category:   domain.CategoryRow{ID: uuid.New(), Name: "Óleo"},
		red:        domain.ColorRow{ID: uuid.New(), Name: "Rojo", Hex: "#c0392b", Position: 2},
		blue:       domain.ColorRow{ID: uuid.New(), Name: "Azul", Hex: "#2980b9", Position: 1},
		pipeline:   &fakePipeline{},
	}
	ts.categories.Set(ts.category)
	ts.works.SetCategory(ts.category.ID, ts.category.Name)
	inspirationTable := storetest.NewInspirationTable()
	ts.colors = storetest.NewColorTable(ts.red, ts.blue)
	ts.colors.LinkTo(inspirationTable)

	stores := &Stores{
		Works:        store.NewWorkStore(ts.works, ts.pipeline, log, nil),
		Inspirations: store.NewInspirationStore(inspirationTable, ts.pipeline, log, nil),
		Categories:   store.NewCategoryStore(ts.categories, nil, 0, log, nil),
		Colors:       store.NewColorStore(ts.colors, log, nil),
	}
	services := &Services{
		Works:        service.NewWorkService(stores.Works, ts.pipeline, log),
		Inspirations: service.NewInspirationService(stores.Inspirations, stores.Colors, ts.pipeline, log),
		Preloader: service.NewPreloader(service.PreloaderDeps{
			Works:        stores.Works,
			Inspirations: stores.Inspirations,
			Categories:   stores.Categories,
			Colors:       stores.Colors,
			Hub:          realtime.NewHub(log),
		}, log),
	}

	verifier, err := auth.NewVerifier(testSecret, "")
	require.NoError(t, err)
	ts.token, err = verifier.Issue(auth.User{ID: uuid.New(), Email: "artista@galeria.test", Role: "authenticated"}, time.Hour)
	require.NoError(t, err)

	cfg := &config.Config{Server: config.ServerConfig{UploadRPS: 100, UploadBurst: 100}}
	for _, m := range mutate {
		m(cfg)
	}

	sseManager := sse.NewManager(log, nil)
	ts.Server = NewServer(Deps{
		Config:   cfg,
		Services: services,
		Stores:   stores,
		Verifier: verifier,
		SSE:      sseManager,
		Logger:   log,
	})
	ts.api = humatest.Wrap(t, ts.Server.API())

	t.Cleanup(func() {
		ts.Server.Close()
		_ = services.Preloader.Close()
		_ = sseManager.Shutdown(context.Background())
	})
	return ts
}

func (ts *testServer) auth() string { return "Authorization: Bearer " + ts.token }

// multipartForm builds a multipart body. Files are sent under their field
// as PNG data.
func multipartForm(t *testing.T, values map[string][]string, files map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, vs := range values {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(field, v))
		}
	}
	for field, names := range files {
		for _, name := range names {
			fw, err := mw.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = fw.Write(pngHeader)
			require.NoError(t, err)
		}
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// send performs a multipart request against the router.
func (ts *testServer) send(t *testing.T, method, path string, values map[string][]string, files map[string][]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartForm(t, values, files)
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

// envelope is the decoded response envelope.
type envelope struct {
	Success  bool              `json:"success"`
	Data     json.RawMessage   `json:"data"`
	Error    string            `json:"error"`
	Code     string            `json:"code"`
	Details  map[string]string `json:"details"`
	Warnings []string          `json:"warnings"`
}

func decode(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &v))
	return v
}

func (ts *testServer) workFormValues() map[string][]string {
	return map[string][]string{
		"titulo":      {"Atardecer"},
		"descripcion": {"<p>Óleo sobre <em>tela</em></p>"},
		"anio":        {"2021"},
		"ancho":       {"60"},
		"alto":        {"80"},
		"categoria":   {ts.category.ID.String()},
		"destacada":   {"1"},
	}
}

// createWork creates a work with the given images through the upload route.
func (ts *testServer) createWork(t *testing.T, images ...string) domain.Work {
	t.Helper()
	rec := ts.send(t, http.MethodPost, "/api/v1/works", ts.workFormValues(), map[string][]string{"imagenes": images})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeData[domain.Work](t, rec.Body.Bytes())
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")

	assert.Equal(t, http.StatusOK, resp.Code)
	health := decodeData[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "unhealthy", health.Status, "no database configured")
	assert.Equal(t, "degraded", health.Components["search"].Status)
	assert.Equal(t, "healthy", health.Components["sse"].Status)
	assert.Equal(t, "no connected clients", health.Components["sse"].Message)
}

func TestServer_RequiresUser(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{name: "list works", method: http.MethodGet, path: "/api/v1/works"},
		{name: "list inspirations", method: http.MethodGet, path: "/api/v1/inspirations"},
		{name: "list categories", method: http.MethodGet, path: "/api/v1/categories"},
		{name: "delete color", method: http.MethodDelete, path: "/api/v1/colors/" + uuid.NewString()},
		{name: "create work", method: http.MethodPost, path: "/api/v1/works"},
		{name: "realtime stream", method: http.MethodGet, path: "/api/v1/realtime/stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ts.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestServer_InvalidTokenIsAnonymous(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/works", "Authorization: Bearer not-a-token")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	env := decode(t, resp.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
}

func TestServer_PreloadsOnFirstAuthenticatedRequest(t *testing.T) {
	ts := setupTestServer(t)
	assert.False(t, ts.services.Preloader.Loaded())

	resp := ts.api.Get("/api/v1/categories", ts.auth())

	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, ts.services.Preloader.Loaded())
	assert.Equal(t, 1, ts.stores.Categories.Len())
}

func TestServer_CORSPreflight(t *testing.T) {
	ts := setupTestServer(t, func(c *config.Config) {
		c.Server.AllowedOrigins = []string{"https://admin.galeria.test"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/works", nil)
	req.Header.Set("Origin", "https://admin.galeria.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, "https://admin.galeria.test", rec.Header().Get("Access-Control-Allow-Origin"))
}
