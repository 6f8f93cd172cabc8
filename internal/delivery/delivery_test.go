package delivery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog_service/internal/collections"
	"catalog_service/internal/domain"
	"catalog_service/internal/observability"
	"catalog_service/internal/repository"
	"catalog_service/internal/tagging"
	"catalog_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const adminToken = "admin-token"

type envelope struct {
	Status  string          `json:"Status"`
	Message string          `json:"Message"`
	Data    json.RawMessage `json:"Data"`
}

type server struct {
	t      *testing.T
	router *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	rules, err := tagging.DefaultRules()
	require.NoError(t, err)
	tagger := tagging.NewTagger(rules)
	reg, err := collections.Default()
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	metrics := observability.NewMetrics()
	catalogUC := usecase.NewCatalogUseCase(store.Products(), store.Categories(), reg, tagger, nil, metrics, time.Minute, log)
	categoryUC := usecase.NewCategoryUseCase(store.Categories(), catalogUC, log)
	productUC := usecase.NewProductUseCase(store.Products(), store.Categories(), tagger, catalogUC, metrics, log)

	router := NewRouter(
		RouterConfig{AdminTokenHash: string(hash), Metrics: metrics, Log: log},
		NewCatalogHandler(catalogUC, categoryUC, log),
		NewCategoryHandler(categoryUC, log),
		NewProductHandler(productUC, log),
	)
	return &server{t: t, router: router}
}

func (s *server) do(method, path string, body interface{}, admin bool) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *server) seed() {
	s.t.Helper()
	rec, _ := s.do(http.MethodPost, "/categories", map[string]interface{}{"name": "Vibradores"}, true)
	require.Equal(s.t, http.StatusCreated, rec.Code)
	rec, _ = s.do(http.MethodPost, "/categories", map[string]interface{}{"name": "Bullets", "parent_id": 1}, true)
	require.Equal(s.t, http.StatusCreated, rec.Code)

	for _, p := range []map[string]interface{}{
		{"name": "Bullet Rosa", "brand": "Lovetoys", "price": 89.9, "stock": 3, "subcategory_id": 2,
			"description": "<p>Recarregável, comprimento: 8 cm</p>", "tags": "persona:ela"},
		{"name": "Bullet Azul", "brand": "LOVETOYS", "price": 79.9, "stock": 0, "subcategory_id": 2},
		{"name": "Sugador Pro", "brand": "Satisfyer", "price": 349, "stock": 1, "category_id": 1,
			"description": "Silicone médico"},
	} {
		rec, env := s.do(http.MethodPost, "/products", p, true)
		require.Equal(s.t, http.StatusCreated, rec.Code, env.Message)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)
	rec, _ := s.do(http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodGet, "/metrics", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog_http_requests_total")

	rec, env := s.do(http.MethodGet, "/nowhere", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Fail", env.Status)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newServer(t)
	rec, _ := s.do(http.MethodPost, "/categories", map[string]interface{}{"name": "X"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodPost, "/admin/retag", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminProductLifecycle(t *testing.T) {
	s := newServer(t)
	s.seed()

	rec, env := s.do(http.MethodGet, "/products/1", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "bullet-rosa", p.Slug)
	assert.Equal(t, "persona:ela", p.Tags[0].String())
	assert.Equal(t, 8.0, p.LengthCM)

	rec, env = s.do(http.MethodPatch, "/products/1", map[string]interface{}{"price": -5}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code, env.Message)

	rec, _ = s.do(http.MethodPatch, "/products/1", map[string]interface{}{"slug": "bullet-azul"}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(http.MethodPatch, "/products/1", map[string]interface{}{}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(http.MethodPatch, "/products/1", map[string]interface{}{"stock": 9}, true)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, 9, p.Stock)

	rec, env = s.do(http.MethodGet, "/products?category_id=1", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 3)

	rec, _ = s.do(http.MethodGet, "/products/abc", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/categories/1", nil, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/products/3", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodGet, "/products/3", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(http.MethodPost, "/admin/retag", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var report usecase.RetagReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, usecase.RetagReport{Scanned: 2, Updated: 0}, report)
}

func TestStorefrontBrowse(t *testing.T) {
	s := newServer(t)
	s.seed()

	rec, env := s.do(http.MethodGet, "/catalog/products?brand=lovetoys&sort=price-asc", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var page domain.ProductPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "bullet-azul", page.Items[0].Slug)
	assert.NotEmpty(t, page.Facets)

	rec, env = s.do(http.MethodGet, "/catalog/products?brand=Lovetoys,Satisfyer&in_stock=true", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 2, page.Total)

	rec, env = s.do(http.MethodGet, "/catalog/products?persona=ela&persona=discreto&page_size=1", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Items, 1)

	rec, env = s.do(http.MethodGet, "/catalog/products?page=1000000000000000000&page_size=10", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 3, page.Total)
	assert.Empty(t, page.Items)

	for _, q := range []string{"price_min=abc", "in_stock=maybe", "sort=random", "page=x"} {
		rec, _ = s.do(http.MethodGet, "/catalog/products?"+q, nil, false)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestStorefrontPages(t *testing.T) {
	s := newServer(t)
	s.seed()

	rec, env := s.do(http.MethodGet, "/catalog/categories/vibradores/products", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var cp struct {
		Category domain.Category    `json:"category"`
		Page     domain.ProductPage `json:"page"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cp))
	assert.Equal(t, "vibradores", cp.Category.Slug)
	assert.Equal(t, 3, cp.Page.Total)

	rec, _ = s.do(http.MethodGet, "/catalog/categories/nada/products", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(http.MethodGet, "/catalog/products/bullet-rosa", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail domain.ProductDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "Bullet Rosa", detail.Product.Name)
	assert.NotEmpty(t, detail.Related)

	rec, _ = s.do(http.MethodGet, "/catalog/products/nada", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(http.MethodGet, "/catalog/collections", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []usecase.CollectionSummary
	require.NoError(t, json.Unmarshal(env.Data, &summaries))
	assert.NotEmpty(t, summaries)

	rec, env = s.do(http.MethodGet, "/catalog/collections/silicone/products", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var colp struct {
		Collection domain.Collection  `json:"collection"`
		Page       domain.ProductPage `json:"page"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &colp))
	assert.Equal(t, 1, colp.Page.Total)
	assert.Equal(t, "sugador-pro", colp.Page.Items[0].Slug)

	rec, _ = s.do(http.MethodGet, "/catalog/categories", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPreviewTags(t *testing.T) {
	s := newServer(t)
	rec, env := s.do(http.MethodPost, "/catalog/tags/preview", map[string]string{
		"name":     "Plug de Vidro",
		"category": "plugs-anais",
	}, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var res usecase.PreviewResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "Vidro", res.Material)
	require.Len(t, res.Tags, 2)
	assert.Equal(t, "uso:anal", res.Tags[0].String())
}

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("product: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("slug: %w", domain.ErrConflict), http.StatusConflict},
		{fmt.Errorf("price: %w", domain.ErrInvalidInput), http.StatusBadRequest},
		{errors.New("category with id 3 not found"), http.StatusNotFound},
		{errors.New("pq: duplicate key value"), http.StatusConflict},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, mapErrorToStatus(tc.err), tc.err.Error())
	}
}
