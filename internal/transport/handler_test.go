package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/cache"
	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/guided"
	"storefront/internal/middleware"
	"storefront/internal/provider"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testSecret = "handler-test-secret"

type testAPI struct {
	t       *testing.T
	router  http.Handler
	manager *session.Manager
	token   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()

	cfg := session.DefaultConfig()
	cfg.PromptDelay = time.Hour
	manager := session.NewManager(provider.NewOfflineProvider(), cache.NewMemoryCache(), cfg, time.Hour, logger)
	t.Cleanup(func() { manager.Shutdown(context.Background()) })

	r := chi.NewRouter()
	sessionMiddleware := middleware.SessionMiddleware(testSecret, logger)
	NewSessionHandler(manager, testSecret, time.Hour, logger).RegisterRoutes(r, sessionMiddleware)
	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware)
		NewCatalogHandler(manager, logger).RegisterRoutes(r)
		NewCartHandler(manager, logger).RegisterRoutes(r)
		NewQuizHandler(manager, logger).RegisterRoutes(r, nil)
	})

	api := &testAPI{t: t, router: r, manager: manager}

	w := api.do("POST", "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Token)
	assert.Equal(t, created.Token, w.Header().Get(middleware.SessionHeader))
	api.token = created.Token
	return api
}

func (a *testAPI) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set(middleware.SessionHeader, a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[middleware.ErrorResponse](t, w).Error.Code
}

// quizBody mirrors the fields of the quiz view the tests inspect
type quizBody struct {
	State           guided.State         `json:"state"`
	Title           string               `json:"title"`
	Question        *domain.QuizQuestion `json:"question"`
	Recommendations []domain.Product     `json:"recommendations"`
	Error           string               `json:"error"`
}

type catalogBody struct {
	catalog.Result
	Title         string `json:"title"`
	Breadcrumb    string `json:"breadcrumb"`
	ActiveFilters int    `json:"activeFilters"`
	QuizContext   string `json:"quizContext"`
}

func TestRoutesRequireSessionToken(t *testing.T) {
	api := newTestAPI(t)
	api.token = ""

	for _, path := range []string{"/api/catalog", "/api/cart", "/api/quiz"} {
		w := api.do("GET", path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestCatalogBrowsing(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("GET", "/api/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[catalogBody](t, w)
	assert.Equal(t, 7, view.TotalCount)
	assert.Equal(t, "All Products", view.Title)
	assert.Equal(t, "All Categories", view.Breadcrumb)

	w = api.do("POST", "/api/catalog/search", SearchRequest{Term: "magnesium"})
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[catalogBody](t, w)
	assert.Equal(t, 4, view.TotalCount)
	assert.Equal(t, "Search results for 'magnesium'", view.Title)
	assert.Equal(t, "magnesium", view.QuizContext)

	w = api.do("POST", "/api/catalog/navigate", NavigateRequest{Category: string(domain.CategoryBodyBeauty)})
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[catalogBody](t, w)
	assert.Equal(t, 2, view.TotalCount)
	assert.Equal(t, string(domain.CategoryBodyBeauty), view.QuizContext)

	w = api.do("PUT", "/api/catalog/sort", SortRequest{Sort: "price_desc"})
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[catalogBody](t, w)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "3", view.Items[0].ID)

	w = api.do("PUT", "/api/catalog/filters", FiltersRequest{Category: "All", Rating: 5, Brand: []string{"Solgar"}})
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[catalogBody](t, w)
	assert.Equal(t, 1, view.TotalCount)
	assert.Equal(t, 2, view.ActiveFilters)

	w = api.do("POST", "/api/catalog/home", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, decode[catalogBody](t, w).TotalCount)
}

func TestCatalogRejectsInvalidInput(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("POST", "/api/catalog/navigate", NavigateRequest{Category: "Garden"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CATEGORY", errorCode(t, w))

	w = api.do("PUT", "/api/catalog/sort", SortRequest{Sort: "newest"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", errorCode(t, w))

	w = api.do("PUT", "/api/catalog/page-size", PageSizeRequest{PageSize: 13})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PAGE_SIZE", errorCode(t, w))

	w = api.do("PUT", "/api/catalog/filters", FiltersRequest{Category: "All", Rating: 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOutOfRangePageIsIgnored(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("PUT", "/api/catalog/page", PageRequest{Page: 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[catalogBody](t, w).Page)
}

func TestProductDetail(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("GET", "/api/products/6", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Almond Flour", decode[domain.Product](t, w).Name)

	w = api.do("GET", "/api/products/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", errorCode(t, w))
}

func TestCartLifecycle(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("POST", "/api/cart/items", AddItemRequest{ProductID: "1", Quantity: 2})
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[session.CartView](t, w)
	assert.Equal(t, 2, view.ItemCount)
	// 416 is above the threshold so shipping is free
	assert.True(t, view.Summary.Total.Equal(decimal.NewFromInt(416)), view.Summary.Total.String())
	assert.True(t, view.Summary.FreeShipping)

	w = api.do("PUT", "/api/cart/items/1", UpdateItemRequest{Quantity: 1})
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[session.CartView](t, w)
	assert.True(t, view.Summary.Total.Equal(decimal.NewFromInt(258)), view.Summary.Total.String())

	w = api.do("POST", "/api/cart/items", AddItemRequest{ProductID: "1", Quantity: 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do("POST", "/api/cart/items", AddItemRequest{ProductID: "missing", Quantity: 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do("DELETE", "/api/cart/items/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[session.CartView](t, w).ItemCount)
}

func TestQuizRequiresContext(t *testing.T) {
	api := newTestAPI(t)

	w := api.do("POST", "/api/quiz", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NO_QUIZ_CONTEXT", errorCode(t, w))

	w = api.do("POST", "/api/quiz/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, w))
}

func (a *testAPI) waitForQuiz(state guided.State) quizBody {
	a.t.Helper()
	var last quizBody
	require.Eventually(a.t, func() bool {
		w := a.do("GET", "/api/quiz", nil)
		if w.Code != http.StatusOK {
			return false
		}
		last = decode[quizBody](a.t, w)
		return last.State == state
	}, 2*time.Second, 5*time.Millisecond, "quiz never reached %s", state)
	return last
}

func TestGuidedSelectionOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	require.Equal(t, http.StatusOK, api.do("POST", "/api/catalog/navigate", NavigateRequest{Category: "Health"}).Code)

	w := api.do("POST", "/api/quiz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, guided.StateIntro, decode[quizBody](t, w).State)

	w = api.do("POST", "/api/quiz/start", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	quiz := api.waitForQuiz(guided.StateQuestioning)
	assert.Equal(t, "Find your perfect Health product", quiz.Title)
	require.NotNil(t, quiz.Question)

	w = api.do("POST", "/api/quiz/answers", AnswerRequest{Question: quiz.Question.Question, Option: "Option Z"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "UNKNOWN_OPTION", errorCode(t, w))

	// The offline provider may answer before the response is written
	w = api.do("POST", "/api/quiz/answers", AnswerRequest{Question: quiz.Question.Question, Option: "Option A"})
	require.Contains(t, []int{http.StatusOK, http.StatusAccepted}, w.Code)

	quiz = api.waitForQuiz(guided.StateResults)
	require.Len(t, quiz.Recommendations, 2)

	w = api.do("POST", "/api/quiz/items/7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PRODUCT_NOT_RECOMMENDED", errorCode(t, w))

	w = api.do("POST", "/api/quiz/add-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[session.CartView](t, w)
	assert.Equal(t, 2, view.ItemCount)
	assert.True(t, view.Summary.Total.Equal(decimal.RequireFromString("371.3")), view.Summary.Total.String())

	assert.Equal(t, guided.StateClosed, api.waitForQuiz(guided.StateClosed).State)
}

func TestEndSession(t *testing.T) {
	api := newTestAPI(t)
	require.Equal(t, http.StatusOK, api.do("POST", "/api/cart/items", AddItemRequest{ProductID: "6", Quantity: 1}).Code)
	require.Equal(t, 1, api.manager.Len())

	w := api.do("DELETE", "/api/sessions/current", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, api.manager.Len())

	// The token is still signed and unexpired but no longer opens a session
	w = api.do("GET", "/api/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", errorCode(t, w))
	assert.Equal(t, 0, api.manager.Len())
}
