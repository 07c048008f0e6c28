package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classifier-service/internal/inference"
	"classifier-service/internal/models"
	"classifier-service/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockClassifierService is a mock implementation of ClassifierService
type MockClassifierService struct {
	mock.Mock
}

func (m *MockClassifierService) Classify(ctx context.Context, text string) (*models.PredictionResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PredictionResult), args.Error(1)
}

func (m *MockClassifierService) ClassifyBatch(ctx context.Context, texts []string) (*models.BatchPredictResponse, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchPredictResponse), args.Error(1)
}

func (m *MockClassifierService) ModelComparison() []models.ComparisonRow {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.ComparisonRow)
}

func (m *MockClassifierService) Stats() models.Stats {
	return m.Called().Get(0).(models.Stats)
}

func (m *MockClassifierService) ModelInfo() models.ModelInfo {
	return m.Called().Get(0).(models.ModelInfo)
}

func (m *MockClassifierService) ModelName() string {
	return m.Called().String(0)
}

func setupRouter(svc ClassifierService) *gin.Engine {
	router := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func floatPtr(f float64) *float64 { return &f }

func TestHandler_Predict(t *testing.T) {
	t.Run("returns prediction", func(t *testing.T) {
		svc := new(MockClassifierService)
		svc.On("Classify", mock.Anything, "The Beatles released an album").Return(&models.PredictionResult{
			Category:         "Artist",
			Confidence:       floatPtr(0.91),
			TopPredictions:   []models.TopPrediction{{Category: "Artist", Confidence: 0.91}, {Category: "Album", Confidence: 0.05}},
			Model:            "Logistic Regression",
			PreprocessedText: "beatles released album",
			WordCount:        3,
		}, nil)
		router := setupRouter(svc)

		w := doRequest(router, http.MethodPost, "/predict", `{"text": "The Beatles released an album"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"category": "Artist",
			"confidence": 0.91,
			"top_predictions": [{"category": "Artist", "confidence": 0.91}, {"category": "Album", "confidence": 0.05}],
			"model": "Logistic Regression",
			"preprocessed_text": "beatles released album",
			"word_count": 3
		}`, w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("null confidence without probability support", func(t *testing.T) {
		svc := new(MockClassifierService)
		svc.On("Classify", mock.Anything, "text").Return(&models.PredictionResult{
			Category: "Company", Model: "Linear SVM", PreprocessedText: "text", WordCount: 1,
		}, nil)
		router := setupRouter(svc)

		w := doRequest(router, http.MethodPost, "/predict", `{"text": "text"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body, "confidence")
		assert.Nil(t, body["confidence"])
		assert.Contains(t, body, "top_predictions")
		assert.Nil(t, body["top_predictions"])
	})

	t.Run("missing text is 400", func(t *testing.T) {
		for _, body := range []string{`{}`, `{"text": null}`, `{"text": ""}`, `{"text": "   "}`, `null`, ""} {
			svc := new(MockClassifierService)
			svc.On("Classify", mock.Anything, mock.Anything).Return(nil, service.ErrEmptyText)
			router := setupRouter(svc)

			w := doRequest(router, http.MethodPost, "/predict", body)

			assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
			assert.JSONEq(t, `{"error": "No text provided"}`, w.Body.String(), "body %q", body)
		}
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		for _, body := range []string{`{"text": `, `{"text": 42}`, `[1, 2]`, `{"text": "a"} junk`, `{"text": "a"}{"text": "b"}`} {
			svc := new(MockClassifierService)
			router := setupRouter(svc)

			w := doRequest(router, http.MethodPost, "/predict", body)

			assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
			assert.JSONEq(t, `{"error": "Invalid request body"}`, w.Body.String())
			svc.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
		}
	})

	t.Run("trailing whitespace is accepted", func(t *testing.T) {
		svc := new(MockClassifierService)
		svc.On("Classify", mock.Anything, "text").Return(&models.PredictionResult{
			Category: "Company", Model: "LR", PreprocessedText: "text", WordCount: 1,
		}, nil)
		router := setupRouter(svc)

		w := doRequest(router, http.MethodPost, "/predict", "{\"text\": \"text\"}\n  \n")

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("engine failure is 500 with message", func(t *testing.T) {
		svc := new(MockClassifierService)
		svc.On("Classify", mock.Anything, "text").Return(nil, fmt.Errorf("%w: probability estimate: boom", inference.ErrInference))
		router := setupRouter(svc)

		w := doRequest(router, http.MethodPost, "/predict", `{"text": "text"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error": "inference failed: probability estimate: boom"}`, w.Body.String())
	})
}

func TestHandler_PredictBatch(t *testing.T) {
	t.Run("returns per-item results", func(t *testing.T) {
		svc := new(MockClassifierService)
		svc.On("ClassifyBatch", mock.Anything, []string{"a text", ""}).Return(&models.BatchPredictResponse{
			Results: []models.BatchItem{
				{Index: 0, Result: &models.PredictionResult{Category: "Artist", Model: "LR", PreprocessedText: "text", WordCount: 1}},
				{Index: 1, Error: "No text provided"},
			},
			Total:  2,
			Failed: 1,
		}, nil)
		router := setupRouter(svc)

		w := doRequest(router, http.MethodPost, "/predict/batch", `{"texts": ["a text", ""]}`)

		require.Equal(t, http.StatusOK, w.Code)
		var resp models.BatchPredictResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Total)
		assert.Equal(t, 1, resp.Failed)
		assert.Equal(t, "Artist", resp.Results[0].Result.Category)
		assert.Equal(t, "No text provided", resp.Results[1].Error)
	})

	t.Run("trailing data is 400", func(t *testing.T) {
		svc := new(MockClassifierService)
		router := setupRouter(svc)

		w := doRequest(router, http.MethodPost, "/predict/batch", `{"texts": ["x"]} junk`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error": "Invalid request body"}`, w.Body.String())
		svc.AssertNotCalled(t, "ClassifyBatch", mock.Anything, mock.Anything)
	})

	t.Run("limits are 400", func(t *testing.T) {
		svc := new(MockClassifierService)
		svc.On("ClassifyBatch", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: 100 texts, limit is 64", service.ErrBatchTooLarge))
		router := setupRouter(svc)

		w := doRequest(router, http.MethodPost, "/predict/batch", `{"texts": ["x"]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "limit is 64")
	})
}

func TestHandler_GetModels(t *testing.T) {
	t.Run("empty table is an empty array", func(t *testing.T) {
		svc := new(MockClassifierService)
		svc.On("ModelComparison").Return(nil)
		router := setupRouter(svc)

		w := doRequest(router, http.MethodGet, "/api/models", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("rows keep their values", func(t *testing.T) {
		svc := new(MockClassifierService)
		svc.On("ModelComparison").Return([]models.ComparisonRow{
			{"Model": "Logistic Regression", "Accuracy": 0.981, "Notes": nil},
			{"Model": "Naive Bayes", "Accuracy": 0.95, "Notes": "fast"},
		})
		router := setupRouter(svc)

		w := doRequest(router, http.MethodGet, "/api/models", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[
			{"Model": "Logistic Regression", "Accuracy": 0.981, "Notes": null},
			{"Model": "Naive Bayes", "Accuracy": 0.95, "Notes": "fast"}
		]`, w.Body.String())
	})
}

func TestHandler_GetStats(t *testing.T) {
	svc := new(MockClassifierService)
	svc.On("Stats").Return(models.Stats{
		Dataset:       "DBpedia",
		TotalSamples:  "560,000",
		Categories:    14,
		Features:      "5,000 (TF-IDF)",
		BestModel:     "Logistic Regression",
		Preprocessing: []string{"Lowercase", "Remove Punctuation", "Remove Stopwords"},
		ModelsTrained: 10,
	})
	router := setupRouter(svc)

	w := doRequest(router, http.MethodGet, "/api/stats", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"dataset": "DBpedia",
		"total_samples": "560,000",
		"categories": 14,
		"features": "5,000 (TF-IDF)",
		"best_model": "Logistic Regression",
		"preprocessing": ["Lowercase", "Remove Punctuation", "Remove Stopwords"],
		"models_trained": 10
	}`, w.Body.String())
}

func TestHandler_GetModelInfo(t *testing.T) {
	loaded := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := new(MockClassifierService)
	svc.On("ModelInfo").Return(models.ModelInfo{
		Name:                "Logistic Regression",
		ClassifierType:      "logistic_regression",
		Classes:             []string{"Company", "Artist"},
		NumFeatures:         5000,
		SupportsProbability: true,
		StopwordCount:       179,
		LoadedAt:            loaded,
	})
	router := setupRouter(svc)

	w := doRequest(router, http.MethodGet, "/api/model/info", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"name": "Logistic Regression",
		"classifier_type": "logistic_regression",
		"classes": ["Company", "Artist"],
		"num_features": 5000,
		"supports_probability": true,
		"stopword_count": 179,
		"loaded_at": "2026-01-02T03:04:05Z"
	}`, w.Body.String())
}

func TestHandler_HealthCheck(t *testing.T) {
	svc := new(MockClassifierService)
	svc.On("ModelName").Return("Logistic Regression")
	router := setupRouter(svc)

	w := doRequest(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "healthy", "model": "Logistic Regression"}`, w.Body.String())
}

func TestHandler_BodyTooLarge(t *testing.T) {
	svc := new(MockClassifierService)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 16)
		c.Next()
	})
	NewHandler(svc, zap.NewNop()).RegisterRoutes(router)

	body := bytes.Repeat([]byte("a"), 64)
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"text": "`+string(body)+`"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	svc.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
}
