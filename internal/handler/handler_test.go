package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/holohaven-api/internal/dto"
	"github.com/flicky/holohaven-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", service.ErrProductNotFound, http.StatusNotFound},
		{"forbidden", service.ErrAdminRequired, http.StatusForbidden},
		{"unauthorized", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"conflict", service.ErrUserAlreadyExists, http.StatusBadRequest},
		{"invalid input", service.ErrInvalidRating, http.StatusBadRequest},
		{"invalid state", service.ErrCartEmpty, http.StatusBadRequest},
		{"upstream", service.ErrImageHost, http.StatusBadGateway},
		{"wrapped", fmt.Errorf("get order: %w", service.ErrOrderNotFound), http.StatusNotFound},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestParseID_Invalid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	_, ok := parseID(c, "id", "product")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid product ID")
}

func TestHealth(t *testing.T) {
	r := gin.New()
	h := NewHealthHandler(nil, nil, nil)
	r.GET("/health", h.Health)
	r.GET("/healthz", h.Liveness)

	for path, want := range map[string]string{"/health": `{"status":"OK"}`, "/healthz": `{"status":"alive"}`} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, want, w.Body.String())
	}
}

func multipartRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProductForm(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, map[string]string{
		"name":      "Shiranui Flare Hoodie",
		"price":     "35.00",
		"category":  "Apparel",
		"vtuberTag": "Flare",
	})

	require.True(t, isMultipart(c))
	req, err := productForm(c)
	require.NoError(t, err)
	assert.Equal(t, "Shiranui Flare Hoodie", req.Name)
	assert.True(t, req.Price.Valid)
	assert.True(t, req.Price.Decimal.Equal(decimal.NewFromInt(35)))
	assert.Equal(t, "Flare", req.VtuberTag)
}

func TestProductForm_BadPrice(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, map[string]string{"name": "x", "price": "cheap"})

	_, err := productForm(c)
	assert.Error(t, err)
}

func TestProductForm_MissingPrice(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, map[string]string{"name": "x"})

	req, err := productForm(c)
	require.NoError(t, err)
	assert.False(t, req.Price.Valid)
}

func TestProductUpdateForm_OnlySetsSentFields(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, map[string]string{
		"name":     "Renamed",
		"price":    "12.50",
		"isActive": "false",
	})

	req, err := productUpdateForm(c)
	require.NoError(t, err)
	require.NotNil(t, req.Name)
	assert.Equal(t, "Renamed", *req.Name)
	require.NotNil(t, req.Price)
	assert.True(t, req.Price.Equal(decimal.RequireFromString("12.50")))
	require.NotNil(t, req.IsActive)
	assert.False(t, *req.IsActive)
	assert.Nil(t, req.Category)
	assert.Nil(t, req.Description)
	assert.Nil(t, req.Image)
}

func TestProductUpdateForm_BadValues(t *testing.T) {
	for _, fields := range []map[string]string{
		{"price": "cheap"},
		{"isActive": "maybe"},
	} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = multipartRequest(t, fields)

		_, err := productUpdateForm(c)
		assert.Error(t, err)
	}
}

func TestPromotionForm(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, map[string]string{
		"title":                "Summer Sale",
		"discountPercent":      "20",
		"validFrom":            "2026-06-01T00:00:00Z",
		"validUntil":           "2026-06-30T00:00:00Z",
		"applicableCategories": `["Plush","Apparel"]`,
		"applicableProducts":   "",
		"isActive":             "false",
	})

	req, err := promotionForm(c)
	require.NoError(t, err)
	assert.Equal(t, "Summer Sale", req.Title)
	assert.Equal(t, 20, req.DiscountPercent)
	assert.Equal(t, dto.StringList{"Plush", "Apparel"}, req.ApplicableCategories)
	assert.Nil(t, req.ApplicableProducts)
	require.NotNil(t, req.IsActive)
	assert.False(t, *req.IsActive)
	assert.Equal(t, 2026, req.ValidFrom.Year())
}

func TestPromotionForm_BadList(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = multipartRequest(t, map[string]string{"title": "x", "applicableCategories": "Plush"})

	_, err := promotionForm(c)
	assert.Error(t, err)
}
