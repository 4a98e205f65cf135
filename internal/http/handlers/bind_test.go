package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yabe12/bizdir/internal/domain/business"
	"github.com/yabe12/bizdir/internal/http/handlers"
	"github.com/yabe12/bizdir/internal/http/middlewares"
)

type bindDetails struct {
	JSON   string                `json:"json"`
	Field  string                `json:"field"`
	Fields []handlers.FieldError `json:"fields"`
}

func postBusiness(t *testing.T, body string, maxBytes int64) (int, handlers.APIError, bindDetails) {
	t.Helper()

	r := gin.New()
	if maxBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(maxBytes))
	}
	r.POST("/businesses", func(ctx *gin.Context) {
		var req business.CreateBusinessRequest
		if handlers.BindJSON(ctx, &req) {
			ctx.Status(http.StatusCreated)
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/businesses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp struct {
		Error struct {
			handlers.APIError
			Details bindDetails `json:"details"`
		} `json:"error"`
	}
	if w.Code != http.StatusCreated {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp.Error.APIError, resp.Error.Details
}

func TestBindJSONReportsJSONFieldNames(t *testing.T) {
	status, apiErr, details := postBusiness(t, `{"businessName":"A","categoryId":"not-a-uuid","services":["", "Repairs"]}`, 0)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", apiErr.Code)

	got := map[string]handlers.FieldError{}
	for _, fe := range details.Fields {
		got[fe.Field] = fe
	}

	for field, rule := range map[string]string{
		"businessName":  "min",
		"businessEmail": "required",
		"categoryId":    "uuid",
		"services[0]":   "required",
	} {
		fe, ok := got[field]
		require.True(t, ok, "missing %q in %+v", field, details.Fields)
		assert.Equal(t, rule, fe.Rule, field)
		assert.NotEmpty(t, fe.Message, field)
	}
}

func TestBindJSONTypeMismatch(t *testing.T) {
	status, _, details := postBusiness(t, `{"businessName":"Cafe","businessLicenseNumber":"ten"}`, 0)
	require.Equal(t, http.StatusBadRequest, status)

	assert.Equal(t, "invalid_json_type", details.JSON)
	assert.Equal(t, "businessLicenseNumber", details.Field)
	require.NotEmpty(t, details.Fields)
	assert.Equal(t, "type", details.Fields[0].Rule)
}

func TestBindJSONMalformed(t *testing.T) {
	status, apiErr, details := postBusiness(t, `{"businessName":`, 0)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", apiErr.Code)
	assert.Equal(t, "invalid_json_syntax", details.JSON)
}

func TestBindJSONBodyTooLarge(t *testing.T) {
	body := `{"businessName":"` + strings.Repeat("x", 2048) + `"}`

	status, apiErr, _ := postBusiness(t, body, 256)
	require.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "payload_too_large", apiErr.Code)
}
