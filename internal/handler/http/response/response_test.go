package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestFail(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, http.StatusConflict, CodeRefreshInFlight, "busy", map[string]string{"retry": "later"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.False(t, body.Success)
	assert.Nil(t, body.Data)
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrorDetail{Code: CodeRefreshInFlight, Message: "busy", Details: map[string]string{"retry": "later"}}, *body.Error)
}

func TestSuccessWithMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	SuccessWithMeta(rec, []string{"E1", "E2"}, &Meta{Page: 1, Limit: 2, TotalItems: 5, TotalPages: 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.True(t, body.Success)
	assert.Nil(t, body.Error)
	assert.Equal(t, []interface{}{"E1", "E2"}, body.Data)
	assert.Equal(t, &Meta{Page: 1, Limit: 2, TotalItems: 5, TotalPages: 3}, body.Meta)
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, "Employee created", map[string]string{"employee_id": "E1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Employee created", body.Message)
}
