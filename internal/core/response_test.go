package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KaanIpek/weather-api/internal/types"
)

// --- JSON helper tests ---

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	JSON(w, r, http.StatusOK, APIResponse{Data: map[string]string{"name": "Paris"}})

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}

	var body APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	dataMap, ok := body.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("expected data to be a map, got %T", body.Data)
	}
	if dataMap["name"] != "Paris" {
		t.Errorf("unexpected data: %v", dataMap)
	}
}

// --- Error helper tests ---

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) APIErrorResponse {
	t.Helper()
	var body APIErrorResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body
}

func TestError_AppErrorMapsStatusByCode(t *testing.T) {
	tests := []struct {
		name       string
		code       types.ErrorCode
		wantStatus int
	}{
		{name: "validation", code: types.ErrCodeValidationInvalidParam, wantStatus: http.StatusBadRequest},
		{name: "not found", code: types.ErrCodeNotFoundWeatherData, wantStatus: http.StatusNotFound},
		{name: "provider unavailable", code: types.ErrCodeProviderUnavailable, wantStatus: http.StatusBadGateway},
		{name: "internal db", code: types.ErrCodeInternalDB, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(types.WithRequestID(r.Context(), "req-1"))

			Error(w, r, types.NewAppError(tt.code, "boom", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			body := decodeErrorBody(t, w)
			if body.Error.Code != string(tt.code) {
				t.Errorf("expected code %s, got %s", tt.code, body.Error.Code)
			}
			if body.Error.RequestID != "req-1" {
				t.Errorf("expected request id in body, got %q", body.Error.RequestID)
			}
		})
	}
}

// A rejected provider call mirrors the upstream status instead of a flat 502.
func TestError_ProviderRejectionMirrorsUpstreamStatus(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(w, r, types.NewProviderRejected(http.StatusNotFound, "city not found"))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected mirrored 404, got %d", w.Code)
	}
	body := decodeErrorBody(t, w)
	if body.Error.Code != string(types.ErrCodeProviderRejected) {
		t.Errorf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Details[types.DetailProviderBody] != "city not found" {
		t.Errorf("expected provider body detail, got %v", body.Error.Details)
	}
}

func TestError_WrappedAppError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	appErr := types.NewAppError(types.ErrCodeNotFoundCity, "no such city", nil)
	wrapped := errors.Join(errors.New("outer"), appErr)

	Error(w, r, wrapped)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 from wrapped AppError, got %d", w.Code)
	}
}

func TestError_GenericErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(w, r, errors.New("pq: secret connection string"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	body := decodeErrorBody(t, w)
	if body.Error.Code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("unexpected code %s", body.Error.Code)
	}
	if strings.Contains(body.Error.Message, "secret") {
		t.Errorf("internal error text leaked to client: %s", body.Error.Message)
	}
}

// --- DecodeJSON tests ---

func TestDecodeJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Oslo"}`))

	var dst struct {
		Name string `json:"name"`
	}
	if err := DecodeJSON(w, r, &dst); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if dst.Name != "Oslo" {
		t.Errorf("expected name Oslo, got %q", dst.Name)
	}
}

func TestDecodeJSON_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "malformed json", body: `{"name":`},
		{name: "unknown field", body: `{"name":"Oslo","extra":1}`},
		{name: "wrong type", body: `{"name":42}`},
		{name: "multiple values", body: `{"name":"Oslo"}{"name":"Paris"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst struct {
				Name string `json:"name"`
			}
			err := DecodeJSON(w, r, &dst)
			if err == nil {
				t.Fatal("expected a decode error")
			}

			var appErr *types.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr.Code != errCodeValidationInvalidJSON {
				t.Errorf("expected code %s, got %s", errCodeValidationInvalidJSON, appErr.Code)
			}
			if appErr.HTTPStatus() != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", appErr.HTTPStatus())
			}
		})
	}
}
