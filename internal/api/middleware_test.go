package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galeriaarte/galeria-server/internal/config"
	"github.com/galeriaarte/galeria-server/internal/http/response"
)

func TestEnvelopeTransformer(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{
			name:  "success response",
			input: map[string]string{"nombre": "Rojo"},
			want:  `{"success":true,"data":{"nombre":"Rojo"}}`,
		},
		{
			name:  "api error with details",
			input: &APIError{Code: "VALIDATION", Message: "Datos inválidos", Details: map[string]string{"codigo_hex": "Es obligatorio"}},
			want:  `{"success":false,"error":"Datos inválidos","code":"VALIDATION","details":{"codigo_hex":"Es obligatorio"}}`,
		},
		{
			name:  "plain error",
			input: errors.New("boom"),
			want:  `{"success":false,"error":"boom","code":"INTERNAL"}`,
		},
		{
			name:  "envelope passes through",
			input: response.Envelope{Success: true, Warnings: []string{"aviso"}},
			want:  `{"success":true,"warnings":["aviso"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, "200", tt.input)
			require.NoError(t, err)

			got, err := json.Marshal(result)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestEnvelopeTransformer_NoContent(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "204", nil)

	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remote: "10.0.0.1:4000", want: "203.0.113.7"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.2"}, remote: "10.0.0.1:4000", want: "198.51.100.2"},
		{name: "remote addr", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "remote addr without port", remote: "192.0.2.1", want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{name: "header", header: "Bearer abc", want: "abc"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "other scheme", header: "Basic abc", want: ""},
		{name: "query for event streams", query: "?access_token=xyz", want: "xyz"},
		{name: "header wins", header: "Bearer abc", query: "?access_token=xyz", want: "abc"},
		{name: "none", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/realtime/stream"+tt.query, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, bearerToken(r))
		})
	}
}

func TestUploadRateLimit(t *testing.T) {
	ts := setupTestServer(t, func(c *config.Config) {
		c.Server.UploadRPS = 0.001
		c.Server.UploadBurst = 1
	})

	first := ts.send(t, http.MethodPost, "/api/v1/works", nil, nil)
	assert.Equal(t, http.StatusBadRequest, first.Code, "first request reaches validation")

	second := ts.send(t, http.MethodPost, "/api/v1/works", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMITED", decode(t, second.Body.Bytes()).Code)

	assert.Equal(t, http.StatusOK, ts.api.Get("/api/v1/colors", ts.auth()).Code, "reads are not limited")
}
