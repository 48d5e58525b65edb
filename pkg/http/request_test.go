package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkghttp "github.com/BradenHooton/tradepost/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractClientIP(t *testing.T) {
	trusted := pkghttp.NewIPConfig([]string{"10.0.0.0/8", "127.0.0.1/32", "2001:db8::/32"})

	tests := []struct {
		name       string
		config     *pkghttp.IPConfig
		remoteAddr string
		xff        string
		xRealIP    string
		want       string
	}{
		{
			name:       "direct client ignores spoofed headers",
			config:     trusted,
			remoteAddr: "203.0.113.10:54321",
			xff:        "1.2.3.4, 5.6.7.8",
			xRealIP:    "192.168.1.1",
			want:       "203.0.113.10",
		},
		{
			name:       "trusted proxy uses first forwarded address",
			config:     trusted,
			remoteAddr: "10.0.0.5:54321",
			xff:        "203.0.113.42, 10.0.0.5",
			want:       "203.0.113.42",
		},
		{
			name:       "trusted proxy skips malformed forwarded entries",
			config:     trusted,
			remoteAddr: "10.0.0.5:54321",
			xff:        "garbage, 203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy falls back to X-Real-IP",
			config:     trusted,
			remoteAddr: "127.0.0.1:8080",
			xRealIP:    "198.51.100.9",
			want:       "198.51.100.9",
		},
		{
			name:       "ipv6 trusted proxy",
			config:     trusted,
			remoteAddr: "[2001:db8::1]:443",
			xff:        "2001:db8:ffff::42",
			want:       "2001:db8:ffff::42",
		},
		{
			name:       "nil config never trusts headers",
			config:     nil,
			remoteAddr: "127.0.0.1:8080",
			xff:        "1.2.3.4",
			want:       "127.0.0.1",
		},
		{
			name:       "invalid cidrs are ignored",
			config:     pkghttp.NewIPConfig([]string{"not-a-cidr"}),
			remoteAddr: "10.0.0.5:1234",
			xff:        "1.2.3.4",
			want:       "10.0.0.5",
		},
		{
			name:       "remote address without port",
			config:     nil,
			remoteAddr: "192.0.2.1",
			want:       "192.0.2.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/auth/signin", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			assert.Equal(t, tt.want, pkghttp.ExtractClientIP(req, tt.config))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"alice@example.com"}`))
	require.NoError(t, pkghttp.DecodeJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "alice@example.com", dst.Email)

	oversized := `{"email":"` + strings.Repeat("a", pkghttp.MaxBodyBytes) + `"}`
	req = httptest.NewRequest("POST", "/", strings.NewReader(oversized))
	err := pkghttp.DecodeJSON(httptest.NewRecorder(), req, &dst)

	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, err, &maxErr)
}
