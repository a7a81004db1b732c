package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"ipv4 with port", "10.0.0.7:51234", "10.0.0.7"},
		{"bracketed ipv6 with port", "[2001:db8::1]:443", "2001:db8::1"},
		{"bare ipv4", "10.0.0.7", "10.0.0.7"},
		{"bare ipv6", "2001:db8::1", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			assert.Equal(t, tt.want, ExtractClientIP(r))
		})
	}
}
