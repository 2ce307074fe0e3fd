package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/study-helper/pkg/ctxutil"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	const sent = "shctl-7f3a"

	tests := []struct {
		name     string
		incoming string
		wantSame bool
	}{
		{name: "reuses the caller's id", incoming: sent, wantSame: true},
		{name: "generates when missing"},
		{name: "replaces an oversized id", incoming: strings.Repeat("x", maxRequestIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var inCtx string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				inCtx = ctxutil.RequestIDFromCtx(r.Context())
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			RequestID()(handler).ServeHTTP(rec, req)

			echoed := rec.Header().Get(RequestIDHeader)
			assert.Equal(t, inCtx, echoed)
			if tt.wantSame {
				assert.Equal(t, tt.incoming, echoed)
				return
			}
			_, err := uuid.Parse(echoed)
			require.NoError(t, err)
		})
	}
}
