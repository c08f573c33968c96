package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetIDParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		wantValue  string
		wantErrMsg string
	}{
		{name: "lowercase id", path: "/vendors/1d6b", wantValue: "1d6b"},
		{name: "uppercase id is canonicalized", path: "/vendors/1D6B", wantValue: "1d6b"},
		{name: "digits only", path: "/vendors/0001", wantValue: "0001"},
		{name: "too short", path: "/vendors/1d6", wantErrMsg: "must be 4 hexadecimal digits"},
		{name: "too long", path: "/vendors/1d6b0", wantErrMsg: "must be 4 hexadecimal digits"},
		{name: "not hex", path: "/vendors/zzzz", wantErrMsg: "must be 4 hexadecimal digits"},
		{name: "encoded space", path: "/vendors/1d6%20", wantErrMsg: "must be 4 hexadecimal digits"},
		{name: "bad encoding", path: "/vendors/1d%zz", wantErrMsg: "invalid URL encoding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				gotValue string
				gotErr   error
			)
			r := chi.NewRouter()
			r.Get("/vendors/{vendorID}", func(_ http.ResponseWriter, req *http.Request) {
				gotValue, gotErr = GetIDParam(req, "vendorID")
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.URL.Path = tt.path
			req.URL.RawPath = tt.path
			r.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantErrMsg != "" {
				require.Error(t, gotErr)
				assert.Contains(t, gotErr.Error(), tt.wantErrMsg)
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, tt.wantValue, gotValue)
		})
	}
}
