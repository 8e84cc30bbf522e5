package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegisterRoutes verifies that every route is mounted. Handlers return
// other codes for missing bodies, which is fine for an existence check; only
// a 404 means the route is absent.
func TestRegisterRoutes(t *testing.T) {
	f := newFixture(t)

	testCases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/avv/check"},
		{http.MethodPost, "/api/v1/passcode"},
		{http.MethodPost, "/api/v1/passcode/verify"},
		{http.MethodPost, "/api/v1/otp/request"},
		{http.MethodPost, "/api/v1/otp/verify"},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s_%s_exists", tc.method, tc.path), func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			resp, err := f.app.Test(req)
			require.NoError(t, err)

			assert.NotEqual(t, http.StatusNotFound, resp.StatusCode)
		})
	}
}
