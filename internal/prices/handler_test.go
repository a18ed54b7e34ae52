package prices

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agromandi-lab/agromandi/internal/cache"
	httperr "github.com/agromandi-lab/agromandi/internal/core/errors"
	"github.com/agromandi-lab/agromandi/internal/core/market"
	"github.com/agromandi-lab/agromandi/internal/upstream"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r)
	return r
}

func TestHandleGetPrices_StatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		fetcher        *stubFetcher
		expectedStatus int
		expectedType   string
	}{
		{
			name:           "success returns 200",
			path:           "/v1/prices/Onion?agg=monthly",
			fetcher:        &stubFetcher{records: onionRecords},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid granularity returns 400",
			path:           "/v1/prices/Onion?agg=weekly",
			fetcher:        &stubFetcher{records: onionRecords},
			expectedStatus: http.StatusBadRequest,
			expectedType:   httperr.HttpInvalidQueryError,
		},
		{
			name:           "malformed from date returns 400",
			path:           "/v1/prices/Onion?from=01-05-2025",
			fetcher:        &stubFetcher{records: onionRecords},
			expectedStatus: http.StatusBadRequest,
			expectedType:   httperr.HttpInvalidQueryError,
		},
		{
			name:           "upstream failure returns 502",
			path:           "/v1/prices/Onion",
			fetcher:        &stubFetcher{err: fmt.Errorf("%w: refused", upstream.ErrUnavailable)},
			expectedStatus: http.StatusBadGateway,
			expectedType:   httperr.HttpUpstreamUnavailable,
		},
		{
			name:           "empty timeseries returns 404",
			path:           "/v1/prices/Unobtainium",
			fetcher:        &stubFetcher{records: nil},
			expectedStatus: http.StatusNotFound,
			expectedType:   httperr.HttpNoDataError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(tc.fetcher, cache.NewMemoryStore(time.Hour), ServiceOptions{})
			router := newTestRouter(svc)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)

			if tc.expectedType != "" {
				var body httperr.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				require.Equal(t, tc.expectedType, body.ErrorType)
			}
		})
	}
}

func TestHandleGetPrices_ResponseBody(t *testing.T) {
	svc := newTestService(&stubFetcher{records: onionRecords}, cache.NewMemoryStore(time.Hour), ServiceOptions{})
	router := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/prices/Onion?from=2025-01-01&to=2025-02-28&agg=monthly", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result market.AggregationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, "Onion", result.Commodity)
	require.Equal(t, "monthly", result.Agg)
	require.Equal(t, "2025-01-01", result.From)
	require.Equal(t, "2025-02-28", result.To)
	require.Equal(t, market.SourceLive, result.Source)
	require.Len(t, result.Timeseries, 2)
	require.Equal(t, market.PricePoint{Key: "2025-01", Avg: 25, Median: 25, Samples: 2}, result.Timeseries[0])
}

func TestHandleGetPrices_ForceQueryParam(t *testing.T) {
	fetcher := &stubFetcher{records: onionRecords}
	svc := newTestService(fetcher, cache.NewMemoryStore(time.Hour), ServiceOptions{})
	router := newTestRouter(svc)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/prices/Onion?force=true", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	require.Equal(t, 2, fetcher.callCount())
}

func TestHandleListCommodities(t *testing.T) {
	svc := newTestService(&stubFetcher{}, cache.NewMemoryStore(time.Hour), ServiceOptions{
		Commodities: []market.Commodity{
			{Name: "Onion", Category: "vegetable", Unit: "quintal"},
			{Name: "Pepper", Category: "spice"},
		},
	})
	router := newTestRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/commodities", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Commodities []market.Commodity `json:"commodities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Commodities, 2)
	require.Equal(t, "Onion", body.Commodities[0].Name)
}
