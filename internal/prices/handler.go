package prices

import (
	"errors"
	"net/http"
	"time"

	httperr "github.com/agromandi-lab/agromandi/internal/core/errors"
	"github.com/agromandi-lab/agromandi/internal/upstream"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the price API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/prices/:commodity", s.HandleGetPrices)
	r.GET("/v1/commodities", s.HandleListCommodities)
}

// HandleGetPrices handles GET /v1/prices/:commodity
// Query parameters: from, to (YYYY-MM-DD), agg (daily|monthly|yearly), force.
func (s *Service) HandleGetPrices(c *gin.Context) {
	var uri struct {
		Commodity string `uri:"commodity" binding:"required"`
	}
	var query struct {
		From  string `form:"from"`
		To    string `form:"to"`
		Agg   string `form:"agg"`
		Force bool   `form:"force"`
	}

	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	from, err := parseBound(query.From)
	if err != nil {
		writeInvalidDate(c, "from", query.From)
		return
	}
	to, err := parseBound(query.To)
	if err != nil {
		writeInvalidDate(c, "to", query.To)
		return
	}

	result, err := s.FetchAndAggregate(c.Request.Context(), Query{
		Commodity: uri.Commodity,
		From:      from,
		To:        to,
		Agg:       query.Agg,
		Force:     query.Force,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuery):
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidQueryError,
				Message:   "Invalid price query",
				Details:   err.Error(),
			})
		case errors.Is(err, upstream.ErrUnavailable):
			c.JSON(http.StatusBadGateway, httperr.ErrorResponse{
				ErrorType: httperr.HttpUpstreamUnavailable,
				Message:   "Upstream price API unavailable",
				Details:   err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
				ErrorType: httperr.HttpInternalError,
				Message:   "Failed to aggregate prices",
				Details:   err.Error(),
			})
		}
		return
	}

	// A well-formed but empty timeseries maps to 404 for the UI's benefit.
	if len(result.Timeseries) == 0 {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNoDataError,
			Message:   "No price data found for " + result.Commodity,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleListCommodities handles GET /v1/commodities.
func (s *Service) HandleListCommodities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"commodities": s.Commodities()})
}

func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func writeInvalidDate(c *gin.Context, field, value string) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidQueryError,
		Message:   "Invalid " + field + " date (expected YYYY-MM-DD)",
		Details:   value,
	})
}
