package marketplace

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/fixhub/internal/pricing"
)

// ServiceListing is a catalog entry with its estimated price range.
type ServiceListing struct {
	pricing.Service
	EstimateLow  pricing.Cents      `json:"estimate_low"`
	EstimateHigh pricing.Cents      `json:"estimate_high"`
	DefaultParts []pricing.LineItem `json:"default_parts"`
}

// Listings returns the catalog, optionally narrowed to one trade.
func Listings(trade pricing.Trade) []ServiceListing {
	var out []ServiceListing
	for _, s := range pricing.Catalog() {
		if trade != "" && s.Trade != trade {
			continue
		}
		low, high := pricing.EstimateRange(s)
		out = append(out, ServiceListing{
			Service:      s,
			EstimateLow:  low,
			EstimateHigh: high,
			DefaultParts: pricing.DefaultParts(s.ID),
		})
	}
	return out
}

// GetAllServices returns the seeded service catalog.
func GetAllServices(c echo.Context) error {
	trade := pricing.Trade(c.QueryParam("trade"))
	if trade != "" && !pricing.ValidTrade(trade) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown trade"})
	}
	return c.JSON(http.StatusOK, echo.Map{"services": Listings(trade)})
}

// GET /services/:id
func GetService(c echo.Context) error {
	s, ok := pricing.ServiceByID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	low, high := pricing.EstimateRange(s)
	return c.JSON(http.StatusOK, ServiceListing{
		Service:      s,
		EstimateLow:  low,
		EstimateHigh: high,
		DefaultParts: pricing.DefaultParts(s.ID),
	})
}
