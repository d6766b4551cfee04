package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cinema/internal/catalog"
	"cinema/internal/logging"
	"cinema/internal/pool"
)

// Catalog is the read surface of one domain store.
type Catalog interface {
	ListPage(ctx context.Context, q catalog.PageQuery) ([]catalog.Record, error)
	Search(ctx context.Context, pattern string) ([]catalog.Record, error)
	Detail(ctx context.Context, id int64) (*catalog.Record, error)
	DistinctValues(ctx context.Context, field catalog.Field) ([]string, error)
	PoolStats() pool.Stats
}

type handlers struct {
	domain  catalog.Domain
	catalog Catalog
	logger  *slog.Logger
}

func (h *handlers) register(group *gin.RouterGroup) {
	group.Use(func(c *gin.Context) {
		ctx := logging.WithDomain(c.Request.Context(), string(h.domain))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	group.GET("/list", h.list)
	group.GET("/search", h.search)
	group.GET("/detail/:id", h.detail)
	group.GET("/areas", h.facet(catalog.FieldArea))
	group.GET("/categories", h.facet(catalog.FieldCategory))
	group.GET("/languages", h.facet(catalog.FieldLanguage))
}

func (h *handlers) list(c *gin.Context) {
	page, err := intParam(c, "page", 1)
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	perPage, err := intParam(c, "count", catalog.DefaultPerPage)
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	records, err := h.catalog.ListPage(c.Request.Context(), catalog.PageQuery{
		Page:      page,
		PerPage:   perPage,
		SortBy:    c.DefaultQuery("sort_by", catalog.SortByTime),
		SortOrder: c.DefaultQuery("sort_order", catalog.SortDesc),
		Area:      strings.TrimSpace(c.Query("area")),
		Category:  strings.TrimSpace(c.Query("category")),
	})
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	respondOK(c, records)
}

func (h *handlers) search(c *gin.Context) {
	records, err := h.catalog.Search(c.Request.Context(), c.Query("name"))
	if err != nil {
		h.fail(c, "search", err)
		return
	}
	respondOK(c, records)
}

func (h *handlers) detail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.fail(c, "detail", fmt.Errorf("%w: id must be a positive integer", errBadRequest))
		return
	}
	record, err := h.catalog.Detail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "detail", err)
		return
	}
	respondOK(c, record)
}

func (h *handlers) facet(field catalog.Field) gin.HandlerFunc {
	return func(c *gin.Context) {
		values, err := h.catalog.DistinctValues(c.Request.Context(), field)
		if err != nil {
			h.fail(c, "distinct "+string(field), err)
			return
		}
		respondOK(c, values)
	}
}

func intParam(c *gin.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return value, nil
}

// HealthResponse reports per-domain pool occupancy.
type HealthResponse struct {
	Status string                `json:"status"`
	Pools  map[string]pool.Stats `json:"pools"`
}

func healthcheck(catalogs map[catalog.Domain]Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := HealthResponse{Status: "ok", Pools: make(map[string]pool.Stats, len(catalogs))}
		status := http.StatusOK
		for domain, cat := range catalogs {
			stats := cat.PoolStats()
			resp.Pools[string(domain)] = stats
			if stats.Closed {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		c.JSON(status, resp)
	}
}
