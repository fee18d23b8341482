package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Domenick1991/travelagent/internal/service/destinations"
	"github.com/gin-gonic/gin"
)

type DestinationHandler struct {
	service destinations.DestinationUseCase
}

func NewDestinationHandler(service destinations.DestinationUseCase) *DestinationHandler {
	return &DestinationHandler{service: service}
}

func (h *DestinationHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.search)
	router.GET("/featured", h.featured)
	router.GET("/popular", h.popular)
	router.GET("/country/:country", h.byCountry)
	router.GET("/:idOrSlug", h.get)
}

func (h *DestinationHandler) search(c *gin.Context) {
	var params destinations.SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "query", err.Error())
		return
	}
	params.Types = splitTypes(params.Types)

	page, err := h.service.SearchDestinations(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// splitTypes accepts both ?types=a&types=b and ?types=a,b.
func splitTypes(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

func (h *DestinationHandler) featured(c *gin.Context) {
	list, err := h.service.GetFeaturedDestinations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"destinations": list})
}

func (h *DestinationHandler) popular(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "limit", "must be an integer")
			return
		}
		limit = n
	}

	list, err := h.service.GetPopularDestinations(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"destinations": list})
}

func (h *DestinationHandler) byCountry(c *gin.Context) {
	list, err := h.service.GetDestinationsByCountry(c.Request.Context(), c.Param("country"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"destinations": list})
}

func (h *DestinationHandler) get(c *gin.Context) {
	d, err := h.service.GetDestination(c.Request.Context(), c.Param("idOrSlug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
