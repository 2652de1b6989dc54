package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-creative-marketplace/internal/domain"
)

// ListIndustries godoc
// @ID          listIndustries
// @Summary     List industries
// @Description Lists industries; search matches industry and sub category names.
// @Tags        Catalog
// @Produce     json
// @Param       search  query     string  false  "Case-insensitive substring"
// @Success     200     {array}   domain.IndustryCategory
// @Failure     500     {object}  handlers.ErrorResponse  "Internal error"
// @Router      /industries [get]
func (h *Handlers) ListIndustries(c *gin.Context) {
	items, err := h.catalog.Industries(c.Request.Context(), c.Query("search"))
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.IndustryCategory{}
	}
	ok(c, http.StatusOK, items)
}

// ListSubCategories godoc
// @ID          listSubCategories
// @Summary     List sub categories
// @Tags        Catalog
// @Produce     json
// @Param       industry_id  query     int     false  "Industry filter"
// @Param       search       query     string  false  "Case-insensitive substring"
// @Success     200          {array}   domain.SubCategory
// @Failure     400          {object}  handlers.ErrorResponse  "Bad filter"
// @Router      /subcategories [get]
func (h *Handlers) ListSubCategories(c *gin.Context) {
	industryID, valid := queryID(c, "industry_id")
	if !valid {
		return
	}
	items, err := h.catalog.SubCategories(c.Request.Context(), industryID, c.Query("search"))
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.SubCategory{}
	}
	ok(c, http.StatusOK, items)
}
