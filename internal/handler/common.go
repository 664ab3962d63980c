package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"recipeshare/internal/model"
)

// parsePagination reads ?page and ?limit with the defaults page=1 and
// limit=10, capping limit at 100.
func parsePagination(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// pagedResp builds the {total, page, pages, data} listing envelope.
func pagedResp(data []model.Recipe, total int64, page, limit int) echo.Map {
	pages := (total + int64(limit) - 1) / int64(limit)
	return echo.Map{
		"total": total,
		"page":  page,
		"pages": pages,
		"data":  data,
	}
}
