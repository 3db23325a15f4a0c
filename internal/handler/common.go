package handler // handler defines http handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// The JWT middleware stores the claim as whatever type the token parser
// produced, so several representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseDate parses a calendar date in YYYY-MM-DD form.
func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

// pageParams reads page/per_page query parameters with defaults and a cap.
func pageParams(c echo.Context, defPerPage int) (page, perPage int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.QueryParam("per_page"))
	if perPage < 1 {
		perPage = defPerPage
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

// paginated builds the pagination envelope the web client consumes:
// {data, current_page, last_page, per_page, total, from, to}.
func paginated(data any, count int, total int64, page, perPage int) echo.Map {
	lastPage := (total + int64(perPage) - 1) / int64(perPage)
	if lastPage < 1 {
		lastPage = 1
	}
	var from, to any
	if count > 0 {
		f := (page-1)*perPage + 1
		from = f
		to = f + count - 1
	}
	return echo.Map{
		"data":         data,
		"current_page": page,
		"last_page":    lastPage,
		"per_page":     perPage,
		"total":        total,
		"from":         from,
		"to":           to,
	}
}
