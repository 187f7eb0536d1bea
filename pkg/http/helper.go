package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"rentals/pkg/config"
	apperrors "rentals/pkg/errors"
	"rentals/pkg/model"
)

const (
	QueryStartDate = "startDate"
	QueryEndDate   = "endDate"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset), nil
}

// ExtractDateRange reads the startDate/endDate query parameters.
func ExtractDateRange(r *http.Request) (model.DateRange, error) {
	query := r.URL.Query()
	start, end := query.Get(QueryStartDate), query.Get(QueryEndDate)
	if start == "" || end == "" {
		return model.DateRange{}, apperrors.InvalidRange("both 'startDate' and 'endDate' query parameters are required")
	}
	return ParseDateRange(start, end)
}

// ParseDateRange turns a pair of YYYY-MM-DD strings into a DateRange,
// reporting any problem as an INVALID_RANGE error.
func ParseDateRange(start, end string) (model.DateRange, error) {
	rng, err := model.ParseDateRange(start, end)
	if err != nil {
		return model.DateRange{}, apperrors.InvalidRange(err.Error())
	}
	return rng, nil
}

func DecodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return apperrors.InvalidInput("Request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidInput("Request body is required")
		}
		return apperrors.InvalidInput("Invalid request body")
	}
	return nil
}
