package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"reservatec/pkg/config"
	apperrors "reservatec/pkg/errors"
)

const (
	HeaderRequesterID   = "X-Requester-ID"
	HeaderCorrelationID = "X-Correlation-ID"

	maxBodyBytes = 1 << 20
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

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// RequesterID returns the caller identity header. Missing identity is an
// invalid request, not an authorization failure.
func RequesterID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderRequesterID))
	if id == "" {
		return "", apperrors.InvalidInput(HeaderRequesterID + " header is required")
	}
	return id, nil
}

// BoolQuery parses an optional boolean query parameter.
func BoolQuery(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, nil
}

// DecodeJSON reads a single JSON object from the request body, rejecting
// unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
	return nil
}
