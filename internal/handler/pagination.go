package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
)

const maxFilterLength = 200

var errInvalidPage = errors.New("page must be a number")

// ParsePage reads the {page} path parameter. Negative pages parse fine and
// are rejected by the list as out of range.
func ParsePage(r *http.Request) (int, error) {
	page, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "page")))
	if err != nil {
		return 0, errInvalidPage
	}
	return page, nil
}

// ParseFilters reads the filter values of resource from a JSON object or
// from form values. Unknown keys are ignored; missing keys mean "all".
func ParseFilters(r *http.Request, resource model.Resource) (model.FilterState, map[string]string) {
	keys := resource.FilterKeys()
	filters := make(model.FilterState, len(keys))
	details := make(map[string]string)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			details["body"] = "must be a JSON object"
			return nil, details
		}
		for _, key := range keys {
			v, ok := raw[key]
			if !ok {
				continue
			}
			s, err := filterString(v)
			if err != nil {
				details[key] = err.Error()
				continue
			}
			filters[key] = s
		}
	} else {
		if err := r.ParseForm(); err != nil {
			details["body"] = "invalid form data"
			return nil, details
		}
		for _, key := range keys {
			if _, ok := r.Form[key]; ok {
				filters[key] = r.Form.Get(key)
			}
		}
	}

	for key, value := range filters {
		value = strings.TrimSpace(value)
		if len(value) > maxFilterLength {
			details[key] = fmt.Sprintf("%s must be %d characters or less", key, maxFilterLength)
		}
		filters[key] = value
	}
	if len(details) > 0 {
		return nil, details
	}
	return filters, nil
}

// filterString accepts the scalar JSON values a filter form can produce
func filterString(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	}
	return "", errors.New("must be a string or number")
}
