package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseBoolParam accepts strconv.ParseBool spellings; missing means false.
func parseBoolParam(r *http.Request, name string) (bool, error) {
	val := strings.TrimSpace(r.URL.Query().Get(name))
	if val == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", name, val)
	}
	return b, nil
}

// parseFloatParam reads a required float query parameter.
func parseFloatParam(r *http.Request, name string) (float64, error) {
	val := strings.TrimSpace(r.URL.Query().Get(name))
	if val == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, val)
	}
	return f, nil
}
