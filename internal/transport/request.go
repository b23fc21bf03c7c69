package transport

import (
	"net/url"
	"strings"

	"github.com/nexa-labs/crosscheck/pkg/errors"
)

// Endpoint builds resource URLs for one source API from a shared base
// URL.
type Endpoint struct {
	base string
}

// NewEndpoint creates an endpoint builder rooted at base. A trailing
// slash on base is tolerated.
func NewEndpoint(base string) *Endpoint {
	return &Endpoint{base: strings.TrimRight(base, "/")}
}

// Base returns the root URL the builder was created with.
func (e *Endpoint) Base() string {
	return e.base
}

// Resource joins path segments onto the base URL.
func (e *Endpoint) Resource(parts ...string) (string, error) {
	joined, err := url.JoinPath(e.base, parts...)
	if err != nil {
		return "", errors.WrapResource("build", "endpoint", strings.Join(parts, "/"), err)
	}
	return joined, nil
}

// ResourceQuery joins path segments onto the base URL and appends the
// given query values.
func (e *Endpoint) ResourceQuery(query url.Values, parts ...string) (string, error) {
	joined, err := e.Resource(parts...)
	if err != nil {
		return "", err
	}
	if len(query) == 0 {
		return joined, nil
	}
	return joined + "?" + query.Encode(), nil
}
