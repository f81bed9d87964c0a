package http

import (
	"strings"
)

// urlBuilder turns endpoint paths into absolute URLs under one base.
type urlBuilder struct {
	origin    string
	apiPrefix string
}

func newURLBuilder(baseURL, apiVersion string) urlBuilder {
	prefix := "/api/v" + apiVersion
	origin := strings.TrimRight(baseURL, "/")
	origin = strings.TrimSuffix(origin, prefix)

	return urlBuilder{origin: origin, apiPrefix: prefix}
}

// apiURL is the base every relative path is joined to.
func (b urlBuilder) apiURL() string {
	return b.origin + b.apiPrefix
}

// build returns absolute http(s) URLs unchanged and prefixes everything
// else with the API base. A path that already carries the API prefix is
// joined to the origin only.
func (b urlBuilder) build(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if path == b.apiPrefix || strings.HasPrefix(path, b.apiPrefix+"/") {
		return b.origin + path
	}

	return b.apiURL() + path
}
