package proxy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cuemby/orca/internal/domain"
)

// DomainID is the stable id for a domain-scoped route-list config.
func DomainID(domain string) string {
	return domain + IDSuffix
}

// normalizedPath turns a base path into the id-safe fragment used by
// URLRouteID: leading/trailing slashes stripped, inner slashes replaced
// with "-", or "*" if the result would be empty.
func normalizedPath(basePath string) string {
	trimmed := strings.Trim(basePath, "/")
	if trimmed == "" {
		return "*"
	}
	return strings.ReplaceAll(trimmed, "/", "-")
}

// URLRouteID is the stable id for a single service URL's route.
func URLRouteID(domainName, basePath string) string {
	return fmt.Sprintf("%s-%s%s", domainName, normalizedPath(basePath), IDSuffix)
}

// DeploymentURLRouteID is the stable id for a deployment-only URL's route.
func DeploymentURLRouteID(deploymentURL string) string {
	return deploymentURL + IDSuffix
}

// Route is the subset of a Caddy route JSON object this package needs to
// sort and address; full route bodies are built by BuildServiceRoute /
// BuildDeploymentRoute and travel as map[string]any so arbitrary handler
// shapes survive round trips untouched.
type Route struct {
	ID           string
	MatchPath    string // the single path pattern used for sorting, e.g. "/api/v1*"
	Body         map[string]any
}

// SortRoutes orders routes by path specificity identical to Caddy's own
// algorithm:
//  1. primary key:   -len(path without a trailing '*' and the '/' before it)
//     (longest first)
//  2. secondary key:  whether the path ends with '*'      (false before true)
//  3. tertiary key:   -len(original path)
//
// This must be reproduced exactly; otherwise wildcard routes shadow more
// specific ones. Verified against the worked example in the testable
// properties: /api/v1, /api/v1/*, /api/*, /* sorts in that exact order.
func SortRoutes(routes []Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i].MatchPath, routes[j].MatchPath

		aWildcard := strings.HasSuffix(a, "*")
		bWildcard := strings.HasSuffix(b, "*")

		aTrimmed := strings.TrimSuffix(strings.TrimSuffix(a, "*"), "/")
		bTrimmed := strings.TrimSuffix(strings.TrimSuffix(b, "*"), "/")

		if len(aTrimmed) != len(bTrimmed) {
			return len(aTrimmed) > len(bTrimmed)
		}
		if aWildcard != bWildcard {
			return !aWildcard // non-wildcard sorts first
		}
		return len(a) > len(b)
	})
}

// MatchPathForURL computes the single match-path pattern for a service URL,
// per §4.4: "/*" if base_path is "/", else "{stripTrailing(base_path)}*".
func MatchPathForURL(u domain.URL) string {
	if u.BasePath == "/" || u.BasePath == "" {
		return "/*"
	}
	return strings.TrimRight(u.BasePath, "/") + "*"
}
