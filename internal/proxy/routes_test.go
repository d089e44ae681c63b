package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/orca/internal/domain"
)

func TestSortRoutes_CaddySpecificityOrder(t *testing.T) {
	routes := []Route{
		{ID: "root", MatchPath: "/*"},
		{ID: "api-wild", MatchPath: "/api/*"},
		{ID: "api-v1", MatchPath: "/api/v1"},
		{ID: "api-v1-wild", MatchPath: "/api/v1/*"},
	}

	SortRoutes(routes)

	got := make([]string, len(routes))
	for i, r := range routes {
		got[i] = r.ID
	}
	assert.Equal(t, []string{"api-v1", "api-v1-wild", "api-wild", "root"}, got)
}

func TestSortRoutes_StableOnTies(t *testing.T) {
	routes := []Route{
		{ID: "first", MatchPath: "/a*"},
		{ID: "second", MatchPath: "/b*"},
	}
	SortRoutes(routes)
	require.Len(t, routes, 2)
	assert.Equal(t, "first", routes[0].ID)
}

func TestNormalizedPath(t *testing.T) {
	cases := map[string]string{
		"/":            "*",
		"":             "*",
		"/api":         "api",
		"/api/v1":      "api-v1",
		"/api/v1/":     "api-v1",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizedPath(in), "input=%q", in)
	}
}

func TestMatchPathForURL(t *testing.T) {
	assert.Equal(t, "/*", MatchPathForURL(domain.URL{BasePath: "/"}))
	assert.Equal(t, "/api/v1*", MatchPathForURL(domain.URL{BasePath: "/api/v1"}))
	assert.Equal(t, "/api/v1*", MatchPathForURL(domain.URL{BasePath: "/api/v1/"}))
}
