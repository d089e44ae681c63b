package proxy

import (
	"context"
	"errors"
	"fmt"
)

// domainConfig is the minimal typed shape of a domain's config node, used
// only to check whether the node exists. Route bodies are read and written
// as map[string]any (Route.Body), so their unknown fields are preserved.
type domainConfig struct {
	ID     string           `json:"@id"`
	Handle []domainHandle   `json:"handle"`
}

type domainHandle struct {
	Handler string           `json:"handler"`
	Routes  []map[string]any `json:"routes"`
}

// EnsureDomain runs the expose protocol's first step: GET the domain
// config; if absent, PUT a bare config with an empty route list appended
// under the url-root anchor.
func (c *Client) EnsureDomain(ctx context.Context, domainName string) error {
	var cfg domainConfig
	err := c.Get(ctx, "/id/"+DomainID(domainName), &cfg)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	bare := map[string]any{
		"@id":    DomainID(domainName),
		"match":  []map[string]any{{"host": []string{domainName}}},
		"handle": []map[string]any{{"handler": "subroute", "routes": []map[string]any{}}},
	}
	return c.Put(ctx, fmt.Sprintf("/id/%s/routes/0", URLRootID), bare)
}

// UpsertRoute runs the expose protocol's second step: GET the domain's
// routes, drop any entry whose @id matches route.ID, append route, sort,
// and PATCH the result back. Idempotent: running this twice for the same
// route yields an identical, still-sorted array. The GET and the PATCH are
// not serialized, so two concurrent writers on the same domain can lose one
// of their updates.
func (c *Client) UpsertRoute(ctx context.Context, domainName string, route Route) error {
	if err := c.EnsureDomain(ctx, domainName); err != nil {
		return err
	}

	var raw []map[string]any
	if err := c.Get(ctx, fmt.Sprintf("/id/%s/handle/0/routes", DomainID(domainName)), &raw); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	routes := decodeRoutes(raw)
	routes = removeRouteByID(routes, route.ID)
	routes = append(routes, route)
	SortRoutes(routes)

	return c.Patch(ctx, fmt.Sprintf("/id/%s/handle/0/routes", DomainID(domainName)), encodeRoutes(routes))
}

// RemoveRoute runs the unexpose protocol for a single service URL route:
// GET the domain's routes; if 404, nothing to do; else remove the entry by
// id. If the remaining list is empty the whole domain config is deleted,
// otherwise only the one route is deleted. A 404 on that delete is
// swallowed, so removing an already-removed route is a no-op.
func (c *Client) RemoveRoute(ctx context.Context, domainName, routeID string) error {
	var raw []map[string]any
	err := c.Get(ctx, fmt.Sprintf("/id/%s/handle/0/routes", DomainID(domainName)), &raw)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	routes := decodeRoutes(raw)
	remaining := removeRouteByID(routes, routeID)

	if len(remaining) == 0 {
		err = c.Delete(ctx, "/id/"+DomainID(domainName))
	} else {
		err = c.Delete(ctx, "/id/"+routeID)
	}
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// RemoveDeploymentURL deletes a single deployment URL route by id. 404 is
// swallowed: the unexpose protocol treats "already absent" as success.
func (c *Client) RemoveDeploymentURL(ctx context.Context, deploymentURL string) error {
	err := c.Delete(ctx, "/id/"+DeploymentURLRouteID(deploymentURL))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func decodeRoutes(raw []map[string]any) []Route {
	routes := make([]Route, 0, len(raw))
	for _, r := range raw {
		id, _ := r["@id"].(string)
		matchPath := matchPathFromBody(r)
		routes = append(routes, Route{ID: id, MatchPath: matchPath, Body: r})
	}
	return routes
}

func encodeRoutes(routes []Route) []map[string]any {
	out := make([]map[string]any, 0, len(routes))
	for _, r := range routes {
		out = append(out, r.Body)
	}
	return out
}

func removeRouteByID(routes []Route, id string) []Route {
	out := routes[:0]
	for _, r := range routes {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

// matchPathFromBody extracts the first match path out of a raw route body,
// used when re-sorting routes fetched back from the proxy (which only
// carry the JSON body, not our typed MatchPath).
func matchPathFromBody(body map[string]any) string {
	matchList, _ := body["match"].([]any)
	if len(matchList) == 0 {
		return ""
	}
	first, _ := matchList[0].(map[string]any)
	paths, _ := first["path"].([]any)
	if len(paths) == 0 {
		return ""
	}
	p, _ := paths[0].(string)
	return p
}
