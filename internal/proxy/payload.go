package proxy

import (
	"fmt"

	"github.com/cuemby/orca/internal/domain"
)

// BlueGreenHashes carries the current and previous (slot, hash) pairs so
// both colors can be present in log_append fields whenever two deployments
// of a service exist at once.
type BlueGreenHashes struct {
	CurrentSlot  domain.Slot
	CurrentHash  string
	PreviousSlot domain.Slot
	PreviousHash string
}

func (h BlueGreenHashes) blueGreen() (blue, green string) {
	switch h.CurrentSlot {
	case domain.SlotBlue:
		blue, green = h.CurrentHash, h.PreviousHash
	case domain.SlotGreen:
		blue, green = h.PreviousHash, h.CurrentHash
	}
	return blue, green
}

// BuildServiceRoute builds the route payload for a service URL per §4.4:
// log_append prologue, optional strip_path_prefix, terminal reverse_proxy
// (or redirect handler) with passive health checks and two blue/green
// upstreams.
func BuildServiceRoute(u domain.URL, serviceID, internalDomain, networkAlias string, hashes BlueGreenHashes) Route {
	matchPath := MatchPathForURL(u)
	id := URLRouteID(u.Domain, u.BasePath)

	blue, green := hashes.blueGreen()

	handlers := []map[string]any{
		{"handler": "log_append", "key": "zane_service_id", "value": serviceID},
		{"handler": "log_append", "key": "zane_deployment_blue_hash", "value": blue},
		{"handler": "log_append", "key": "zane_deployment_green_hash", "value": green},
		{"handler": "log_append", "key": "zane_deployment_upstream", "value": networkAlias},
	}

	if u.StripPrefix {
		handlers = append(handlers, map[string]any{
			"handler":          "rewrite",
			"strip_path_prefix": u.BasePath,
		})
	}

	if u.RedirectTo != "" {
		status := "302"
		if u.RedirectPermanent {
			status = "301"
		}
		handlers = append(handlers, map[string]any{
			"handler":     "static_response",
			"status_code": status,
			"headers": map[string]any{
				"Location": []string{u.RedirectTo},
			},
		})
	} else {
		forwardedPort := u.AssociatedPort
		handlers = append(handlers, map[string]any{
			"handler": "reverse_proxy",
			"health_checks": map[string]any{
				"passive": map[string]any{"fail_duration": "30s"},
			},
			"load_balancing": map[string]any{
				"retries":          3,
				"selection_policy": map[string]any{"policy": "first"},
			},
			"upstreams": []map[string]any{
				{"dial": fmt.Sprintf("%s.blue.%s:%d", networkAlias, internalDomain, forwardedPort)},
				{"dial": fmt.Sprintf("%s.green.%s:%d", networkAlias, internalDomain, forwardedPort)},
			},
		})
	}

	body := map[string]any{
		"@id":     id,
		"match":   []map[string]any{{"path": []string{matchPath}}},
		"handle":  handlers,
		"terminal": true,
	}

	return Route{ID: id, MatchPath: matchPath, Body: body}
}

// BuildDeploymentRoute builds the two-stage auth-then-proxy route for a
// deployment-only URL per §4.4: a first reverse_proxy to the internal auth
// endpoint with X-Forwarded-Method/X-Forwarded-Uri, gated by a
// handle_response matcher on 2xx, forwarding on to the deployment's swarm
// service.
func BuildDeploymentRoute(deploymentURL, authEndpoint, swarmServiceName string, forwardedPort int) Route {
	id := DeploymentURLRouteID(deploymentURL)
	matchPath := "/*"

	body := map[string]any{
		"@id": id,
		"match": []map[string]any{
			{"host": []string{deploymentURL}},
		},
		"handle": []map[string]any{
			{
				"handler": "reverse_proxy",
				"rewrite": map[string]any{"method": "GET", "uri": "/api/auth/me/with-token"},
				"headers": map[string]any{
					"request": map[string]any{
						"set": map[string]any{
							"X-Forwarded-Method": []string{"{http.request.method}"},
							"X-Forwarded-Uri":    []string{"{http.request.uri}"},
						},
					},
				},
				"upstreams":        []map[string]any{{"dial": authEndpoint}},
				"handle_response": []map[string]any{
					{
						"match": map[string]any{"status_code": []int{2}},
						"routes": []map[string]any{
							{
								"handle": []map[string]any{
									{
										"handler":   "reverse_proxy",
										"upstreams": []map[string]any{{"dial": fmt.Sprintf("%s:%d", swarmServiceName, forwardedPort)}},
									},
								},
							},
						},
					},
				},
			},
		},
		"terminal": true,
	}

	return Route{ID: id, MatchPath: matchPath, Body: body}
}
