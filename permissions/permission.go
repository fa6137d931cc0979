// Package permissions holds the role table checked by the RBAC middleware.
// Paths are chi route patterns, e.g. "/v1/bookings/{id}/approve".
package permissions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"roombook/shared/constant"
	"slices"

	"github.com/rs/zerolog/log"
)

//go:embed permissions.json
var permissionsData []byte

var (
	knownRoles   = []string{constant.RoleUser, constant.RoleAdmin, constant.RoleSuperAdmin}
	knownMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
)

type Permission struct {
	Permissions []string `json:"permissions"`
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	Skip        bool     `json:"skip"`
}

// Allows reports whether role may call the endpoint. An endpoint listing no
// roles is open to any authenticated caller.
func (p Permission) Allows(role string) bool {
	return p.Skip || len(p.Permissions) == 0 || slices.Contains(p.Permissions, role)
}

type PermissionData struct {
	Endpoints []Permission `json:"endpoints"`
	Skip      bool         `json:"skip"`

	index map[string]Permission
}

// FindPermissions returns the zero Permission for unlisted endpoints.
func (r *PermissionData) FindPermissions(path, method string) Permission {
	if r == nil {
		return Permission{}
	}

	return r.index[method+" "+path]
}

// Load decodes and checks a permission table.
func Load(raw []byte) (*PermissionData, error) {
	var data PermissionData

	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}

	data.index = make(map[string]Permission, len(data.Endpoints))

	for _, endpoint := range data.Endpoints {
		key := endpoint.Method + " " + endpoint.Path

		if !slices.Contains(knownMethods, endpoint.Method) {
			return nil, fmt.Errorf("permissions: %s: unknown method", key)
		}

		if _, dup := data.index[key]; dup {
			return nil, fmt.Errorf("permissions: %s: listed twice", key)
		}

		if endpoint.Skip && len(endpoint.Permissions) > 0 {
			return nil, fmt.Errorf("permissions: %s: skipped endpoint lists roles", key)
		}

		for _, role := range endpoint.Permissions {
			if !slices.Contains(knownRoles, role) {
				return nil, fmt.Errorf("permissions: %s: unknown role %q", key, role)
			}
		}

		data.index[key] = endpoint
	}

	return &data, nil
}

// Get loads the embedded permissions.json.
func Get() (*PermissionData, error) {
	data, err := Load(permissionsData)
	if err != nil {
		return nil, err
	}

	log.Info().Int("endpoints", len(data.Endpoints)).Msg("Successfully loaded embedded permissions")

	return data, nil
}
