package permissions_test

import (
	"net/http"
	"roombook/permissions"
	"roombook/shared/constant"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	data, err := permissions.Get()
	require.NoError(t, err)

	for _, endpoint := range data.Endpoints {
		if !endpoint.Skip {
			assert.NotEmpty(t, endpoint.Permissions, "%s %s", endpoint.Method, endpoint.Path)
		}
	}
}

func TestFindPermissions(t *testing.T) {
	data, err := permissions.Get()
	require.NoError(t, err)

	approve := data.FindPermissions("/v1/bookings/{id}/approve", http.MethodPost)
	assert.ElementsMatch(t, []string{constant.RoleAdmin, constant.RoleSuperAdmin}, approve.Permissions)
	assert.False(t, approve.Allows(constant.RoleUser))
	assert.True(t, approve.Allows(constant.RoleAdmin))

	cancel := data.FindPermissions("/v1/bookings/{id}/cancel", http.MethodPost)
	assert.True(t, cancel.Allows(constant.RoleUser))

	assert.True(t, data.FindPermissions("/v1/auth/login", http.MethodPost).Skip)
	assert.Equal(t, permissions.Permission{}, data.FindPermissions("/v1/unknown", http.MethodGet))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "malformed", raw: `{"endpoints":`, want: "decode"},
		{name: "unknown role", raw: `{"endpoints":[{"path":"/v1/rooms/","method":"GET","permissions":["guest"]}]}`, want: "unknown role"},
		{name: "unknown method", raw: `{"endpoints":[{"path":"/v1/rooms/","method":"FETCH","permissions":["user"]}]}`, want: "unknown method"},
		{name: "duplicate", raw: `{"endpoints":[{"path":"/health","method":"GET","skip":true},{"path":"/health","method":"GET","skip":true}]}`, want: "listed twice"},
		{name: "skip with roles", raw: `{"endpoints":[{"path":"/health","method":"GET","skip":true,"permissions":["user"]}]}`, want: "skipped endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := permissions.Load([]byte(tt.raw))

			assert.ErrorContains(t, err, tt.want)
		})
	}
}
