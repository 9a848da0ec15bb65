package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mycloudhq/mycloud/internal/model"
)

func TestAllowed(t *testing.T) {
	owner := &model.User{ID: "u1"}
	admin := &model.User{ID: "u2", IsAdmin: true}
	other := &model.User{ID: "u3"}
	file := &model.File{ID: "f1", OwnerID: "u1"}

	actions := []Action{ActionRead, ActionMutate, ActionDelete, ActionDownload}

	tests := []struct {
		name      string
		principal *model.User
		want      bool
	}{
		{"owner", owner, true},
		{"admin", admin, true},
		{"other user", other, false},
		{"anonymous", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, action := range actions {
				assert.Equal(t, tt.want, Allowed(tt.principal, file, action),
					"action %s", action)
			}
		})
	}
}

func TestAllowedNilFile(t *testing.T) {
	admin := &model.User{ID: "u1", IsAdmin: true}
	assert.False(t, Allowed(admin, nil, ActionRead))
}
