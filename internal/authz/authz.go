// Package authz makes per-operation access decisions for file records.
// It is a pure function over the principal and the record: authentication
// happens at the HTTP boundary, anonymous share-link access only ever goes
// through the share resolver and never reaches these checks with a direct id.
package authz

import (
	"github.com/mycloudhq/mycloud/internal/model"
)

// Action is one capability on a file record.
type Action int

const (
	ActionRead Action = iota
	ActionMutate
	ActionDelete
	ActionDownload
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionMutate:
		return "mutate"
	case ActionDelete:
		return "delete"
	case ActionDownload:
		return "download"
	}
	return "unknown"
}

// Allowed reports whether principal may perform action on file.
// Owners and admins get the full capability set; everyone else is denied,
// including read of existence. A nil principal (anonymous) is always denied:
// anonymous download rights come from resolving a share token, not from here.
func Allowed(principal *model.User, file *model.File, action Action) bool {
	if principal == nil || file == nil {
		return false
	}
	if principal.IsAdmin {
		return true
	}
	return file.OwnerID == principal.ID
}
