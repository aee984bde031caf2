package tasks

import (
	"github.com/jeja2023/tp"
)

type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionShare  Action = "share"
	ActionManage Action = "manage"
	ActionDelete Action = "delete"
)

// rules maps every action to the permission it requires. View is always allowed.
var rules = []struct {
	action  Action
	allowed func(tp.UserPermission) bool
}{
	{ActionView, func(tp.UserPermission) bool { return true }},
	{ActionEdit, func(p tp.UserPermission) bool { return p.CanEdit || p.IsOwner }},
	{ActionShare, func(p tp.UserPermission) bool { return p.IsOwner || p.CanManage }},
	{ActionManage, func(p tp.UserPermission) bool { return p.IsOwner || p.CanManage }},
	{ActionDelete, func(p tp.UserPermission) bool { return p.IsOwner }},
}

// ActionsFor returns the actions offered on a task for the given permission, in
// display order.
func ActionsFor(p tp.UserPermission) []Action {
	actions := make([]Action, 0, len(rules))
	for _, r := range rules {
		if r.allowed(p) {
			actions = append(actions, r.action)
		}
	}
	return actions
}

// PermissionLabel is the text shown next to a shared user.
func PermissionLabel(p tp.PermissionType) string {
	switch p {
	case tp.PermissionAdmin:
		return "admin"
	case tp.PermissionEdit:
		return "edit"
	default:
		return "read-only"
	}
}
