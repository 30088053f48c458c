package leave

import (
	"github.com/frahmantamala/leave-management/internal"
)

// ApprovalContext carries what a resolver may inspect when deciding
// whether an actor can act on an application at a given step.
type ApprovalContext struct {
	Application       *Application
	EmployeeManagerID *int64
}

// ApproverResolver decides who may approve which step. Injected into the
// workflow so deployments can swap the role mapping without touching the
// state machine.
type ApproverResolver interface {
	CanApprove(actor internal.Actor, step int, appCtx ApprovalContext) bool
}

// RoleApproverResolver is the default mapping: the employee's direct
// manager handles the first step, HR and super admins handle any step.
type RoleApproverResolver struct{}

func (RoleApproverResolver) CanApprove(actor internal.Actor, step int, appCtx ApprovalContext) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.Role != internal.RoleManager || step != 1 {
		return false
	}
	return appCtx.EmployeeManagerID != nil && *appCtx.EmployeeManagerID == actor.EmployeeID
}
