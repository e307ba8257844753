package request

import "demandflow/identity"

// Visibility and editability rules are deliberately pure functions of
// (actor, request) so they can be tested without storage and so no ambient
// session state can leak into the decision.

// Visible reports whether the actor may see the request. Admins see
// everything; non-confidential requests are visible to everyone; a
// confidential request is additionally visible to its submitting sales
// user and its assigned researcher.
func Visible(actor identity.User, req Request) bool {
	if actor.Role == identity.RoleAdmin {
		return true
	}
	if !req.IsConfidential {
		return true
	}
	return actor.ID == req.SalesID || actor.ID == req.ResearcherID
}

// CanUpdateStatus reports whether the actor may change the workflow state.
// Only the currently assigned researcher may.
func CanUpdateStatus(actor identity.User, req Request) bool {
	return actor.Role == identity.RoleResearcher && actor.ID == req.ResearcherID
}

// CanReassign reports whether the actor may move a request to another
// researcher.
func CanReassign(actor identity.User) bool {
	return actor.Role == identity.RoleAdmin
}

// CanToggleConfidential reports whether the actor may flip the
// confidentiality flag.
func CanToggleConfidential(actor identity.User) bool {
	return actor.Role == identity.RoleAdmin
}
