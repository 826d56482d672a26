package routing

import (
	"time"

	"campus-aid-buddy/internal/core/domain"
)

var (
	allStaffActions = []domain.TicketStatus{
		domain.StatusInProgress, domain.StatusResolved, domain.StatusEscalated, domain.StatusRejected,
	}
)

// AvailableActions lists the statuses role may move a ticket to from
// current. The current status is never offered.
func AvailableActions(role domain.Role, current domain.TicketStatus) []domain.TicketStatus {
	var next []domain.TicketStatus

	switch role {
	case domain.RoleTutor, domain.RoleTeachingStaff:
		switch current {
		case domain.StatusPending:
			next = []domain.TicketStatus{domain.StatusInProgress, domain.StatusEscalated}
		case domain.StatusInProgress:
			next = []domain.TicketStatus{domain.StatusResolved, domain.StatusEscalated}
		}
	case domain.RoleDepartmentStaff:
		switch current {
		case domain.StatusPending:
			next = []domain.TicketStatus{domain.StatusInProgress}
		case domain.StatusInProgress:
			next = []domain.TicketStatus{domain.StatusResolved, domain.StatusEscalated}
		}
	case domain.RoleHOD, domain.RoleAdmin:
		next = allStaffActions
	case domain.RoleMaintenance, domain.RoleSecurityStaff, domain.RoleHostelWarden,
		domain.RoleTransportOfficer, domain.RoleLabAssistant, domain.RoleSupportingStaff:
		switch current {
		case domain.StatusPending:
			next = []domain.TicketStatus{domain.StatusInProgress}
		case domain.StatusInProgress:
			next = []domain.TicketStatus{domain.StatusResolved}
		}
	case domain.RoleStudent:
	}

	out := make([]domain.TicketStatus, 0, len(next))
	for _, s := range next {
		if s != current {
			out = append(out, s)
		}
	}
	return out
}

// CanTransition reports whether role is offered newStatus from current.
func CanTransition(role domain.Role, current, newStatus domain.TicketStatus) bool {
	for _, s := range AvailableActions(role, current) {
		if s == newStatus {
			return true
		}
	}
	return false
}

// Viewer is the subset of a user needed for visibility checks
type Viewer struct {
	ID         string
	Role       domain.Role
	Department string
}

// Viewable is the subset of a ticket needed for visibility checks
type Viewable struct {
	SubmitterID string
	Category    domain.TicketCategory
	Department  string
}

// CanViewTicket reports whether v may see t. Submitters always see their
// own tickets.
func CanViewTicket(v Viewer, t Viewable) bool {
	if v.ID != "" && v.ID == t.SubmitterID {
		return true
	}

	switch v.Role {
	case domain.RoleAdmin, domain.RoleHOD:
		return true
	case domain.RoleDepartmentStaff:
		return v.Department != "" && t.Department == v.Department
	case domain.RoleTutor, domain.RoleTeachingStaff:
		return t.Category == domain.CategoryAcademicQuery
	case domain.RoleHostelWarden:
		return t.Category == domain.CategoryHostelIssue
	case domain.RoleMaintenance:
		return t.Category == domain.CategoryFacilityIssue || t.Category == domain.CategoryMaintenance
	case domain.RoleSecurityStaff:
		return t.Category == domain.CategorySecurityIssue
	case domain.RoleTransportOfficer:
		return t.Category == domain.CategoryTransportIssue
	case domain.RoleStudent, domain.RoleLabAssistant, domain.RoleSupportingStaff:
		return false
	}
	return false
}

// Rule is the per-category routing rule: owning department label, the role
// a new ticket is assigned to and how long before it is overdue.
type Rule struct {
	Category        domain.TicketCategory `json:"category"`
	Department      string                `json:"department"`
	AssignedRole    domain.Role           `json:"assigned_role"`
	Priority        domain.Priority       `json:"priority,omitempty"`
	EscalationHours int                   `json:"escalation_hours"`
}

const defaultEscalationHours = 24

// RuleFor returns the routing rule for c. Unknown categories use the rule
// for other.
func RuleFor(c domain.TicketCategory) Rule {
	switch c {
	case domain.CategoryAcademicQuery:
		return Rule{c, "Academic", domain.RoleTutor, "", 24}
	case domain.CategoryFacilityIssue:
		return Rule{c, "Maintenance", domain.RoleMaintenance, "", 4}
	case domain.CategoryHostelIssue:
		return Rule{c, "Hostel", domain.RoleHostelWarden, "", 2}
	case domain.CategoryTransportIssue:
		return Rule{c, "Transport", domain.RoleTransportOfficer, "", 8}
	case domain.CategorySecurityIssue:
		return Rule{c, "Security", domain.RoleSecurityStaff, domain.PriorityUrgent, 1}
	case domain.CategoryMaintenance:
		return Rule{c, "Maintenance", domain.RoleMaintenance, "", 6}
	case domain.CategoryServiceRequest:
		return Rule{c, "Administration", domain.RoleDepartmentStaff, "", 48}
	case domain.CategoryComplaint:
		return Rule{c, "Administration", domain.RoleDepartmentStaff, "", 24}
	case domain.CategoryOther:
		return Rule{c, "Administration", domain.RoleDepartmentStaff, "", 48}
	}
	r := RuleFor(domain.CategoryOther)
	r.Category = c
	return r
}

// RuleForUser is RuleFor with academic queries routed to the submitter's
// own department when one is known.
func RuleForUser(c domain.TicketCategory, userDepartment string) Rule {
	r := RuleFor(c)
	if c == domain.CategoryAcademicQuery && userDepartment != "" {
		r.Department = userDepartment
	}
	return r
}

// ShouldEscalate reports whether a ticket created at createdAt is past its
// category's escalation window at now.
func ShouldEscalate(createdAt time.Time, c domain.TicketCategory, now time.Time) bool {
	hours := RuleFor(c).EscalationHours
	if hours <= 0 {
		hours = defaultEscalationHours
	}
	return now.Sub(createdAt).Hours() > float64(hours)
}

// EscalationPath returns the role a ticket held by role escalates to.
func EscalationPath(role domain.Role) domain.Role {
	switch role {
	case domain.RoleTutor:
		return domain.RoleTeachingStaff
	case domain.RoleTeachingStaff, domain.RoleDepartmentStaff, domain.RoleLabAssistant:
		return domain.RoleHOD
	case domain.RoleMaintenance, domain.RoleSecurityStaff, domain.RoleTransportOfficer,
		domain.RoleHostelWarden, domain.RoleSupportingStaff, domain.RoleHOD, domain.RoleAdmin:
		return domain.RoleAdmin
	case domain.RoleStudent:
		return domain.RoleTutor
	}
	return domain.RoleAdmin
}

// PriorityByCategory is the default priority suggested for a category.
func PriorityByCategory(c domain.TicketCategory) domain.Priority {
	switch c {
	case domain.CategorySecurityIssue:
		return domain.PriorityUrgent
	case domain.CategoryFacilityIssue, domain.CategoryHostelIssue:
		return domain.PriorityHigh
	case domain.CategoryMaintenance, domain.CategoryTransportIssue, domain.CategoryAcademicQuery,
		domain.CategoryComplaint:
		return domain.PriorityMedium
	case domain.CategoryServiceRequest, domain.CategoryOther:
		return domain.PriorityLow
	}
	return domain.PriorityMedium
}
