// Package routing holds the static routing and authorization table for
// tickets: which department owns a ticket, which roles may act on it, and
// which status transitions each role is offered.
package routing

import (
	"strings"

	"campus-aid-buddy/internal/core/domain"
)

// classifyRule matches when the category equals tag or the issue type
// contains any keyword.
type classifyRule struct {
	tag      domain.Department
	keywords []string
}

// Order matters: issue types may match several keyword sets and the first
// rule wins.
var classifyRules = []classifyRule{
	{domain.DeptAcademic, []string{"syllabus", "lecture"}},
	{domain.DeptHostel, []string{"room", "mess"}},
	{domain.DeptTransport, []string{"bus", "vehicle"}},
	{domain.DeptMaintenance, []string{"repair", "cleaning"}},
	{domain.DeptSecurity, []string{"safety", "access"}},
	{domain.DeptLab, []string{"equipment", "computer"}},
	{domain.DeptLibrary, []string{"book", "resource"}},
	{domain.DeptIT, []string{"network", "software"}},
}

// ClassifyCategory resolves a free-text category and issue type to a
// department tag. It always returns one of the nine classification tags,
// falling back to general.
func ClassifyCategory(category, issueType string) domain.Department {
	category = strings.ToLower(strings.TrimSpace(category))
	issue := strings.ToLower(issueType)
	for _, r := range classifyRules {
		if category == string(r.tag) || containsAny(issue, r.keywords) {
			return r.tag
		}
	}
	return domain.DeptGeneral
}

// AssignableRoles returns the roles that own a department. Unknown
// departments are owned by admin.
func AssignableRoles(dept domain.Department) []domain.Role {
	switch dept {
	case domain.DeptAcademic:
		return []domain.Role{domain.RoleTeachingStaff, domain.RoleTutor, domain.RoleHOD}
	case domain.DeptHostel:
		return []domain.Role{domain.RoleHostelWarden}
	case domain.DeptTransport:
		return []domain.Role{domain.RoleTransportOfficer}
	case domain.DeptMaintenance:
		return []domain.Role{domain.RoleMaintenance}
	case domain.DeptSecurity:
		return []domain.Role{domain.RoleSecurityStaff}
	case domain.DeptLab:
		return []domain.Role{domain.RoleLabAssistant, domain.RoleTeachingStaff}
	case domain.DeptLibrary:
		return []domain.Role{domain.RoleSupportingStaff}
	case domain.DeptAdministration, domain.DeptIT:
		return []domain.Role{domain.RoleAdmin, domain.RoleDepartmentStaff}
	case domain.DeptGeneral:
		return []domain.Role{domain.RoleAdmin}
	}
	return []domain.Role{domain.RoleAdmin}
}

// CanUserHandleTicket reports whether role may act on tickets of dept.
// Admin may act on every department, known or not.
func CanUserHandleTicket(role domain.Role, dept domain.Department) bool {
	if role == domain.RoleAdmin {
		return true
	}
	for _, r := range AssignableRoles(dept) {
		if r == role {
			return true
		}
	}
	return false
}

// PriorityLevel suggests a priority from free-text category and issue type.
func PriorityLevel(category, issueType string) domain.Priority {
	category = strings.ToLower(strings.TrimSpace(category))
	issue := strings.ToLower(issueType)
	switch {
	case category == "security" || containsAny(issue, []string{"emergency", "urgent"}):
		return domain.PriorityHigh
	case category == "academic" || category == "lab" || strings.Contains(issue, "exam"):
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// EstimatedResolutionHours returns the expected hours to resolve a ticket of
// dept at priority. Priorities other than high, medium and low use the base.
func EstimatedResolutionHours(dept domain.Department, priority domain.Priority) float64 {
	base := 72.0
	switch dept {
	case domain.DeptSecurity:
		base = 1
	case domain.DeptIT:
		base = 4
	case domain.DeptMaintenance:
		base = 24
	case domain.DeptAcademic:
		base = 48
	}

	switch priority {
	case domain.PriorityHigh:
		return base * 0.5
	case domain.PriorityLow:
		return base * 2
	default:
		return base
	}
}

// CategoryTag maps a ticket category onto the free-text tag understood by
// ClassifyCategory. Administrative categories have no tag and are
// classified by issue type alone.
func CategoryTag(c domain.TicketCategory) string {
	switch c {
	case domain.CategoryAcademicQuery:
		return string(domain.DeptAcademic)
	case domain.CategoryHostelIssue:
		return string(domain.DeptHostel)
	case domain.CategoryTransportIssue:
		return string(domain.DeptTransport)
	case domain.CategoryFacilityIssue, domain.CategoryMaintenance:
		return string(domain.DeptMaintenance)
	case domain.CategorySecurityIssue:
		return string(domain.DeptSecurity)
	case domain.CategoryComplaint, domain.CategoryServiceRequest, domain.CategoryOther:
		return ""
	}
	return ""
}

// RouteTicket picks the owning department for a new ticket. Administrative
// categories that classify to general are routed to administration so the
// rule's assigned role can act on them.
func RouteTicket(c domain.TicketCategory, issueType string) domain.Department {
	dept := ClassifyCategory(CategoryTag(c), issueType)
	if dept == domain.DeptGeneral && RuleFor(c).Department == "Administration" {
		return domain.DeptAdministration
	}
	return dept
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
