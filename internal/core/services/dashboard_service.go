package services

import (
	"context"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/core/routing"
)

// DashboardService composes the per-role landing dashboard
type DashboardService struct {
	tickets repositories.TicketRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(tickets repositories.TicketRepository) *DashboardService {
	return &DashboardService{tickets: tickets}
}

// DashboardModule is one tile on a role dashboard
type DashboardModule struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Path        string          `json:"path,omitempty"`
	Count       *int            `json:"count,omitempty"`
	Priority    domain.Priority `json:"priority,omitempty"`
}

// DashboardInsight is a headline number
type DashboardInsight struct {
	Label string `json:"label"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// Dashboard is the composed view for one role
type Dashboard struct {
	Role          domain.Role              `json:"role"`
	Modules       []DashboardModule        `json:"modules"`
	Insights      []DashboardInsight       `json:"insights"`
	RecentTickets []*models.TicketResponse `json:"recent_tickets"`
}

const recentTicketLimit = 5

// GetDashboard loads the actor's tickets and composes their dashboard.
// Students see their own tickets, staff see every ticket their role covers.
func (s *DashboardService) GetDashboard(ctx context.Context, actor *domain.Actor) (*Dashboard, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}

	var tickets []*models.Ticket
	var err error
	if actor.Role == domain.RoleStudent {
		tickets, err = s.tickets.ListBySubmitter(ctx, actor.ID)
	} else {
		tickets, _, err = s.tickets.List(ctx, repositories.TicketFilter{}, 0, 0)
	}
	if err != nil {
		return nil, err
	}

	return ComposeDashboard(ViewerOf(actor), tickets), nil
}

// ComposeDashboard is the pure viewer + tickets -> dashboard mapping.
// Counts cover every ticket the role works on; RecentTickets only lists
// tickets the viewer may open.
func ComposeDashboard(viewer routing.Viewer, tickets []*models.Ticket) *Dashboard {
	role := viewer.Role
	scoped := FilterTicketsForRole(role, tickets)

	recent := make([]*models.TicketResponse, 0, recentTicketLimit)
	for _, t := range scoped {
		if len(recent) == recentTicketLimit {
			break
		}
		if !routing.CanViewTicket(viewer, t.Viewable()) {
			continue
		}
		recent = append(recent, t.ToResponse())
	}

	return &Dashboard{
		Role:          role,
		Modules:       DashboardModules(role, scoped),
		Insights:      DashboardInsights(role, tickets),
		RecentTickets: recent,
	}
}

// FilterTicketsForRole narrows tickets to the categories role works on.
// Student lists are expected to be pre-filtered to the student's own tickets.
func FilterTicketsForRole(role domain.Role, tickets []*models.Ticket) []*models.Ticket {
	var keep func(*models.Ticket) bool
	switch role {
	case domain.RoleTeachingStaff, domain.RoleTutor:
		keep = categoryIn(domain.CategoryAcademicQuery)
	case domain.RoleHostelWarden:
		keep = categoryIn(domain.CategoryHostelIssue)
	case domain.RoleMaintenance:
		keep = categoryIn(domain.CategoryFacilityIssue, domain.CategoryMaintenance)
	case domain.RoleSecurityStaff:
		keep = categoryIn(domain.CategorySecurityIssue)
	case domain.RoleTransportOfficer:
		keep = categoryIn(domain.CategoryTransportIssue)
	default:
		return tickets
	}

	out := make([]*models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func categoryIn(cats ...domain.TicketCategory) func(*models.Ticket) bool {
	return func(t *models.Ticket) bool {
		for _, c := range cats {
			if t.Category == c {
				return true
			}
		}
		return false
	}
}

// DashboardInsights returns Total, Pending, In Progress and Resolved counts
// over the role's tickets.
func DashboardInsights(role domain.Role, tickets []*models.Ticket) []DashboardInsight {
	scoped := FilterTicketsForRole(role, tickets)
	return []DashboardInsight{
		{Label: "Total Tickets", Value: len(scoped), Color: "primary"},
		{Label: "Pending", Value: countWhere(scoped, statusIs(domain.StatusPending)), Color: "warning"},
		{Label: "In Progress", Value: countWhere(scoped, statusIs(domain.StatusInProgress)), Color: "primary"},
		{Label: "Resolved", Value: countWhere(scoped, statusIs(domain.StatusResolved)), Color: "success"},
	}
}

func statusIs(s domain.TicketStatus) func(*models.Ticket) bool {
	return func(t *models.Ticket) bool { return t.Status == s }
}

func countWhere(tickets []*models.Ticket, match func(*models.Ticket) bool) int {
	n := 0
	for _, t := range tickets {
		if match(t) {
			n++
		}
	}
	return n
}

func intp(n int) *int { return &n }

// DashboardModules returns the tiles for role. tickets must already be
// filtered with FilterTicketsForRole. Unknown roles get no modules.
func DashboardModules(role domain.Role, tickets []*models.Ticket) []DashboardModule {
	total := intp(len(tickets))
	pending := intp(countWhere(tickets, statusIs(domain.StatusPending)))

	switch role {
	case domain.RoleStudent:
		return []DashboardModule{
			{ID: "submit-request", Title: "Submit Request", Description: "Create new support ticket", Icon: "Send", Path: "/submit"},
			{ID: "my-tickets", Title: "My Tickets", Description: "Track request status", Icon: "Ticket", Path: "/tickets", Count: total},
			{ID: "ai-teacher", Title: "AI Teacher", Description: "Academic assistance", Icon: "GraduationCap", Path: "/ai-teacher"},
			{ID: "campus-assistant", Title: "Campus Assistant", Description: "General campus help", Icon: "Bot", Path: "/ai-assistant"},
			{ID: "lectures", Title: "Video Lectures", Description: "Access course materials", Icon: "Video", Path: "/lectures"},
			{ID: "navigation", Title: "Campus Navigation", Description: "QR codes & directions", Icon: "MapPin", Path: "/navigate"},
		}
	case domain.RoleTeachingStaff:
		return []DashboardModule{
			{ID: "student-queries", Title: "Student Queries", Description: "Academic questions assigned", Icon: "MessageSquare", Path: "/tickets", Count: pending},
			{ID: "upload-lectures", Title: "Upload Lectures", Description: "Manage video content", Icon: "Upload", Path: "/manage-lectures"},
			{ID: "syllabus-management", Title: "Syllabus Management", Description: "Upload course materials", Icon: "BookOpen", Path: "/syllabus"},
			{ID: "ai-teacher-validation", Title: "AI Teacher Review", Description: "Validate AI responses", Icon: "GraduationCap", Path: "/ai-teacher"},
			{ID: "department-notices", Title: "Department Notices", Description: "Publish announcements", Icon: "Bell", Path: "/notices"},
		}
	case domain.RoleTutor:
		return []DashboardModule{
			{ID: "student-tickets", Title: "Student Issues", Description: "Assigned student requests", Icon: "Users", Path: "/tickets", Count: total},
			{ID: "screening-queue", Title: "Screening Queue", Description: "First-level verification", Icon: "Filter", Count: pending},
			{ID: "escalation-center", Title: "Escalation Center", Description: "Forward to HOD/Staff", Icon: "ArrowUp"},
			{ID: "mentoring-notes", Title: "Mentoring Notes", Description: "Student guidance records", Icon: "FileText"},
		}
	case domain.RoleDepartmentStaff:
		facility := intp(countWhere(tickets, categoryIn(domain.CategoryFacilityIssue)))
		return []DashboardModule{
			{ID: "department-inbox", Title: "Department Inbox", Description: "Department-level tickets", Icon: "Inbox", Path: "/tickets", Count: pending},
			{ID: "ticket-assignment", Title: "Ticket Assignment", Description: "Assign to handlers", Icon: "UserCheck"},
			{ID: "facility-tracking", Title: "Facility Issues", Description: "Infrastructure problems", Icon: "Building", Count: facility},
			{ID: "service-logs", Title: "Service Logs", Description: "Department activity", Icon: "Activity"},
		}
	case domain.RoleHOD:
		escalated := intp(countWhere(tickets, statusIs(domain.StatusEscalated)))
		return []DashboardModule{
			{ID: "department-overview", Title: "Department Overview", Description: "Full department visibility", Icon: "Eye", Path: "/tickets"},
			{ID: "approval-center", Title: "Approval Center", Description: "Approve/reject requests", Icon: "CheckCircle", Count: escalated},
			{ID: "faculty-monitoring", Title: "Faculty Activity", Description: "Monitor resolution activity", Icon: "Users"},
			{ID: "analytics-dashboard", Title: "Department Analytics", Description: "Performance insights", Icon: "BarChart"},
			{ID: "report-export", Title: "Export Reports", Description: "Generate department reports", Icon: "Download"},
		}
	case domain.RoleAdmin:
		return []DashboardModule{
			{ID: "system-monitoring", Title: "System Monitoring", Description: "Full system visibility", Icon: "Monitor", Path: "/tickets"},
			{ID: "user-management", Title: "User Management", Description: "Manage roles & users", Icon: "Users"},
			{ID: "global-announcements", Title: "Global Announcements", Description: "System-wide notices", Icon: "Megaphone", Path: "/notices"},
			{ID: "qr-registry", Title: "QR Location Registry", Description: "Manage campus QR codes", Icon: "QrCode"},
			{ID: "system-analytics", Title: "System Analytics", Description: "Platform insights", Icon: "TrendingUp"},
		}
	case domain.RoleHostelWarden:
		return []DashboardModule{
			{ID: "hostel-complaints", Title: "Hostel Complaints", Description: "Water, electricity, safety", Icon: "Home", Path: "/tickets", Count: total},
			{ID: "maintenance-assignment", Title: "Maintenance Tasks", Description: "Assign to technicians", Icon: "Wrench"},
			{ID: "block-monitoring", Title: "Block Monitoring", Description: "Room/block issues", Icon: "Building"},
			{ID: "safety-alerts", Title: "Safety Alerts", Description: "Emergency notifications", Icon: "AlertTriangle", Priority: domain.PriorityHigh},
		}
	case domain.RoleMaintenance:
		return []DashboardModule{
			{ID: "facility-complaints", Title: "Facility Issues", Description: "Infrastructure problems", Icon: "Building", Path: "/tickets", Count: total},
			{ID: "location-mapping", Title: "Location Mapping", Description: "QR-based issue tracking", Icon: "MapPin"},
			{ID: "task-assignment", Title: "Task Assignment", Description: "Assign to technicians", Icon: "UserCheck"},
			{ID: "work-logs", Title: "Work Status", Description: "Update progress", Icon: "Activity"},
		}
	case domain.RoleSecurityStaff:
		urgent := intp(countWhere(tickets, func(t *models.Ticket) bool { return t.Priority == domain.PriorityUrgent }))
		return []DashboardModule{
			{ID: "incident-reports", Title: "Incident Reports", Description: "Security-related issues", Icon: "Shield", Path: "/tickets", Count: total},
			{ID: "emergency-alerts", Title: "Emergency Alerts", Description: "Priority incidents", Icon: "AlertTriangle", Priority: domain.PriorityHigh, Count: urgent},
			{ID: "patrol-logs", Title: "Patrol Logs", Description: "Shift/post logs", Icon: "Clock"},
			{ID: "location-incidents", Title: "Location Mapping", Description: "Incident locations", Icon: "MapPin"},
		}
	case domain.RoleTransportOfficer:
		return []DashboardModule{
			{ID: "transport-requests", Title: "Transport Requests", Description: "Service requests", Icon: "Bus", Path: "/tickets", Count: total},
			{ID: "route-management", Title: "Route Management", Description: "Bus timing & routes", Icon: "Route"},
			{ID: "student-communication", Title: "Student Communication", Description: "Updates & notifications", Icon: "MessageSquare"},
			{ID: "lost-found", Title: "Lost & Found", Description: "Item reports", Icon: "Search"},
		}
	case domain.RoleLabAssistant:
		return []DashboardModule{
			{ID: "equipment-issues", Title: "Equipment Issues", Description: "Lab equipment problems", Icon: "Monitor", Path: "/tickets", Count: total},
			{ID: "safety-notifications", Title: "Safety Alerts", Description: "Hazard notifications", Icon: "AlertTriangle", Priority: domain.PriorityHigh},
			{ID: "maintenance-requests", Title: "Maintenance Requests", Description: "Forward to IT/Maintenance", Icon: "Wrench"},
			{ID: "asset-logs", Title: "Asset Management", Description: "Lab equipment tracking", Icon: "Package"},
		}
	case domain.RoleSupportingStaff:
		return []DashboardModule{
			{ID: "service-tickets", Title: "Service Tickets", Description: "General support requests", Icon: "Headphones", Path: "/tickets", Count: total},
			{ID: "task-list", Title: "Task Assignment", Description: "Work assignments", Icon: "CheckSquare"},
			{ID: "completion-updates", Title: "Update Status", Description: "Mark tasks complete", Icon: "CheckCircle"},
			{ID: "work-history", Title: "Work History", Description: "Department logs", Icon: "History"},
		}
	}
	return []DashboardModule{}
}
