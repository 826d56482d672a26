package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleStudent          Role = "student"
	RoleTeachingStaff    Role = "teaching_staff"
	RoleTutor            Role = "tutor"
	RoleDepartmentStaff  Role = "department_staff"
	RoleHOD              Role = "hod"
	RoleAdmin            Role = "admin"
	RoleHostelWarden     Role = "hostel_warden"
	RoleSecurityStaff    Role = "security_staff"
	RoleMaintenance      Role = "maintenance"
	RoleTransportOfficer Role = "transport_officer"
	RoleLabAssistant     Role = "lab_assistant"
	RoleSupportingStaff  Role = "supporting_staff"
)

// AllRoles lists every role in declaration order.
var AllRoles = []Role{
	RoleStudent, RoleTeachingStaff, RoleTutor, RoleDepartmentStaff, RoleHOD, RoleAdmin,
	RoleHostelWarden, RoleSecurityStaff, RoleMaintenance, RoleTransportOfficer,
	RoleLabAssistant, RoleSupportingStaff,
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeachingStaff, RoleTutor, RoleDepartmentStaff, RoleHOD, RoleAdmin,
		RoleHostelWarden, RoleSecurityStaff, RoleMaintenance, RoleTransportOfficer,
		RoleLabAssistant, RoleSupportingStaff:
		return true
	}
	return false
}

// IsStaff is true for every role except student
func (r Role) IsStaff() bool {
	return r.Valid() && r != RoleStudent
}

// TicketStatus is the lifecycle state of a ticket
type TicketStatus string

const (
	StatusPending    TicketStatus = "pending"
	StatusInProgress TicketStatus = "in_progress"
	StatusResolved   TicketStatus = "resolved"
	StatusEscalated  TicketStatus = "escalated"
	StatusRejected   TicketStatus = "rejected"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusEscalated, StatusRejected:
		return true
	}
	return false
}

// TicketCategory is the submitter-chosen kind of ticket
type TicketCategory string

const (
	CategoryComplaint      TicketCategory = "complaint"
	CategoryServiceRequest TicketCategory = "service_request"
	CategoryFacilityIssue  TicketCategory = "facility_issue"
	CategoryAcademicQuery  TicketCategory = "academic_query"
	CategoryHostelIssue    TicketCategory = "hostel_issue"
	CategoryTransportIssue TicketCategory = "transport_issue"
	CategorySecurityIssue  TicketCategory = "security_issue"
	CategoryMaintenance    TicketCategory = "maintenance"
	CategoryOther          TicketCategory = "other"
)

// AllCategories lists every ticket category.
var AllCategories = []TicketCategory{
	CategoryComplaint, CategoryServiceRequest, CategoryFacilityIssue, CategoryAcademicQuery,
	CategoryHostelIssue, CategoryTransportIssue, CategorySecurityIssue, CategoryMaintenance,
	CategoryOther,
}

func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryComplaint, CategoryServiceRequest, CategoryFacilityIssue, CategoryAcademicQuery,
		CategoryHostelIssue, CategoryTransportIssue, CategorySecurityIssue, CategoryMaintenance,
		CategoryOther:
		return true
	}
	return false
}

// Priority of a ticket
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Department is a routing tag. Tickets are authorized against it.
type Department string

const (
	DeptAcademic       Department = "academic"
	DeptHostel         Department = "hostel"
	DeptTransport      Department = "transport"
	DeptMaintenance    Department = "maintenance"
	DeptSecurity       Department = "security"
	DeptLab            Department = "lab"
	DeptLibrary        Department = "library"
	DeptAdministration Department = "administration"
	DeptIT             Department = "it"
	DeptGeneral        Department = "general"
)

// LocationType of a campus location
type LocationType string

const (
	LocationAcademic  LocationType = "academic"
	LocationHostel    LocationType = "hostel"
	LocationFacility  LocationType = "facility"
	LocationAdmin     LocationType = "admin"
	LocationTransport LocationType = "transport"
	LocationOther     LocationType = "other"
)

func (t LocationType) Valid() bool {
	switch t {
	case LocationAcademic, LocationHostel, LocationFacility, LocationAdmin, LocationTransport, LocationOther:
		return true
	}
	return false
}

// NoticePriority of a notice
type NoticePriority string

const (
	NoticeNormal    NoticePriority = "normal"
	NoticeImportant NoticePriority = "important"
	NoticeUrgent    NoticePriority = "urgent"
)

func (p NoticePriority) Valid() bool {
	switch p {
	case NoticeNormal, NoticeImportant, NoticeUrgent:
		return true
	}
	return false
}

// Actor is the authenticated user performing an operation.
// Handlers build it from validated token claims.
type Actor struct {
	ID         string
	Email      string
	Name       string
	Role       Role
	Department string
	RollNumber string
}

// GeoPoint is a captured device location
type GeoPoint struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Address    string    `json:"address,omitempty"`
	CampusZone string    `json:"campus_zone,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// CampusZone buckets a latitude into a coarse campus zone
func CampusZone(lat float64) string {
	switch {
	case lat > 10.97:
		return "North Campus"
	case lat < 10.96:
		return "South Campus"
	default:
		return "Main Campus"
	}
}
