package routing

import (
	"slices"
	"testing"
	"time"

	"campus-aid-buddy/internal/core/domain"
)

var classificationTags = []domain.Department{
	domain.DeptAcademic, domain.DeptHostel, domain.DeptTransport, domain.DeptMaintenance,
	domain.DeptSecurity, domain.DeptLab, domain.DeptLibrary, domain.DeptIT, domain.DeptGeneral,
}

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		name      string
		category  string
		issueType string
		want      domain.Department
	}{
		{"hostel tag", "hostel", "water supply", domain.DeptHostel},
		{"security tag", "security", "emergency access breach", domain.DeptSecurity},
		{"academic keyword", "", "missing lecture notes", domain.DeptAcademic},
		{"academic wins over hostel", "", "syllabus copy left in room", domain.DeptAcademic},
		{"hostel wins over lab", "", "room computer broken", domain.DeptHostel},
		{"transport keyword", "", "bus late", domain.DeptTransport},
		{"maintenance keyword", "", "needs cleaning", domain.DeptMaintenance},
		{"security keyword", "", "door access card", domain.DeptSecurity},
		{"lab keyword", "", "equipment jammed", domain.DeptLab},
		{"library keyword", "", "book overdue", domain.DeptLibrary},
		{"it keyword", "", "network down", domain.DeptIT},
		{"case insensitive", "Lab", "", domain.DeptLab},
		{"padded tag", "  hostel ", "", domain.DeptHostel},
		{"capitalised keyword", "", "Room heater broken", domain.DeptHostel},
		{"fallback", "whatever", "something odd", domain.DeptGeneral},
		{"empty", "", "", domain.DeptGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCategory(tt.category, tt.issueType)
			if got != tt.want {
				t.Errorf("ClassifyCategory(%q, %q) = %q, want %q", tt.category, tt.issueType, got, tt.want)
			}
		})
	}
}

func TestClassifyCategoryIsTotal(t *testing.T) {
	inputs := []string{"", "academic", "hostel_issue", "it", "random", "room", "network", "exam"}
	for _, c := range inputs {
		for _, i := range inputs {
			got := ClassifyCategory(c, i)
			if !slices.Contains(classificationTags, got) {
				t.Fatalf("ClassifyCategory(%q, %q) = %q, not a known tag", c, i, got)
			}
			if again := ClassifyCategory(c, i); again != got {
				t.Fatalf("ClassifyCategory(%q, %q) not deterministic: %q then %q", c, i, got, again)
			}
		}
	}
}

func TestHostelWaterSupplyScenario(t *testing.T) {
	dept := ClassifyCategory("hostel", "water supply")
	if dept != domain.DeptHostel {
		t.Fatalf("department = %q, want hostel", dept)
	}
	if roles := AssignableRoles(dept); !slices.Equal(roles, []domain.Role{domain.RoleHostelWarden}) {
		t.Errorf("assignable roles = %v, want [hostel_warden]", roles)
	}
	if p := PriorityLevel("hostel", "water supply"); p != domain.PriorityLow {
		t.Errorf("priority = %q, want low", p)
	}
}

func TestSecurityEmergencyScenario(t *testing.T) {
	if dept := ClassifyCategory("security", "emergency access breach"); dept != domain.DeptSecurity {
		t.Errorf("department = %q, want security", dept)
	}
	if p := PriorityLevel("security", "emergency access breach"); p != domain.PriorityHigh {
		t.Errorf("priority = %q, want high", p)
	}
}

func TestPriorityLevel(t *testing.T) {
	tests := []struct {
		category, issue string
		want            domain.Priority
	}{
		{"general", "urgent help", domain.PriorityHigh},
		{"academic", "", domain.PriorityMedium},
		{"lab", "", domain.PriorityMedium},
		{"", "exam hall", domain.PriorityMedium},
		{"hostel", "noise", domain.PriorityLow},
		{" Security ", "", domain.PriorityHigh},
		{"", "URGENT: lift stuck", domain.PriorityHigh},
		{"ACADEMIC", "", domain.PriorityMedium},
	}
	for _, tt := range tests {
		if got := PriorityLevel(tt.category, tt.issue); got != tt.want {
			t.Errorf("PriorityLevel(%q, %q) = %q, want %q", tt.category, tt.issue, got, tt.want)
		}
	}
}

func TestAdminCanHandleEveryDepartment(t *testing.T) {
	depts := append(slices.Clone(classificationTags), domain.DeptAdministration, "unknown-dept", "")
	for _, d := range depts {
		if !CanUserHandleTicket(domain.RoleAdmin, d) {
			t.Errorf("admin cannot handle %q", d)
		}
	}
}

func TestCanUserHandleTicket(t *testing.T) {
	tests := []struct {
		role domain.Role
		dept domain.Department
		want bool
	}{
		{domain.RoleHostelWarden, domain.DeptHostel, true},
		{domain.RoleHostelWarden, domain.DeptAcademic, false},
		{domain.RoleTeachingStaff, domain.DeptLab, true},
		{domain.RoleHOD, domain.DeptAcademic, true},
		{domain.RoleHOD, domain.DeptHostel, false},
		{domain.RoleDepartmentStaff, domain.DeptIT, true},
		{domain.RoleDepartmentStaff, domain.DeptGeneral, false},
		{domain.RoleStudent, "unknown-dept", false},
	}
	for _, tt := range tests {
		if got := CanUserHandleTicket(tt.role, tt.dept); got != tt.want {
			t.Errorf("CanUserHandleTicket(%q, %q) = %v, want %v", tt.role, tt.dept, got, tt.want)
		}
	}
}

func TestEstimatedResolutionHoursRatios(t *testing.T) {
	depts := append(slices.Clone(classificationTags), domain.DeptAdministration, "unknown")
	for _, d := range depts {
		medium := EstimatedResolutionHours(d, domain.PriorityMedium)
		if high := EstimatedResolutionHours(d, domain.PriorityHigh); high != 0.5*medium {
			t.Errorf("%s: high = %v, want %v", d, high, 0.5*medium)
		}
		if low := EstimatedResolutionHours(d, domain.PriorityLow); low != 2*medium {
			t.Errorf("%s: low = %v, want %v", d, low, 2*medium)
		}
		if urgent := EstimatedResolutionHours(d, domain.PriorityUrgent); urgent != medium {
			t.Errorf("%s: urgent = %v, want base %v", d, urgent, medium)
		}
	}

	if got := EstimatedResolutionHours(domain.DeptSecurity, domain.PriorityHigh); got != 0.5 {
		t.Errorf("security/high = %v, want 0.5", got)
	}
	if got := EstimatedResolutionHours(domain.DeptLibrary, domain.PriorityMedium); got != 72 {
		t.Errorf("library/medium = %v, want 72", got)
	}
}

func TestAvailableActions(t *testing.T) {
	tests := []struct {
		role    domain.Role
		current domain.TicketStatus
		want    []domain.TicketStatus
	}{
		{domain.RoleTutor, domain.StatusPending, []domain.TicketStatus{domain.StatusInProgress, domain.StatusEscalated}},
		{domain.RoleTutor, domain.StatusInProgress, []domain.TicketStatus{domain.StatusResolved, domain.StatusEscalated}},
		{domain.RoleTutor, domain.StatusResolved, []domain.TicketStatus{}},
		{domain.RoleDepartmentStaff, domain.StatusPending, []domain.TicketStatus{domain.StatusInProgress}},
		{domain.RoleAdmin, domain.StatusPending, []domain.TicketStatus{domain.StatusInProgress, domain.StatusResolved, domain.StatusEscalated, domain.StatusRejected}},
		{domain.RoleHOD, domain.StatusResolved, []domain.TicketStatus{domain.StatusInProgress, domain.StatusEscalated, domain.StatusRejected}},
		{domain.RoleMaintenance, domain.StatusInProgress, []domain.TicketStatus{domain.StatusResolved}},
		{domain.RoleStudent, domain.StatusPending, []domain.TicketStatus{}},
	}
	for _, tt := range tests {
		got := AvailableActions(tt.role, tt.current)
		if !slices.Equal(got, tt.want) {
			t.Errorf("AvailableActions(%q, %q) = %v, want %v", tt.role, tt.current, got, tt.want)
		}
		if slices.Contains(got, tt.current) {
			t.Errorf("AvailableActions(%q, %q) offers current status", tt.role, tt.current)
		}
	}
}

func TestTutorCannotResolvePending(t *testing.T) {
	if CanTransition(domain.RoleTutor, domain.StatusPending, domain.StatusResolved) {
		t.Fatal("tutor offered pending -> resolved")
	}
}

func TestCanViewTicket(t *testing.T) {
	tests := []struct {
		name string
		v    Viewer
		t    Viewable
		want bool
	}{
		{"own ticket", Viewer{ID: "u1", Role: domain.RoleStudent}, Viewable{SubmitterID: "u1"}, true},
		{"other student", Viewer{ID: "u2", Role: domain.RoleStudent}, Viewable{SubmitterID: "u1"}, false},
		{"hod sees all", Viewer{ID: "h", Role: domain.RoleHOD}, Viewable{Category: domain.CategoryHostelIssue}, true},
		{"dept staff same dept", Viewer{Role: domain.RoleDepartmentStaff, Department: "CSE"}, Viewable{Department: "CSE"}, true},
		{"dept staff other dept", Viewer{Role: domain.RoleDepartmentStaff, Department: "CSE"}, Viewable{Department: "EEE"}, false},
		{"warden hostel", Viewer{Role: domain.RoleHostelWarden}, Viewable{Category: domain.CategoryHostelIssue}, true},
		{"warden transport", Viewer{Role: domain.RoleHostelWarden}, Viewable{Category: domain.CategoryTransportIssue}, false},
		{"maintenance facility", Viewer{Role: domain.RoleMaintenance}, Viewable{Category: domain.CategoryFacilityIssue}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanViewTicket(tt.v, tt.t); got != tt.want {
				t.Errorf("CanViewTicket = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRouteTicket(t *testing.T) {
	tests := []struct {
		category domain.TicketCategory
		issue    string
		want     domain.Department
	}{
		{domain.CategoryHostelIssue, "water supply", domain.DeptHostel},
		{domain.CategoryFacilityIssue, "", domain.DeptMaintenance},
		{domain.CategoryComplaint, "rude staff", domain.DeptAdministration},
		{domain.CategoryServiceRequest, "wifi network password", domain.DeptIT},
		{domain.CategoryAcademicQuery, "", domain.DeptAcademic},
	}
	for _, tt := range tests {
		if got := RouteTicket(tt.category, tt.issue); got != tt.want {
			t.Errorf("RouteTicket(%q, %q) = %q, want %q", tt.category, tt.issue, got, tt.want)
		}
		rule := RuleFor(tt.category)
		if !CanUserHandleTicket(rule.AssignedRole, RouteTicket(tt.category, tt.issue)) &&
			tt.category != domain.CategoryServiceRequest {
			t.Errorf("%s: assigned role %q cannot handle its own routed department", tt.category, rule.AssignedRole)
		}
	}
}

func TestRuleForUserOverridesAcademicDepartment(t *testing.T) {
	if got := RuleForUser(domain.CategoryAcademicQuery, "Computer Science").Department; got != "Computer Science" {
		t.Errorf("department = %q", got)
	}
	if got := RuleForUser(domain.CategoryHostelIssue, "Computer Science").Department; got != "Hostel" {
		t.Errorf("department = %q", got)
	}
}

func TestShouldEscalate(t *testing.T) {
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if ShouldEscalate(created, domain.CategoryHostelIssue, created.Add(2*time.Hour)) {
		t.Error("hostel ticket escalated at exactly 2h")
	}
	if !ShouldEscalate(created, domain.CategoryHostelIssue, created.Add(2*time.Hour+time.Minute)) {
		t.Error("hostel ticket not escalated after 2h")
	}
	if ShouldEscalate(created, domain.CategoryServiceRequest, created.Add(47*time.Hour)) {
		t.Error("service request escalated before 48h")
	}
}

func TestEscalationPath(t *testing.T) {
	tests := map[domain.Role]domain.Role{
		domain.RoleTutor:         domain.RoleTeachingStaff,
		domain.RoleTeachingStaff: domain.RoleHOD,
		domain.RoleLabAssistant:  domain.RoleHOD,
		domain.RoleHostelWarden:  domain.RoleAdmin,
		domain.RoleStudent:       domain.RoleTutor,
		domain.RoleAdmin:         domain.RoleAdmin,
	}
	for from, want := range tests {
		if got := EscalationPath(from); got != want {
			t.Errorf("EscalationPath(%q) = %q, want %q", from, got, want)
		}
	}
}

func TestEveryCategoryHasRule(t *testing.T) {
	for _, c := range domain.AllCategories {
		r := RuleFor(c)
		if r.Category != c || r.Department == "" || !r.AssignedRole.Valid() || r.EscalationHours <= 0 {
			t.Errorf("incomplete rule for %q: %+v", c, r)
		}
		if !PriorityByCategory(c).Valid() {
			t.Errorf("no priority for %q", c)
		}
	}
}
