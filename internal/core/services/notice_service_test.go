package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/pkg/logger"
)

func TestCreateNoticePermissions(t *testing.T) {
	clk := newFixedClock(time.Date(2024, 10, 3, 9, 0, 0, 0, time.UTC))
	svc := NewNoticeService(newMemNoticeRepo(), logger.Nop(), clk.Now)
	in := NoticeInput{Title: "Exam schedule", Content: "Mid-terms start Monday", TargetRoles: []domain.Role{domain.RoleStudent}}

	tests := []struct {
		role domain.Role
		ok   bool
	}{
		{domain.RoleAdmin, true},
		{domain.RoleHOD, true},
		{domain.RoleTeachingStaff, true},
		{domain.RoleDepartmentStaff, true},
		{domain.RoleStudent, false},
		{domain.RoleTutor, false},
		{domain.RoleHostelWarden, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			n, err := svc.CreateNotice(context.Background(), actor("u-"+string(tt.role), tt.role), in)
			if tt.ok {
				if err != nil {
					t.Fatalf("CreateNotice: %v", err)
				}
				if !n.IsActive || n.Priority != domain.NoticeNormal || !n.PublishedAt.Equal(clk.Now()) {
					t.Fatalf("notice = %+v", n)
				}
				return
			}
			if !errors.Is(err, domain.ErrPermissionDenied) {
				t.Fatalf("err = %v, want permission denied", err)
			}
		})
	}
}

func TestCreateNoticeValidation(t *testing.T) {
	clk := newFixedClock(time.Date(2024, 10, 3, 9, 0, 0, 0, time.UTC))
	svc := NewNoticeService(newMemNoticeRepo(), logger.Nop(), clk.Now)
	past := clk.Now().Add(-time.Hour)

	tests := []struct {
		name string
		in   NoticeInput
	}{
		{"no title", NoticeInput{Content: "x", TargetRoles: []domain.Role{domain.RoleStudent}}},
		{"no roles", NoticeInput{Title: "t", Content: "x"}},
		{"bad role", NoticeInput{Title: "t", Content: "x", TargetRoles: []domain.Role{"dean"}}},
		{"bad priority", NoticeInput{Title: "t", Content: "x", TargetRoles: []domain.Role{domain.RoleStudent}, Priority: "loud"}},
		{"expired", NoticeInput{Title: "t", Content: "x", TargetRoles: []domain.Role{domain.RoleStudent}, ExpiresAt: &past}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateNotice(context.Background(), actor("a", domain.RoleAdmin), tt.in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}
}

func TestListNoticesForActor(t *testing.T) {
	ctx := context.Background()
	clk := newFixedClock(time.Date(2024, 10, 3, 9, 0, 0, 0, time.UTC))
	repo := newMemNoticeRepo()
	svc := NewNoticeService(repo, logger.Nop(), clk.Now)
	admin := actor("a", domain.RoleAdmin)

	soon := clk.Now().Add(30 * time.Minute)
	first, _ := svc.CreateNotice(ctx, admin, NoticeInput{Title: "Fees", Content: "Due Friday", TargetRoles: []domain.Role{domain.RoleStudent, domain.RoleStudent}})
	clk.advance(time.Minute)
	second, _ := svc.CreateNotice(ctx, admin, NoticeInput{Title: "Water cut", Content: "Block B", TargetRoles: []domain.Role{domain.RoleStudent, domain.RoleHostelWarden}, ExpiresAt: &soon})
	clk.advance(time.Minute)
	_, _ = svc.CreateNotice(ctx, admin, NoticeInput{Title: "Staff meeting", Content: "3pm", TargetRoles: []domain.Role{domain.RoleTeachingStaff}})

	if len(first.TargetRoles) != 1 {
		t.Fatalf("target roles not deduplicated: %v", first.TargetRoles)
	}

	student := actor("s", domain.RoleStudent)
	got, err := svc.ListForActor(ctx, student)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("student notices = %+v", got)
	}

	all, _ := svc.ListForActor(ctx, admin)
	if len(all) != 3 {
		t.Fatalf("admin notices = %d, want 3", len(all))
	}

	clk.advance(time.Hour)
	got, _ = svc.ListForActor(ctx, student)
	if len(got) != 1 || got[0].ID != first.ID {
		t.Fatalf("after expiry = %+v", got)
	}
	n, err := svc.DeactivateExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("DeactivateExpired = %d, %v", n, err)
	}

	if _, err := svc.GetNotice(ctx, student, second.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("inactive notice visible to student: %v", err)
	}
	if _, err := svc.GetNotice(ctx, actor("w", domain.RoleHostelWarden), first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("untargeted notice visible: %v", err)
	}
}

func TestEditNoticeOwnership(t *testing.T) {
	ctx := context.Background()
	svc := NewNoticeService(newMemNoticeRepo(), logger.Nop(), nil)
	owner := actor("t1", domain.RoleTeachingStaff)
	in := NoticeInput{Title: "Lab closed", Content: "Thursday", TargetRoles: []domain.Role{domain.RoleStudent}}
	n, err := svc.CreateNotice(ctx, owner, in)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.SetActive(ctx, actor("t2", domain.RoleTeachingStaff), n.ID, false); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("other staff err = %v", err)
	}
	if _, err := svc.SetActive(ctx, actor("s", domain.RoleStudent), n.ID, false); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("student err = %v", err)
	}

	in.Title = "Lab closed all week"
	in.Priority = domain.NoticeImportant
	updated, err := svc.UpdateNotice(ctx, owner, n.ID, in)
	if err != nil || updated.Title != "Lab closed all week" || updated.Priority != domain.NoticeImportant {
		t.Fatalf("UpdateNotice = %+v, %v", updated, err)
	}

	off, err := svc.SetActive(ctx, actor("a", domain.RoleAdmin), n.ID, false)
	if err != nil || off.IsActive {
		t.Fatalf("admin deactivate = %+v, %v", off, err)
	}

	if err := svc.DeleteNotice(ctx, owner, n.ID); err != nil {
		t.Fatalf("DeleteNotice: %v", err)
	}
	if err := svc.DeleteNotice(ctx, owner, n.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}
