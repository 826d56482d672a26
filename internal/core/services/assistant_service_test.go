package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/pkg/logger"
)

func testKnowledge(t *testing.T) *AssistantKnowledge {
	t.Helper()
	kb, err := LoadAssistantKnowledge()
	if err != nil {
		t.Fatalf("LoadAssistantKnowledge: %v", err)
	}
	return kb
}

func newTestAssistant(t *testing.T) (*AssistantService, *memChatRepo, *memSyllabusRepo) {
	t.Helper()
	chats, syllabi := &memChatRepo{}, newMemSyllabusRepo()
	return NewAssistantService(testKnowledge(t), nil, chats, syllabi, logger.Nop()), chats, syllabi
}

func TestCampusAnswerDispatchOrder(t *testing.T) {
	kb := testKnowledge(t)
	tests := []struct {
		query    string
		wantType string
		prefix   string
	}{
		{"Where is the Computer Science department?", ReplyRouting, "**COMPUTER SCIENCE Department Information:**"},
		{"library hours", ReplyRouting, "**LIBRARY Department Information:**"},
		{"cafeteria timings", ReplyFacility, "**CAFETERIA Information:**"},
		{"transport office", ReplyFacility, "**TRANSPORT Information:**"},
		{"help with my hostel room", ReplyFacility, "**HOSTEL Information:**"},
		{"how do I file a complaint", ReplyInfo, "**COMPLAINT Process:**"},
		{"I need support", ReplyInfo, "**Campus Support Options:**"},
		{"phone numbers please", ReplyInfo, "**Emergency Contacts:**"},
		{"good morning", ReplyFAQ, "I can help you with:"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := CampusAnswer(kb, tt.query)
			if got.Type != tt.wantType {
				t.Errorf("type = %s, want %s", got.Type, tt.wantType)
			}
			if !strings.HasPrefix(got.Message, tt.prefix) {
				t.Errorf("message = %q, want prefix %q", got.Message, tt.prefix)
			}
		})
	}

	if got := CampusAnswer(kb, "computer science"); len(got.SuggestedActions) != 2 || got.SuggestedActions[0] != "Submit Ticket" {
		t.Errorf("department actions = %v", got.SuggestedActions)
	}
	if got := CampusAnswer(kb, "anything"); len(got.SuggestedActions) != 3 {
		t.Errorf("default actions = %v", got.SuggestedActions)
	}
}

func TestAskTeacherModes(t *testing.T) {
	svc, _, _ := newTestAssistant(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		dept       string
		query      string
		mode       string
		confidence float64
		contains   string
	}{
		{"inappropriate first", "", "explain dating apps", ModeFallback, 0.5, "counselor"},
		{"syllabus match", "Database Management", "what is sql", ModeAcademic, 0.9, "Based on the Database Management syllabus"},
		{"subject named in query", "", "linked lists in data structures", ModeAcademic, 0.9, ""},
		{"no syllabus", "", "explain recursion", ModeAcademic, 0.6, "**Tip:**"},
		{"conversational", "", "hello there", ModeConversational, 0.9, "AI teacher"},
		{"stress", "", "I am stressed about exams", ModeConversational, 0.9, "overwhelming"},
		{"general", "", "good morning", ModeConversational, 0.8, "interesting question"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := actor("s1", domain.RoleStudent)
			a.Department = tt.dept
			got, err := svc.AskTeacher(ctx, a, tt.query)
			if err != nil {
				t.Fatalf("AskTeacher: %v", err)
			}
			if got.Mode != tt.mode || got.Confidence != tt.confidence {
				t.Fatalf("mode = %s/%.1f, want %s/%.1f", got.Mode, got.Confidence, tt.mode, tt.confidence)
			}
			if !strings.Contains(got.Message, tt.contains) {
				t.Fatalf("message %q does not contain %q", got.Message, tt.contains)
			}
		})
	}
}

func TestAskTeacherSuggestions(t *testing.T) {
	svc, _, _ := newTestAssistant(t)
	ctx := context.Background()
	a := actor("s1", domain.RoleStudent)

	got, err := svc.AskTeacher(ctx, a, "what is sql")
	if err != nil {
		t.Fatal(err)
	}
	if got.SuggestedQuestions[0] != "What is database normalization?" {
		t.Errorf("sql suggestions = %v", got.SuggestedQuestions)
	}

	got, err = svc.AskTeacher(ctx, a, "good morning")
	if err != nil {
		t.Fatal(err)
	}
	if got.SuggestedQuestions[0] != "What subjects can you help me with?" {
		t.Errorf("general suggestions = %v", got.SuggestedQuestions)
	}

	got, err = svc.AskTeacher(ctx, a, "define dating")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.SuggestedQuestions) != 0 {
		t.Errorf("fallback suggestions = %v", got.SuggestedQuestions)
	}
}

func TestAskTeacherUsesUploadedSyllabus(t *testing.T) {
	svc, _, syllabi := newTestAssistant(t)
	ctx := context.Background()

	_ = syllabi.Create(ctx, &models.Syllabus{
		Title:      "OS Syllabus",
		Department: "Computer Science",
		Subject:    "Operating Systems",
		Content:    "Unit 1: process scheduling. Unit 2: deadlocks and memory management.",
		UploadedAt: time.Now(),
	})
	_ = syllabi.Create(ctx, &models.Syllabus{
		Title:      "Empty",
		Department: "Computer Science",
		Subject:    "Operating Systems",
		UploadedAt: time.Now(),
	})

	a := actor("s1", domain.RoleStudent)
	a.Department = "Computer Science"
	got, err := svc.AskTeacher(ctx, a, "explain operating systems")
	if err != nil {
		t.Fatal(err)
	}
	if got.Confidence != 0.9 || !strings.Contains(got.Message, "**From OS Syllabus (Operating Systems):**") {
		t.Fatalf("reply = %+v", got)
	}
	if strings.Contains(got.Message, "Empty") {
		t.Fatal("syllabus without extracted text was used")
	}

	other := actor("s2", domain.RoleStudent)
	other.Department = "Mechanical"
	got, err = svc.AskTeacher(ctx, other, "explain operating systems")
	if err != nil {
		t.Fatal(err)
	}
	if got.Confidence != 0.6 {
		t.Fatalf("other department confidence = %.1f", got.Confidence)
	}
}

func TestAssistantHistory(t *testing.T) {
	svc, chats, _ := newTestAssistant(t)
	ctx := context.Background()
	a := actor("s1", domain.RoleStudent)

	if _, err := svc.AskCampus(ctx, a, "library"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AskTeacher(ctx, a, "hello"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AskCampus(ctx, actor("s2", domain.RoleStudent), "library"); err != nil {
		t.Fatal(err)
	}

	all, err := svc.History(ctx, a, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Assistant != AssistantTeacher || all[1].Kind != ReplyRouting {
		t.Fatalf("history = %+v", all)
	}
	campus, _ := svc.History(ctx, a, AssistantCampus, 10)
	if len(campus) != 1 || campus[0].Query != "library" {
		t.Fatalf("campus history = %+v", campus)
	}
	if _, err := svc.History(ctx, a, "oracle", 10); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown assistant err = %v", err)
	}

	// history writes are best effort
	chats.fail = errStoreDown
	if _, err := svc.AskCampus(ctx, a, "library"); err != nil {
		t.Fatalf("AskCampus with failing history: %v", err)
	}
}

func TestAssistantRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestAssistant(t)
	ctx := context.Background()

	if _, err := svc.AskCampus(ctx, nil, "library"); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("nil actor err = %v", err)
	}
	if _, err := svc.AskTeacher(ctx, actor("s1", domain.RoleStudent), "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank query err = %v", err)
	}
}

type failingResponder struct{}

func (failingResponder) Respond(ctx context.Context, prompt, syllabusContext string) (string, error) {
	return "", errStoreDown
}

func TestAskTeacherResponderError(t *testing.T) {
	svc := NewAssistantService(testKnowledge(t), failingResponder{}, &memChatRepo{}, nil, logger.Nop())
	if _, err := svc.AskTeacher(context.Background(), actor("s1", domain.RoleStudent), "good morning"); !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v", err)
	}
}

func TestParseAssistantKnowledge(t *testing.T) {
	if _, err := ParseAssistantKnowledge([]byte("campus: [")); err == nil {
		t.Fatal("malformed yaml accepted")
	}
	if _, err := ParseAssistantKnowledge([]byte("default_reply: hi\n")); err == nil {
		t.Fatal("missing defaults accepted")
	}

	kb := testKnowledge(t)
	if got := kb.SubjectNames(); len(got) != 3 || got[0] != "Data Structures" {
		t.Fatalf("subjects = %v", got)
	}
	if len(kb.Campus.FAQs) != 4 {
		t.Fatalf("faqs = %d", len(kb.Campus.FAQs))
	}
}
