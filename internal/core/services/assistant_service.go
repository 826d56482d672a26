package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"campus-aid-buddy/internal/adapters/persistence/models"
	"campus-aid-buddy/internal/adapters/persistence/repositories"
	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/metrics"

	"github.com/rs/zerolog"
)

// Assistant kinds, stored on chat history rows
const (
	AssistantCampus  = "campus"
	AssistantTeacher = "teacher"
)

// Campus reply types
const (
	ReplyInfo     = "info"
	ReplyRouting  = "routing"
	ReplyFAQ      = "faq"
	ReplyFacility = "facility"
)

// Teacher reply modes
const (
	ModeAcademic       = "academic"
	ModeConversational = "conversational"
	ModeFallback       = "fallback"
)

const (
	maxHistory       = 100
	syllabusExcerpt  = 240
	noSyllabusPrompt = "Academic question without syllabus: "
)

// CampusReply is the campus assistant's answer
type CampusReply struct {
	Message          string   `json:"message"`
	Type             string   `json:"type"`
	SuggestedActions []string `json:"suggested_actions"`
}

// TeacherReply is the academic assistant's answer
type TeacherReply struct {
	Message            string   `json:"message"`
	Mode               string   `json:"mode"`
	Confidence         float64  `json:"confidence"`
	SuggestedQuestions []string `json:"suggested_questions,omitempty"`
}

// Responder turns a prompt, optionally grounded on syllabus text, into a reply
type Responder interface {
	Respond(ctx context.Context, prompt, syllabusContext string) (string, error)
}

// RuleResponder answers from canned replies in the knowledge file
type RuleResponder struct {
	kb *AssistantKnowledge
}

// NewRuleResponder creates a responder over kb
func NewRuleResponder(kb *AssistantKnowledge) *RuleResponder {
	return &RuleResponder{kb: kb}
}

// Respond implements Responder
func (r *RuleResponder) Respond(ctx context.Context, prompt, syllabusContext string) (string, error) {
	p := strings.ToLower(prompt)
	for _, c := range r.kb.Replies {
		if mentionsAny(p, c.Keywords) {
			return c.Reply, nil
		}
	}
	if syllabusContext != "" && mentionsAny(p, r.kb.ExplainKeywords) {
		return fmt.Sprintf(r.kb.ExplainTemplate, syllabusContext), nil
	}
	return r.kb.DefaultReply, nil
}

// AssistantService answers campus and academic questions and keeps history
type AssistantService struct {
	kb        *AssistantKnowledge
	responder Responder
	chats     repositories.ChatRepository
	syllabi   repositories.SyllabusRepository
	log       zerolog.Logger
}

// NewAssistantService creates an assistant over kb. A nil responder falls
// back to the rule-based one.
func NewAssistantService(
	kb *AssistantKnowledge,
	responder Responder,
	chats repositories.ChatRepository,
	syllabi repositories.SyllabusRepository,
	l zerolog.Logger,
) *AssistantService {
	if responder == nil {
		responder = NewRuleResponder(kb)
	}
	return &AssistantService{kb: kb, responder: responder, chats: chats, syllabi: syllabi, log: l}
}

// FAQs returns the campus FAQ list
func (s *AssistantService) FAQs() []FAQ {
	return append([]FAQ(nil), s.kb.Campus.FAQs...)
}

// Subjects returns the names of the built-in syllabi
func (s *AssistantService) Subjects() []string {
	return s.kb.SubjectNames()
}

// AskCampus answers a campus question and records the exchange
func (s *AssistantService) AskCampus(ctx context.Context, actor *domain.Actor, query string) (*CampusReply, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Validationf("query is required")
	}

	reply := CampusAnswer(s.kb, query)
	metrics.AssistantQueries.WithLabelValues(AssistantCampus, reply.Type).Inc()
	s.record(ctx, actor, AssistantCampus, query, reply.Message, reply.Type)
	return &reply, nil
}

// CampusAnswer scans departments, facilities, procedures, help and contact
// keywords in that order and falls back to the default FAQ reply.
func CampusAnswer(kb *AssistantKnowledge, query string) CampusReply {
	q := strings.ToLower(strings.TrimSpace(query))
	c := kb.Campus

	if e, ok := firstEntry(c.Departments, q); ok {
		return CampusReply{
			Message:          fmt.Sprintf("**%s Department Information:**\n%s", strings.ToUpper(e.Key), e.Info),
			Type:             ReplyRouting,
			SuggestedActions: c.DepartmentActions,
		}
	}
	if e, ok := firstEntry(c.Facilities, q); ok {
		return CampusReply{
			Message:          fmt.Sprintf("**%s Information:**\n%s", strings.ToUpper(e.Key), e.Info),
			Type:             ReplyFacility,
			SuggestedActions: c.FacilityActions,
		}
	}
	if e, ok := firstEntry(c.Procedures, q); ok {
		return CampusReply{
			Message:          fmt.Sprintf("**%s Process:**\n%s", strings.ToUpper(e.Key), e.Info),
			Type:             ReplyInfo,
			SuggestedActions: c.ProcedureActions,
		}
	}
	if mentionsAny(q, c.Help.Keywords) {
		return CampusReply{Message: c.Help.Message, Type: ReplyInfo, SuggestedActions: c.Help.Actions}
	}
	if mentionsAny(q, c.Contact.Keywords) {
		return CampusReply{Message: c.Contact.Message, Type: ReplyInfo, SuggestedActions: c.Contact.Actions}
	}
	return CampusReply{Message: c.Default.Message, Type: ReplyFAQ, SuggestedActions: c.Default.Actions}
}

// AskTeacher answers an academic or conversational question. Syllabus
// context comes from the built-in outlines and from syllabi uploaded for
// the actor's department.
func (s *AssistantService) AskTeacher(ctx context.Context, actor *domain.Actor, query string) (*TeacherReply, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Validationf("query is required")
	}

	reply, err := s.teacherReply(ctx, actor, query)
	if err != nil {
		return nil, err
	}
	metrics.AssistantQueries.WithLabelValues(AssistantTeacher, reply.Mode).Inc()
	s.record(ctx, actor, AssistantTeacher, query, reply.Message, reply.Mode)
	return reply, nil
}

func (s *AssistantService) teacherReply(ctx context.Context, actor *domain.Actor, query string) (*TeacherReply, error) {
	t := s.kb.Teacher
	q := strings.ToLower(query)

	if mentionsAny(q, t.InappropriateTopics) {
		return &TeacherReply{Message: t.FallbackMessage, Mode: ModeFallback, Confidence: 0.5}, nil
	}

	if s.isAcademic(q) {
		syllabusContext, err := s.syllabusContext(ctx, actor, q)
		if err != nil {
			return nil, err
		}
		if syllabusContext != "" {
			msg, err := s.responder.Respond(ctx, query, syllabusContext)
			if err != nil {
				return nil, err
			}
			return &TeacherReply{Message: msg, Mode: ModeAcademic, Confidence: 0.9, SuggestedQuestions: s.relatedQuestions(q)}, nil
		}
		msg, err := s.responder.Respond(ctx, noSyllabusPrompt+query, "")
		if err != nil {
			return nil, err
		}
		return &TeacherReply{Message: msg + t.NoSyllabusTip, Mode: ModeAcademic, Confidence: 0.6, SuggestedQuestions: s.relatedQuestions(q)}, nil
	}

	msg, err := s.responder.Respond(ctx, query, "")
	if err != nil {
		return nil, err
	}
	if mentionsAny(q, t.ConversationalTriggers) {
		return &TeacherReply{Message: msg, Mode: ModeConversational, Confidence: 0.9, SuggestedQuestions: t.ConversationalSuggestions}, nil
	}
	return &TeacherReply{Message: msg, Mode: ModeConversational, Confidence: 0.8, SuggestedQuestions: t.GeneralSuggestions}, nil
}

func (s *AssistantService) isAcademic(q string) bool {
	if mentionsAny(q, s.kb.Teacher.AcademicKeywords) {
		return true
	}
	for _, name := range s.kb.SubjectNames() {
		if strings.Contains(q, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// syllabusContext collects matching topics and chapters. The subject is the
// built-in syllabus named in the query, else the one named like the actor's
// department. Uploaded syllabi for the department are appended when their
// subject, title or extracted text matches.
func (s *AssistantService) syllabusContext(ctx context.Context, actor *domain.Actor, q string) (string, error) {
	var b strings.Builder

	if syl := s.subjectFor(q, actor.Department); syl != nil {
		var topics []string
		for _, topic := range syl.Topics {
			if termMatch(q, topic) {
				topics = append(topics, topic)
			}
		}
		var chapters []SyllabusChapter
		for _, ch := range syl.Chapters {
			if termMatch(q, ch.Title) || strings.Contains(strings.ToLower(ch.Content), q) {
				chapters = append(chapters, ch)
			}
		}
		if len(topics) > 0 || len(chapters) > 0 {
			fmt.Fprintf(&b, "Based on the %s syllabus:\n\n", syl.Subject)
			if len(topics) > 0 {
				fmt.Fprintf(&b, "**Related Topics:** %s\n\n", strings.Join(topics, ", "))
			}
			if len(chapters) > 0 {
				b.WriteString("**Chapter Information:**\n")
				for _, ch := range chapters {
					fmt.Fprintf(&b, "• %s: %s\n", ch.Title, ch.Content)
				}
			}
		}
	}

	if actor.Department != "" && s.syllabi != nil {
		uploaded, err := s.syllabi.ListByDepartment(ctx, actor.Department, "")
		if err != nil {
			return "", fmt.Errorf("list syllabi: %w", err)
		}
		for _, u := range uploaded {
			if !uploadedMatches(u, q) {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "**From %s (%s):** %s\n", u.Title, u.Subject, excerpt(u.Content, syllabusExcerpt))
		}
	}
	return b.String(), nil
}

func (s *AssistantService) subjectFor(q, department string) *StaticSyllabus {
	syllabi := s.kb.Teacher.Syllabi
	for i := range syllabi {
		if strings.Contains(q, strings.ToLower(syllabi[i].Subject)) {
			return &syllabi[i]
		}
	}
	dept := strings.ToLower(strings.TrimSpace(department))
	if dept == "" {
		return nil
	}
	for i := range syllabi {
		if strings.ToLower(syllabi[i].Subject) == dept {
			return &syllabi[i]
		}
	}
	return nil
}

func (s *AssistantService) relatedQuestions(q string) []string {
	for _, r := range s.kb.Teacher.RelatedQuestions {
		if mentionsAny(q, r.Keywords) {
			return r.Questions
		}
	}
	return s.kb.Teacher.DefaultRelated
}

// History returns the actor's recent exchanges, newest first. An empty
// assistant returns both kinds.
func (s *AssistantService) History(ctx context.Context, actor *domain.Actor, assistant string, limit int) ([]*models.ChatMessage, error) {
	if err := actorRequired(actor); err != nil {
		return nil, err
	}
	switch assistant {
	case "", AssistantCampus, AssistantTeacher:
	default:
		return nil, domain.Validationf("unknown assistant %q", assistant)
	}
	if limit <= 0 || limit > maxHistory {
		limit = maxHistory
	}
	return s.chats.ListByUser(ctx, actor.ID, assistant, limit)
}

// record stores an exchange. History is best effort; a failed write never
// fails the answer.
func (s *AssistantService) record(ctx context.Context, actor *domain.Actor, assistant, query, response, kind string) {
	if s.chats == nil {
		return
	}
	err := s.chats.Create(ctx, &models.ChatMessage{
		UserID:    actor.ID,
		Assistant: assistant,
		Query:     query,
		Response:  response,
		Kind:      kind,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", actor.ID).Str("assistant", assistant).Msg("failed to save chat message")
	}
}

// termMatch is true when term occurs in q or q occurs in term
func termMatch(q, term string) bool {
	t := strings.ToLower(term)
	return strings.Contains(q, t) || strings.Contains(t, q)
}

func uploadedMatches(u *models.Syllabus, q string) bool {
	if strings.TrimSpace(u.Content) == "" {
		return false
	}
	for _, field := range []string{u.Subject, u.Title} {
		if f := strings.ToLower(strings.TrimSpace(field)); f != "" && strings.Contains(q, f) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(u.Content), q)
}

func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

func mentionsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, w) {
			return true
		}
	}
	return false
}
