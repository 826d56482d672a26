package services

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed knowledge/assistant.yaml
var assistantYAML []byte

// KnowledgeEntry is one keyed row of a campus lookup table
type KnowledgeEntry struct {
	Key  string `yaml:"key"`
	Info string `yaml:"info"`
}

// FAQ is a canned question and answer
type FAQ struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// CannedBlock is a keyword-triggered message with follow-up actions
type CannedBlock struct {
	Keywords []string `yaml:"keywords"`
	Message  string   `yaml:"message"`
	Actions  []string `yaml:"actions"`
}

// CampusKnowledge drives the campus assistant
type CampusKnowledge struct {
	Departments       []KnowledgeEntry `yaml:"departments"`
	Facilities        []KnowledgeEntry `yaml:"facilities"`
	Procedures        []KnowledgeEntry `yaml:"procedures"`
	DepartmentActions []string         `yaml:"department_actions"`
	FacilityActions   []string         `yaml:"facility_actions"`
	ProcedureActions  []string         `yaml:"procedure_actions"`
	Help              CannedBlock      `yaml:"help"`
	Contact           CannedBlock      `yaml:"contact"`
	Default           CannedBlock      `yaml:"default"`
	FAQs              []FAQ            `yaml:"faqs"`
}

// SyllabusChapter is a chapter of a built-in syllabus
type SyllabusChapter struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

// StaticSyllabus is a built-in subject outline
type StaticSyllabus struct {
	Subject  string            `yaml:"subject"`
	Topics   []string          `yaml:"topics"`
	Concepts []string          `yaml:"concepts"`
	Chapters []SyllabusChapter `yaml:"chapters"`
}

// RelatedQuestions are suggested follow-ups for queries mentioning a keyword
type RelatedQuestions struct {
	Keywords  []string `yaml:"keywords"`
	Questions []string `yaml:"questions"`
}

// TeacherKnowledge drives the academic assistant
type TeacherKnowledge struct {
	AcademicKeywords          []string           `yaml:"academic_keywords"`
	ConversationalTriggers    []string           `yaml:"conversational_triggers"`
	InappropriateTopics       []string           `yaml:"inappropriate_topics"`
	FallbackMessage           string             `yaml:"fallback_message"`
	NoSyllabusTip             string             `yaml:"no_syllabus_tip"`
	ConversationalSuggestions []string           `yaml:"conversational_suggestions"`
	GeneralSuggestions        []string           `yaml:"general_suggestions"`
	RelatedQuestions          []RelatedQuestions `yaml:"related_questions"`
	DefaultRelated            []string           `yaml:"default_related"`
	Syllabi                   []StaticSyllabus   `yaml:"syllabi"`
}

// CannedReply is a responder reply triggered by any of its keywords
type CannedReply struct {
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

// AssistantKnowledge is the parsed knowledge file. Every list is scanned in
// file order and the first match wins.
type AssistantKnowledge struct {
	Campus          CampusKnowledge  `yaml:"campus"`
	Teacher         TeacherKnowledge `yaml:"teacher"`
	Replies         []CannedReply    `yaml:"replies"`
	ExplainKeywords []string         `yaml:"explain_keywords"`
	ExplainTemplate string           `yaml:"explain_template"`
	DefaultReply    string           `yaml:"default_reply"`
}

// LoadAssistantKnowledge parses the embedded knowledge file
func LoadAssistantKnowledge() (*AssistantKnowledge, error) {
	return ParseAssistantKnowledge(assistantYAML)
}

// ParseAssistantKnowledge parses and sanity-checks a knowledge document
func ParseAssistantKnowledge(data []byte) (*AssistantKnowledge, error) {
	var kb AssistantKnowledge
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("parse assistant knowledge: %w", err)
	}
	if kb.Campus.Default.Message == "" || kb.DefaultReply == "" || kb.Teacher.FallbackMessage == "" {
		return nil, fmt.Errorf("assistant knowledge: default replies are required")
	}
	if !strings.Contains(kb.ExplainTemplate, "%s") {
		return nil, fmt.Errorf("assistant knowledge: explain_template needs a %%s placeholder")
	}
	lower := func(list []string) {
		for i := range list {
			list[i] = strings.ToLower(list[i])
		}
	}
	lower(kb.Campus.Help.Keywords)
	lower(kb.Campus.Contact.Keywords)
	lower(kb.Teacher.AcademicKeywords)
	lower(kb.Teacher.ConversationalTriggers)
	lower(kb.Teacher.InappropriateTopics)
	lower(kb.ExplainKeywords)
	for i := range kb.Replies {
		lower(kb.Replies[i].Keywords)
	}
	for i := range kb.Teacher.RelatedQuestions {
		lower(kb.Teacher.RelatedQuestions[i].Keywords)
	}
	return &kb, nil
}

// SubjectNames lists the built-in syllabus subjects
func (kb *AssistantKnowledge) SubjectNames() []string {
	out := make([]string, len(kb.Teacher.Syllabi))
	for i, s := range kb.Teacher.Syllabi {
		out[i] = s.Subject
	}
	return out
}

func firstEntry(entries []KnowledgeEntry, query string) (KnowledgeEntry, bool) {
	for _, e := range entries {
		if strings.Contains(query, e.Key) {
			return e, true
		}
	}
	return KnowledgeEntry{}, false
}
