package models

import (
	"fmt"
	"time"
)

// Subject is the category a contact message is filed under.
type Subject string

const (
	SubjectGeneral     Subject = "general"
	SubjectSupport     Subject = "support"
	SubjectOrder       Subject = "order"
	SubjectReturn      Subject = "return"
	SubjectPartnership Subject = "partnership"
	SubjectFeedback    Subject = "feedback"
)

// Subjects lists every category in display order.
var Subjects = []Subject{
	SubjectGeneral,
	SubjectSupport,
	SubjectOrder,
	SubjectReturn,
	SubjectPartnership,
	SubjectFeedback,
}

var subjectLabels = map[Subject]string{
	SubjectGeneral:     "General Inquiry",
	SubjectSupport:     "Customer Support",
	SubjectOrder:       "Order Issue",
	SubjectReturn:      "Return/Refund",
	SubjectPartnership: "Partnership",
	SubjectFeedback:    "Feedback",
}

// Label returns the human readable name shown in the contact form.
func (s Subject) Label() string {
	if l, ok := subjectLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is one of the known categories.
func (s Subject) Valid() bool {
	_, ok := subjectLabels[s]
	return ok
}

// ParseSubject validates a raw category value.
func ParseSubject(raw string) (Subject, error) {
	s := Subject(raw)
	if !s.Valid() {
		return "", &ValidationError{Field: "subject", Message: fmt.Sprintf("unknown subject %q", raw)}
	}
	return s, nil
}

// ContactMessage is an inquiry submitted through the contact form.
// Messages are never updated in place.
type ContactMessage struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Subject   Subject   `json:"subject" yaml:"subject"`
	Message   string    `json:"message" yaml:"message"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}
