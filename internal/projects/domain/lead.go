package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionKind identifies a trackable lead engagement event.
type ActionKind string

const (
	ActionCalendlyClick ActionKind = "calendly"
	ActionPDFDownload   ActionKind = "pdf_download"
)

// KnownAction reports whether the kind is a recognized trackable event.
func KnownAction(kind ActionKind) bool {
	switch kind {
	case ActionCalendlyClick, ActionPDFDownload:
		return true
	}
	return false
}

// Lead is a captured email tied to exactly one project. It is created at
// unlock time with the project's attribution metadata and outlives the
// project conceptually.
type Lead struct {
	ID        uuid.UUID
	Email     string
	ProjectID uuid.UUID
	Metadata  Metadata
	CreatedAt time.Time

	EmailSent         bool
	EmailSentAt       *time.Time
	CalendlyClicked   bool
	CalendlyClickedAt *time.Time
	PDFDownloaded     bool
	PDFDownloadedAt   *time.Time
}

// NewLead creates a lead for an unlocked project, copying its metadata.
func NewLead(email Email, projectID uuid.UUID, metadata Metadata) *Lead {
	return &Lead{
		ID:        uuid.New(),
		Email:     email.String(),
		ProjectID: projectID,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}

// MarkEmailSent stamps the email-sent flag. Returns false if already stamped.
func (l *Lead) MarkEmailSent() bool {
	if l.EmailSent {
		return false
	}
	now := time.Now().UTC()
	l.EmailSent = true
	l.EmailSentAt = &now
	return true
}

// MarkCalendlyClicked stamps the scheduling-link click. Returns false if
// already stamped; the first timestamp is never overwritten.
func (l *Lead) MarkCalendlyClicked() bool {
	if l.CalendlyClicked {
		return false
	}
	now := time.Now().UTC()
	l.CalendlyClicked = true
	l.CalendlyClickedAt = &now
	return true
}

// MarkPDFDownloaded stamps the estimate-download flag. Returns false if
// already stamped.
func (l *Lead) MarkPDFDownloaded() bool {
	if l.PDFDownloaded {
		return false
	}
	now := time.Now().UTC()
	l.PDFDownloaded = true
	l.PDFDownloadedAt = &now
	return true
}

// Track stamps the flag for the given action kind. Returns (changed, known).
func (l *Lead) Track(kind ActionKind) (bool, bool) {
	switch kind {
	case ActionCalendlyClick:
		return l.MarkCalendlyClicked(), true
	case ActionPDFDownload:
		return l.MarkPDFDownloaded(), true
	}
	return false, false
}
