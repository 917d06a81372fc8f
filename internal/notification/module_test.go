package notification

import (
	"context"
	"testing"

	"greenviz_backend/internal/events"
	"greenviz_backend/platform/logger"

	"github.com/google/uuid"
)

type testSender struct {
	calls      int
	lastTo     string
	lastLead   string
	lastSource string
}

func (s *testSender) SendLeadCapturedEmail(_ context.Context, toEmail, leadEmail, _, source string) error {
	s.calls++
	s.lastTo = toEmail
	s.lastLead = leadEmail
	s.lastSource = source
	return nil
}

func TestHandleLeadCaptured(t *testing.T) {
	sender := &testSender{}
	m := &Module{sender: sender, to: "sales@greenviz.fr", log: logger.New("development")}

	event := events.LeadCaptured{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    uuid.New(),
		ProjectID: uuid.New(),
		Email:     "marie@example.com",
		Source:    "landing",
	}

	if err := m.handleLeadCaptured(context.Background(), event); err != nil {
		t.Fatalf("handleLeadCaptured: %v", err)
	}

	if sender.calls != 1 {
		t.Fatalf("calls = %d, want 1", sender.calls)
	}
	if sender.lastTo != "sales@greenviz.fr" || sender.lastLead != "marie@example.com" {
		t.Fatalf("unexpected delivery: to=%q lead=%q", sender.lastTo, sender.lastLead)
	}
	if sender.lastSource != "landing" {
		t.Fatalf("source = %q", sender.lastSource)
	}
}

func TestHandleLeadCapturedWithoutSender(t *testing.T) {
	m := &Module{log: logger.New("development")}

	event := events.LeadCaptured{BaseEvent: events.NewBaseEvent(), Email: "a@b.fr"}
	if err := m.handleLeadCaptured(context.Background(), event); err != nil {
		t.Fatalf("disabled module must swallow events, got %v", err)
	}
}

func TestHandleLeadCapturedIgnoresOtherEvents(t *testing.T) {
	sender := &testSender{}
	m := &Module{sender: sender, to: "sales@greenviz.fr", log: logger.New("development")}

	event := events.ProjectGenerated{BaseEvent: events.NewBaseEvent(), ProjectID: uuid.New()}
	if err := m.handleLeadCaptured(context.Background(), event); err != nil {
		t.Fatalf("handleLeadCaptured: %v", err)
	}
	if sender.calls != 0 {
		t.Fatal("mismatched event types must not trigger a send")
	}
}
