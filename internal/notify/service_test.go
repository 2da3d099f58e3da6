package notify

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"wallet-lifecycle-go/internal/models"
)

type memoryStore struct {
	mu    sync.Mutex
	items []models.Notification
}

func (m *memoryStore) InsertNotification(ctx context.Context, n models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, n)
	return nil
}

type sentMail struct {
	to, subject, body string
}

type memoryMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *memoryMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

type memoryMirror struct {
	mu     sync.Mutex
	events []models.LifecycleEvent
}

func (m *memoryMirror) Post(ctx context.Context, e models.LifecycleEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func TestService_FanOut(t *testing.T) {
	templates, err := LoadTemplates()
	if err != nil {
		t.Fatalf("LoadTemplates failed: %v", err)
	}

	d := NewDispatcher(DispatcherConfig{Workers: 2, QueueSize: 16, MaxAttempts: 1, TaskTimeout: time.Second}, nil)
	d.Start(context.Background())

	store := &memoryStore{}
	mailer := &memoryMailer{}
	mirror := &memoryMirror{}
	svc := NewService(d, store, Options{Mailer: mailer, Templates: templates, Mirror: mirror})

	svc.InApp(models.Notification{UserId: "u1", Type: "transaction", Title: "Withdrawal Pending"})
	svc.Email("u1@example.com", TemplateOtp, map[string]any{
		"Name": "Ada", "Purpose": "email verification", "Code": "123456", "ValidMinutes": 15,
	})
	svc.Event(models.LifecycleEvent{Type: models.EventDepositApproved, UserId: "u1", EntryId: "d1"})

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if len(store.items) != 1 || store.items[0].Id == "" || store.items[0].CreatedAt.IsZero() {
		t.Errorf("Expected one stamped notification, got %+v", store.items)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("Expected one email, got %d", len(mailer.sent))
	}
	if mailer.sent[0].subject != "Your email verification code" {
		t.Errorf("Unexpected subject %q", mailer.sent[0].subject)
	}
	if !strings.Contains(mailer.sent[0].body, "123456") {
		t.Error("Expected code in email body")
	}
	if len(mirror.events) != 1 || mirror.events[0].Reference() != "d1-deposit_approved" {
		t.Errorf("Unexpected mirrored events: %+v", mirror.events)
	}
}

func TestService_EmailDisabled(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Workers: 1, QueueSize: 1}, nil)
	svc := NewService(d, &memoryStore{}, Options{})

	svc.Email("x@example.com", TemplateOtp, nil)
	if len(d.queue) != 0 {
		t.Errorf("Expected no task without a mailer, got %d", len(d.queue))
	}
}

func TestTemplates_Render(t *testing.T) {
	templates, err := LoadTemplates()
	if err != nil {
		t.Fatalf("LoadTemplates failed: %v", err)
	}

	subject, body, err := templates.Render(TemplateWithdrawal, map[string]any{
		"Name": "Ada", "Id": "w1", "Symbol": "BTC", "Amount": "0.1", "Fee": "0.0005",
		"Address": "bc1q<script>", "Network": "bitcoin", "Status": "completed", "TxHash": "0xabc",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if subject != "Withdrawal completed: 0.1 BTC" {
		t.Errorf("Unexpected subject %q", subject)
	}
	if strings.Contains(body, "<script>") {
		t.Error("Expected address to be HTML escaped")
	}
	if !strings.Contains(body, "0xabc") {
		t.Error("Expected tx hash in body")
	}

	if _, _, err := templates.Render("missing", nil); err == nil {
		t.Error("Expected error for unknown template")
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"email_verification", "Email Verification"},
		{"password_reset", "Password Reset"},
		{"withdrawal", "Withdrawal"},
	}
	for _, tt := range tests {
		if got := Title(tt.in); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
