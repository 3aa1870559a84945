package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type stubCompleter struct {
	reply  string
	err    error
	calls  int
	system string
	user   string
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) Complete(_ context.Context, systemPrompt, userPrompt string) (*Completion, error) {
	s.calls++
	s.system, s.user = systemPrompt, userPrompt
	if s.err != nil {
		return nil, s.err
	}
	return &Completion{Text: s.reply}, nil
}

type staticKnowledge string

func (k staticKnowledge) Excerpt() string { return string(k) }

func TestGatewayClassify(t *testing.T) {
	completer := &stubCompleter{reply: "```json\n" + bareReply + "\n```"}
	gateway := NewGateway(completer, nil)

	result, err := gateway.Classify(context.Background(), "The Wi-Fi is slow or disconnecting frequently.")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Category != domain.CategoryNetwork || result.Urgency != domain.UrgencyHigh || result.Confidence != 0.88 {
		t.Errorf("result = %+v", result)
	}
	if completer.user != "IT Issue: The Wi-Fi is slow or disconnecting frequently." {
		t.Errorf("user prompt = %q", completer.user)
	}
	if completer.system != SystemPrompt("") {
		t.Error("system prompt should be the fixed instruction")
	}
}

func TestGatewayIncludesKnowledgeBase(t *testing.T) {
	completer := &stubCompleter{reply: bareReply}
	gateway := NewGateway(completer, nil, WithKnowledgeBase(staticKnowledge("Network:\n- Slow Network Speed: Check bandwidth")))

	if _, err := gateway.Classify(context.Background(), "slow"); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !strings.HasSuffix(completer.system, "- Slow Network Speed: Check bandwidth") {
		t.Errorf("system prompt missing excerpt: %q", completer.system)
	}
}

func TestGatewayErrors(t *testing.T) {
	transport := &stubCompleter{err: errors.New("connection refused")}
	_, err := NewGateway(transport, nil).Classify(context.Background(), "printer")
	var ce *ClassificationError
	if !errors.As(err, &ce) || ce.Reason != ReasonTransport {
		t.Errorf("transport err = %v", err)
	}

	for _, reply := range []string{"not json at all", "null", "{}"} {
		malformed := &stubCompleter{reply: reply}
		result, err := NewGateway(malformed, nil).Classify(context.Background(), "printer")
		if !IsMalformed(err) || result != nil {
			t.Errorf("reply %q: result = %+v, err = %v", reply, result, err)
		}
	}

	empty := &stubCompleter{reply: bareReply}
	if _, err := NewGateway(empty, nil).Classify(context.Background(), "   "); !errors.Is(err, ErrEmptyIssue) {
		t.Errorf("empty err = %v", err)
	}
	if empty.calls != 0 {
		t.Errorf("completer called %d times for blank input", empty.calls)
	}
}

type memoryCache struct {
	entries map[string]string
	getErr  error
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.entries[key] = value
	return nil
}

func TestCachedClassifier(t *testing.T) {
	completer := &stubCompleter{reply: bareReply}
	cache := &memoryCache{entries: map[string]string{}}
	classifier := NewCachedClassifier(NewGateway(completer, nil), cache, time.Hour, nil)
	ctx := context.Background()

	first, err := classifier.Classify(ctx, "My printer is not working.")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := classifier.Classify(ctx, "  my PRINTER is   not working. ")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if completer.calls != 1 {
		t.Errorf("completer calls = %d, want 1", completer.calls)
	}
	if second.Category != first.Category || second.Confidence != first.Confidence {
		t.Errorf("cached = %+v, want %+v", second, first)
	}

	cache.getErr = errors.New("redis down")
	if _, err := classifier.Classify(ctx, "My printer is not working."); err != nil {
		t.Fatalf("cache failure surfaced: %v", err)
	}
	if completer.calls != 2 {
		t.Errorf("completer calls = %d, want 2", completer.calls)
	}
}
