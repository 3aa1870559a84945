package llm

import (
	"reflect"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const bareReply = `{"category": "Network", "urgency": "High", "solution": "Restart the router", "department": "Network Team", "knowledge_base_articles": ["No Internet Connection"], "confidence": 0.88}`

func TestParseClassificationFencedEqualsBare(t *testing.T) {
	bare, err := ParseClassification(bareReply)
	if err != nil {
		t.Fatalf("bare: %v", err)
	}

	for _, reply := range []string{
		"```json\n" + bareReply + "\n```",
		"```\n" + bareReply + "\n```",
		"  \n" + bareReply + "\n\n",
	} {
		fenced, err := ParseClassification(reply)
		if err != nil {
			t.Fatalf("ParseClassification(%q): %v", reply, err)
		}
		if !reflect.DeepEqual(fenced, bare) {
			t.Errorf("fenced = %+v, want %+v", fenced, bare)
		}
	}
}

func TestParseClassificationMalformed(t *testing.T) {
	for _, reply := range []string{
		"Sorry, I cannot help with that.",
		"null",
		"{}",
		"```json\nnull\n```",
		`["Network", "High"]`,
		`"Network"`,
		`{"department": "Network Team", "confidence": 0.9}`,
		`{"category": null, "urgency": null, "solution": null}`,
	} {
		result, err := ParseClassification(reply)
		if err == nil {
			t.Errorf("ParseClassification(%q) = %+v, want error", reply, result)
			continue
		}
		if !IsMalformed(err) {
			t.Errorf("ParseClassification(%q) err = %v, want malformed-json ClassificationError", reply, err)
		}
	}
}

func TestParseClassificationDefaults(t *testing.T) {
	got, err := ParseClassification(`{"category": "printer stuff", "urgency": "urgent!!", "solution": ["Check cable", " ", "Restart printer"]}`)
	if err != nil {
		t.Fatalf("ParseClassification: %v", err)
	}
	want := &domain.ClassificationResult{
		Category:              domain.CategoryOther,
		Urgency:               domain.UrgencyLow,
		Solution:              "Check cable\nRestart printer",
		Department:            domain.DepartmentGeneralSupport,
		KnowledgeBaseArticles: []string{},
		Confidence:            domain.DefaultClassifierConfidence,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseClassificationArticles(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{
			name:  "truncated to three",
			reply: `{"category": "Other", "knowledge_base_articles": ["a", "b", "c", "d"]}`,
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "objects with titles",
			reply: `{"category": "Account", "knowledge_base_articles": [{"title": "Forgot Password", "solution": "reset"}, "Account Locked"]}`,
			want:  []string{"Forgot Password", "Account Locked"},
		},
		{
			name:  "not a list",
			reply: `{"category": "Other", "knowledge_base_articles": "see docs"}`,
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClassification(tt.reply)
			if err != nil {
				t.Fatalf("ParseClassification: %v", err)
			}
			if !reflect.DeepEqual(got.KnowledgeBaseArticles, tt.want) {
				t.Errorf("articles = %v, want %v", got.KnowledgeBaseArticles, tt.want)
			}
		})
	}
}

func TestParseClassificationClampsConfidence(t *testing.T) {
	got, err := ParseClassification(`{"category": "Hardware", "confidence": 7}`)
	if err != nil {
		t.Fatalf("ParseClassification: %v", err)
	}
	if got.Confidence != 1 {
		t.Errorf("confidence = %v, want 1", got.Confidence)
	}
}
