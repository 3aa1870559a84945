package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type rawClassification struct {
	Category   string          `json:"category"`
	Urgency    string          `json:"urgency"`
	Solution   json.RawMessage `json:"solution"`
	Department string          `json:"department"`
	Articles   json.RawMessage `json:"knowledge_base_articles"`
	Confidence *float64        `json:"confidence"`
}

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ParseClassification decodes a model reply. Fenced and bare JSON parse the
// same. Closed-set fields are normalised and confidence defaults to 0.95.
func ParseClassification(reply string) (*domain.ClassificationResult, error) {
	body := StripCodeFence(reply)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, malformedReply(err, body)
	}
	if !hasClassificationField(fields) {
		return nil, malformedReply(errNoClassification, body)
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, malformedReply(err, body)
	}

	result := &domain.ClassificationResult{
		Category:              domain.NormalizeCategory(raw.Category),
		Urgency:               domain.NormalizeUrgency(raw.Urgency),
		Solution:              decodeSolution(raw.Solution),
		Department:            strings.TrimSpace(raw.Department),
		KnowledgeBaseArticles: decodeArticles(raw.Articles),
		Confidence:            domain.DefaultClassifierConfidence,
	}
	if result.Department == "" {
		result.Department = domain.DepartmentGeneralSupport
	}
	if raw.Confidence != nil {
		result.Confidence = domain.ClampConfidence(*raw.Confidence)
	}
	return result, nil
}

var errNoClassification = errors.New("reply has no category, urgency or solution")

// hasClassificationField reports whether a decoded reply object sets at least
// one of the fields a classification is built from. A JSON null decodes to a
// nil map.
func hasClassificationField(fields map[string]json.RawMessage) bool {
	for _, key := range []string{"category", "urgency", "solution"} {
		if value, ok := fields[key]; ok && string(value) != "null" {
			return true
		}
	}
	return false
}

func malformedReply(err error, body string) *ClassificationError {
	return &ClassificationError{
		Reason: ReasonMalformedJSON,
		Err:    fmt.Errorf("parsing model reply: %w (response: %s)", err, truncate(body, 200)),
	}
}

// decodeSolution accepts a string or a list of bullet strings.
func decodeSolution(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return strings.TrimSpace(text)
	}
	var steps []string
	if json.Unmarshal(raw, &steps) == nil {
		lines := make([]string, 0, len(steps))
		for _, s := range steps {
			if s = strings.TrimSpace(s); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	}
	return strings.TrimSpace(string(raw))
}

// decodeArticles accepts a list of titles or of {title, ...} objects and
// keeps at most MaxKnowledgeBaseArticles non-empty entries.
func decodeArticles(raw json.RawMessage) []string {
	articles := []string{}
	if len(raw) == 0 {
		return articles
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return articles
	}
	for _, item := range items {
		if len(articles) == domain.MaxKnowledgeBaseArticles {
			break
		}
		var title string
		if json.Unmarshal(item, &title) != nil {
			var obj struct {
				Title string `json:"title"`
			}
			if json.Unmarshal(item, &obj) != nil {
				continue
			}
			title = obj.Title
		}
		if title = strings.TrimSpace(title); title != "" {
			articles = append(articles, title)
		}
	}
	return articles
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
