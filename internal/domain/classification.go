package domain

// DefaultClassifierConfidence is assumed when the model omits a score.
const DefaultClassifierConfidence = 0.95

// MaxKnowledgeBaseArticles caps the article references kept per result.
const MaxKnowledgeBaseArticles = 3

// ClassificationResult is the structured analysis of an issue description.
type ClassificationResult struct {
	Category              Category `json:"category"`
	Urgency               Urgency  `json:"urgency"`
	Solution              string   `json:"solution"`
	Department            string   `json:"department"`
	KnowledgeBaseArticles []string `json:"knowledge_base_articles"`
	Confidence            float64  `json:"confidence"`
}

// TicketInput converts an accepted analysis into ticket fields.
func (r ClassificationResult) TicketInput(userQuery string, status TicketStatus, resolvedBy ResolvedBy) TicketInput {
	confidence := r.Confidence
	return TicketInput{
		UserQuery:  userQuery,
		Category:   r.Category,
		Urgency:    r.Urgency,
		Solution:   r.Solution,
		Department: r.Department,
		Status:     status,
		ResolvedBy: resolvedBy,
		Confidence: &confidence,
	}
}
