package llm

import "strings"

const systemPrompt = `You are an expert IT helpdesk AI assistant. Analyze the user's IT issue and provide a structured response.

Response must be valid JSON with this exact structure:
{
    "category": "one of: Software, Hardware, Network, Login/Access, Other",
    "urgency": "one of: High, Medium, Low",
    "solution": "detailed troubleshooting steps in 3-5 bullet points",
    "department": "one of: Software Team, Hardware Team, Network Team, IT Security, General Support",
    "knowledge_base_articles": ["relevant article 1", "relevant article 2"],
    "confidence": 0.95
}

Classification rules:
- High urgency: System down, security breach, critical data loss, many users affected
- Medium urgency: Single user unable to work, performance issues, software crashes
- Low urgency: Enhancement requests, questions, minor inconveniences

Provide practical, actionable solutions.`

const knowledgeBaseHeading = "Knowledge base articles (cite titles in knowledge_base_articles when relevant):"

// SystemPrompt returns the fixed instruction, extended with a knowledge base
// excerpt when one is given.
func SystemPrompt(knowledgeExcerpt string) string {
	knowledgeExcerpt = strings.TrimSpace(knowledgeExcerpt)
	if knowledgeExcerpt == "" {
		return systemPrompt
	}
	return systemPrompt + "\n\n" + knowledgeBaseHeading + "\n" + knowledgeExcerpt
}

// UserPrompt wraps the issue text.
func UserPrompt(issue string) string {
	return "IT Issue: " + issue
}
