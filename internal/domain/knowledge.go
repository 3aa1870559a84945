package domain

// KnowledgeBaseEntry is a reference article for a category.
type KnowledgeBaseEntry struct {
	Title    string `json:"title"`
	Solution string `json:"solution"`
}
