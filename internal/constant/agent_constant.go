package constant

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleSystem    = "system"
	MessageRoleTool      = "tool"
)

const (
	// Ingestion topic for finding embedding jobs.
	TopicEmbedFinding = "embed_finding"
)
