package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest asks a backend to continue Prompt in a forced language.
// LanguageToken is the model-specific start token (e.g. "fr_XX"); chat
// backends use LanguageName instead.
type CompletionRequest struct {
	Model         string
	Prompt        string
	Language      string
	LanguageToken string
	LanguageName  string
	MaxTokens     int
	NumCandidates int
}

// Candidate is one generated sequence.
type Candidate struct {
	Text string
}

// CompletionResponse contains the result of a completion request.
type CompletionResponse struct {
	Candidates []Candidate
	Model      string
}

// chatMessages renders a request as a system + user exchange for chat-style
// backends that cannot take a forced start token.
func chatMessages(req CompletionRequest) []Message {
	language := req.LanguageName
	if language == "" {
		language = req.Language
	}
	return []Message{
		{Role: RoleSystem, Content: "You reply to direct messages. Respond only in " + language + ", in one short message."},
		{Role: RoleUser, Content: req.Prompt},
	}
}
