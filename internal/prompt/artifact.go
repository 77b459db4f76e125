package prompt

// InstructionKey is the FileDetail path used for the instruction's tokens
const InstructionKey = "Instruction"

// Error kinds raised by the assembler itself. File-level kinds come from
// the reader (NotFound, PermissionDenied, NotAFile, FileTooLarge, ReadError,
// BinaryFile).
const (
	KindInvocationError    = "InvocationError"
	KindUnexpectedResponse = "UnexpectedResponse"
	KindInternalError      = "InternalError"
)

// PromptError records one file that could not be included
type PromptError struct {
	Path    string `json:"path"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (e PromptError) String() string {
	if e.Message == "" {
		return e.Error
	}
	return e.Error + ": " + e.Message
}

// FileDetail is the token count of one file, or of the instruction when
// Path is InstructionKey. Failed files have a zero count.
type FileDetail struct {
	Path       string `json:"path"`
	TokenCount int    `json:"tokenCount"`
	Error      string `json:"error,omitempty"`
}

// Artifact is the assembled prompt
type Artifact struct {
	FormattedPrompt string        `json:"formattedPrompt"`
	Errors          []PromptError `json:"errors"`
	FileDetails     []FileDetail  `json:"fileDetails"`
}

// FileTokens sums the file details, excluding the instruction
func (a *Artifact) FileTokens() int {
	total := 0
	for _, d := range a.FileDetails {
		if d.Path != InstructionKey {
			total += d.TokenCount
		}
	}
	return total
}

// InstructionTokens returns the instruction's token count, 0 when absent
func (a *Artifact) InstructionTokens() int {
	for _, d := range a.FileDetails {
		if d.Path == InstructionKey {
			return d.TokenCount
		}
	}
	return 0
}

// TotalTokens is FileTokens plus InstructionTokens
func (a *Artifact) TotalTokens() int {
	return a.FileTokens() + a.InstructionTokens()
}

// HasErrors reports a partial artifact
func (a *Artifact) HasErrors() bool {
	return len(a.Errors) > 0
}
