package prompt

import (
	"fmt"

	"github.com/bethropolis/promptpack/internal/reader"
)

// invocationError wraps a reader that panicked
type invocationError struct {
	path  string
	cause any
}

func (e *invocationError) Error() string {
	return fmt.Sprintf("reading %s panicked: %v", e.path, e.cause)
}

// interpret turns a read outcome into content, or into a PromptError
// without its Path
func interpret(out readOutcome) (string, *PromptError) {
	if out.err != nil {
		return "", &PromptError{Error: KindInvocationError, Message: out.err.Error()}
	}

	res := out.res
	if res.Failed() {
		msg := res.Message
		if msg == "" && res.Error == reader.KindFileTooLarge {
			msg = fmt.Sprintf("Size: %d bytes", res.Size)
		}
		return "", &PromptError{Error: string(res.Error), Message: msg}
	}
	if !res.HasContent {
		return "", &PromptError{Error: KindUnexpectedResponse, Message: "Invalid content received from reader."}
	}
	return res.Content, nil
}

func internalError(detail string) *Artifact {
	return &Artifact{
		Errors: []PromptError{{
			Path:    "N/A",
			Error:   KindInternalError,
			Message: "Selected files data is invalid: " + detail,
		}},
		FileDetails: []FileDetail{},
	}
}
