package analysis

import "github.com/shaniidev/aranea/internal/ui"

// Approver decides whether a discovered JS file is parsed.
type Approver interface {
	Approve(candidate string, remaining int) bool
}

// AutoApprover parses everything.
type AutoApprover struct{}

func (AutoApprover) Approve(string, int) bool { return true }

// PromptApprover asks the operator on the console.
type PromptApprover struct{}

func (PromptApprover) Approve(string, int) bool {
	return ui.Confirm("\nParse this file? y/N:")
}

// ApproverFunc adapts a function to Approver.
type ApproverFunc func(candidate string, remaining int) bool

func (f ApproverFunc) Approve(candidate string, remaining int) bool { return f(candidate, remaining) }
