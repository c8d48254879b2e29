// Package progress models the fixed sequence of will creation steps.
package progress

import (
	"fmt"
	"strings"
)

// Step is one screen of the will creation wizard.
type Step string

const (
	StepTemplate       Step = "template"
	StepAIChat         Step = "ai_chat"
	StepContactInfo    Step = "contact_info"
	StepDocumentUpload Step = "document_upload"
	StepVideoRecording Step = "video_recording"
	StepFinalReview    Step = "final_review"
	StepCompletion     Step = "completion"
)

var order = []Step{
	StepTemplate,
	StepAIChat,
	StepContactInfo,
	StepDocumentUpload,
	StepVideoRecording,
	StepFinalReview,
	StepCompletion,
}

// Steps returns the wizard steps in order.
func Steps() []Step {
	out := make([]Step, len(order))
	copy(out, order)
	return out
}

// First is where a new or unresumable flow begins.
func First() Step { return order[0] }

// Index returns the position of s, or -1 when s is not a step.
func (s Step) Index() int {
	for i, st := range order {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool { return s.Index() >= 0 }

// Terminal reports whether s is the last step.
func (s Step) Terminal() bool { return s == StepCompletion }

func (s Step) String() string { return string(s) }

// Parse validates a step name.
func Parse(name string) (Step, error) {
	s := Step(strings.TrimSpace(strings.ToLower(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown step %q", name)
	}
	return s, nil
}

// Next returns the step following s. The completion step has no successor and
// is returned unchanged with ok=false.
func Next(s Step) (Step, bool) {
	i := s.Index()
	if i < 0 {
		return First(), false
	}
	if i == len(order)-1 {
		return s, false
	}
	return order[i+1], true
}

// Previous returns the step before s for manual back navigation.
func Previous(s Step) (Step, bool) {
	i := s.Index()
	if i <= 0 {
		return First(), false
	}
	return order[i-1], true
}

// Position describes where a user should land when re-entering the wizard.
type Position struct {
	WillID   string `json:"willId,omitempty"`
	Step     Step   `json:"step"`
	Redirect bool   `json:"redirect"`
}

// Resume computes the landing position. Without a resumable will the flow
// restarts at the first step and Redirect is set; this is never an error.
func Resume(willID string, stored Step, found bool) Position {
	if willID == "" || !found {
		return Position{Step: First(), Redirect: true}
	}
	if !stored.Valid() {
		return Position{WillID: willID, Step: First(), Redirect: true}
	}
	return Position{WillID: willID, Step: stored}
}
