package scan

import (
	"errors"
	"fmt"

	"github.com/zombor/product-scanner/internal/classifying"
)

// Tab is the page the user is looking at
type Tab string

const (
	TabAnalyze Tab = "analyze"
	TabHistory Tab = "history"
)

// ParseTab validates a tab name
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case TabAnalyze, TabHistory:
		return Tab(s), nil
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// Phase is the progress of the current scan on the analyze tab
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseAnalyzing Phase = "analyzing"
	PhaseResult    Phase = "result"
	PhaseError     Phase = "error"
)

// ErrorKind tells the UI which kind of error is displayed
type ErrorKind string

const (
	ErrorKindInput          ErrorKind = "input"
	ErrorKindFile           ErrorKind = "file"
	ErrorKindAuth           ErrorKind = "auth"
	ErrorKindClassification ErrorKind = "classification"
)

// ErrorKindOf classifies err for display
func ErrorKindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, classifying.ErrInputMissing):
		return ErrorKindInput
	case errors.Is(err, classifying.ErrInvalidFileType):
		return ErrorKindFile
	case classifying.IsAuthError(err):
		return ErrorKindAuth
	default:
		return ErrorKindClassification
	}
}

// State is everything the UI renders
type State struct {
	Tab               Tab                         `json:"tab"`
	Phase             Phase                       `json:"phase"`
	Image             string                      `json:"image,omitempty"`
	Description       string                      `json:"description"`
	Result            *classifying.AnalysisResult `json:"result,omitempty"`
	Error             string                      `json:"error,omitempty"`
	ErrorKind         ErrorKind                   `json:"errorKind,omitempty"`
	CredentialPrompt  bool                        `json:"credentialPrompt"`
	Warning           string                      `json:"warning,omitempty"`
	SelectedHistoryID string                      `json:"selectedHistoryId,omitempty"`
}

// InitialState is the state right after startup
func InitialState() State {
	return State{Tab: TabAnalyze, Phase: PhaseIdle}
}

// Event is something that happened to the UI state
type Event interface {
	apply(s State) State
}

// Reduce returns the state that follows s after e. It never mutates s.
func Reduce(s State, e Event) State {
	return e.apply(s)
}

// SwitchTab moves to another tab
type SwitchTab struct{ Tab Tab }

func (e SwitchTab) apply(s State) State {
	s.Tab = e.Tab
	return s
}

// SetImage replaces the current image; an empty Image drops it
type SetImage struct{ Image string }

func (e SetImage) apply(s State) State {
	s.Image = e.Image
	s.Error = ""
	s.ErrorKind = ""
	return s
}

// SetDescription replaces the current description
type SetDescription struct{ Description string }

func (e SetDescription) apply(s State) State {
	s.Description = e.Description
	return s
}

// InvalidFile reports a rejected upload
type InvalidFile struct{ Err error }

func (e InvalidFile) apply(s State) State {
	s.Error = e.Err.Error()
	s.ErrorKind = ErrorKindFile
	return s
}

// InputRejected reports an analyze action without image or description
type InputRejected struct{ Err error }

func (e InputRejected) apply(s State) State {
	s.Error = e.Err.Error()
	s.ErrorKind = ErrorKindInput
	return s
}

// AnalyzeStarted marks the beginning of a classification
type AnalyzeStarted struct{}

func (e AnalyzeStarted) apply(s State) State {
	s.Phase = PhaseAnalyzing
	s.Result = nil
	s.Error = ""
	s.ErrorKind = ""
	s.Warning = ""
	s.SelectedHistoryID = ""
	return s
}

// AnalyzeSucceeded carries the classification and the id it was archived under
type AnalyzeSucceeded struct {
	Result    classifying.AnalysisResult
	HistoryID string
}

func (e AnalyzeSucceeded) apply(s State) State {
	s.Phase = PhaseResult
	s.Result = cloneResult(e.Result)
	s.SelectedHistoryID = e.HistoryID
	return s
}

// AnalyzeFailed carries the classification failure
type AnalyzeFailed struct{ Err error }

func (e AnalyzeFailed) apply(s State) State {
	s.Phase = PhaseError
	s.Result = nil
	s.Error = e.Err.Error()
	s.ErrorKind = ErrorKindOf(e.Err)
	return s
}

// Reset starts a new scan
type Reset struct{}

func (e Reset) apply(s State) State {
	s.Phase = PhaseIdle
	s.Image = ""
	s.Description = ""
	s.Result = nil
	s.Error = ""
	s.ErrorKind = ""
	s.Warning = ""
	s.SelectedHistoryID = ""
	return s
}

// SelectHistory replays a stored scan
type SelectHistory struct{ Item ScanHistoryItem }

func (e SelectHistory) apply(s State) State {
	s.Tab = TabAnalyze
	s.Phase = PhaseResult
	s.Image = e.Item.Image
	s.Description = e.Item.Description
	s.Result = cloneResult(e.Item.Result)
	s.Error = ""
	s.ErrorKind = ""
	s.Warning = ""
	s.SelectedHistoryID = e.Item.ID
	return s
}

// CredentialPrompted records that the user was asked to select a key
type CredentialPrompted struct{}

func (e CredentialPrompted) apply(s State) State {
	s.CredentialPrompt = true
	return s
}

// CredentialSelected records that a key was selected
type CredentialSelected struct{}

func (e CredentialSelected) apply(s State) State {
	s.CredentialPrompt = false
	if s.ErrorKind == ErrorKindAuth {
		s.Error = ""
		s.ErrorKind = ""
		s.Phase = PhaseIdle
	}
	return s
}

// HistoryWriteFailed reports that a scan could not be archived
type HistoryWriteFailed struct{ Err error }

func (e HistoryWriteFailed) apply(s State) State {
	s.Warning = "The scan could not be saved to history: " + e.Err.Error()
	return s
}

func cloneResult(r classifying.AnalysisResult) *classifying.AnalysisResult {
	r.SuggestedTags = append([]string{}, r.SuggestedTags...)
	return &r
}
