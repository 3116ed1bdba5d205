package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/product-scanner/internal/classifying"
	"github.com/zombor/product-scanner/internal/credential"
)

// ErrAnalysisInFlight is returned while a classification is running
var ErrAnalysisInFlight = errors.New("an analysis is already in progress")

var errAnalysisAborted = errors.New("analysis aborted, please try again")

// IDGenerator generates unique IDs for history items
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Controller owns the UI state and runs capture, classify, display and
// archive. State changes go through Reduce; the classifier call runs
// outside the lock.
type Controller struct {
	mu          sync.Mutex
	state       State
	classifier  classifying.Classifier
	history     *History
	picker      credential.Picker
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewController creates a new Controller with default ID generator and time
// source. picker may be nil when no credential selection is available.
func NewController(classifier classifying.Classifier, history *History, picker credential.Picker) *Controller {
	return NewControllerWithDeps(classifier, history, picker, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewControllerWithDeps creates a new Controller with custom dependencies for testing
func NewControllerWithDeps(classifier classifying.Classifier, history *History, picker credential.Picker, idGen IDGenerator, timeSrc TimeSource) *Controller {
	return &Controller{
		state:       InitialState(),
		classifier:  classifier,
		history:     history,
		picker:      picker,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) dispatch(e Event) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, e)
	return c.state
}

// dispatchIdle applies e unless an analysis is running
func (c *Controller) dispatchIdle(e Event) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == PhaseAnalyzing {
		return c.state, ErrAnalysisInFlight
	}
	c.state = Reduce(c.state, e)
	return c.state, nil
}

// SwitchTab moves to another tab
func (c *Controller) SwitchTab(tab Tab) State {
	return c.dispatch(SwitchTab{Tab: tab})
}

// UploadImage validates an uploaded file and makes it the current image
func (c *Controller) UploadImage(data []byte, contentType, filename string) (State, error) {
	img, err := classifying.DecodeUpload(data, contentType, filename)
	if err != nil {
		slog.Warn("Rejected upload", "filename", filename, "content_type", contentType, "error", err)
		if errors.Is(err, classifying.ErrInvalidFileType) {
			state, inFlight := c.dispatchIdle(InvalidFile{Err: err})
			if inFlight != nil {
				return state, inFlight
			}
			return state, err
		}
		return c.State(), err
	}
	return c.dispatchIdle(SetImage{Image: img.DataURL()})
}

// ClearImage drops the current image
func (c *Controller) ClearImage() (State, error) {
	return c.dispatchIdle(SetImage{})
}

// SetDescription replaces the current description
func (c *Controller) SetDescription(description string) (State, error) {
	return c.dispatchIdle(SetDescription{Description: description})
}

// Reset starts a new scan
func (c *Controller) Reset() (State, error) {
	return c.dispatchIdle(Reset{})
}

// Analyze classifies the current image and description. On success the
// result is shown and archived; a failed archive write only sets a warning.
func (c *Controller) Analyze(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.state.Phase == PhaseAnalyzing {
		state := c.state
		c.mu.Unlock()
		return state, ErrAnalysisInFlight
	}

	image := c.state.Image
	description := c.state.Description
	img, err := classifying.ParseDataURL(image)
	if err != nil {
		c.state = Reduce(c.state, InvalidFile{Err: fmt.Errorf("%w: %v", classifying.ErrInvalidFileType, err)})
		state := c.state
		c.mu.Unlock()
		return state, classifying.ErrInvalidFileType
	}

	req := classifying.Request{Image: img, Description: description}
	if err := req.Validate(); err != nil {
		c.state = Reduce(c.state, InputRejected{Err: err})
		state := c.state
		c.mu.Unlock()
		return state, err
	}

	c.state = Reduce(c.state, AnalyzeStarted{})
	c.mu.Unlock()

	// A panic below must not leave the controller stuck in PhaseAnalyzing
	settled := false
	defer func() {
		if !settled {
			c.dispatch(AnalyzeFailed{Err: &classifying.ClassificationError{Err: errAnalysisAborted}})
		}
	}()

	c.ensureCredential(ctx)

	slog.Info("Analyzing product", "classifier", c.classifier.Name(), "has_image", img != nil, "has_description", strings.TrimSpace(description) != "")
	result, err := c.classifier.Classify(ctx, req)
	if err != nil {
		slog.Error("Failed to analyze product", "classifier", c.classifier.Name(), "error", err)
		if classifying.IsAuthError(err) {
			c.promptCredential(ctx)
		}
		settled = true
		return c.dispatch(AnalyzeFailed{Err: err}), err
	}

	item := ScanHistoryItem{
		ID:          c.idGenerator.Generate(),
		Timestamp:   c.timeSource.Now().UnixMilli(),
		Image:       image,
		Description: description,
		Result:      *result,
	}
	item.Result.SuggestedTags = append([]string{}, result.SuggestedTags...)

	settled = true
	state := c.dispatch(AnalyzeSucceeded{Result: *result, HistoryID: item.ID})
	if err := c.history.Append(item); err != nil {
		slog.Warn("Failed to save scan to history", "id", item.ID, "error", err)
		state = c.dispatch(HistoryWriteFailed{Err: err})
	}
	return state, nil
}

// ensureCredential asks for a key when none is selected. Analysis goes ahead
// either way.
func (c *Controller) ensureCredential(ctx context.Context) {
	if c.picker == nil {
		return
	}
	has, err := c.picker.HasCredential(ctx)
	if err != nil {
		slog.Debug("Credential check failed", "error", err)
		return
	}
	if !has {
		c.promptCredential(ctx)
	}
}

func (c *Controller) promptCredential(ctx context.Context) {
	if c.picker == nil {
		return
	}
	if err := c.picker.PromptSelect(ctx); err != nil {
		slog.Debug("Credential prompt failed", "error", err)
		return
	}
	c.dispatch(CredentialPrompted{})
}

// CredentialSelected records that the user picked a key
func (c *Controller) CredentialSelected() State {
	return c.dispatch(CredentialSelected{})
}

// PromptCredential lets the user reopen the key picker
func (c *Controller) PromptCredential(ctx context.Context) State {
	c.promptCredential(ctx)
	return c.State()
}

// SelectHistory loads a stored scan into the view without classifying again
func (c *Controller) SelectHistory(id string) (State, error) {
	item, err := c.history.Get(id)
	if err != nil {
		return c.State(), err
	}
	return c.dispatchIdle(SelectHistory{Item: item})
}

// History returns the stored scans, newest first
func (c *Controller) History() []ScanHistoryItem {
	return c.history.Items()
}

// ClearHistory empties the history once the user has confirmed
func (c *Controller) ClearHistory(confirmed bool) error {
	if err := c.history.Clear(confirmed); err != nil {
		return err
	}
	slog.Info("History cleared")
	return nil
}
