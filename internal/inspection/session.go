package inspection

import (
	"time"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
)

// State is the stage an inspection session is in.
type State string

const (
	StateIdle           State = "idle"
	StateImagesSelected State = "images_selected"
	StateAnalyzing      State = "analyzing"
	StateResultReady    State = "result_ready"
	StateFailed         State = "failed"
)

// ErrInvalidTransition is wrapped by every rejected state change.
var ErrInvalidTransition = errors.NewStd("invalid inspection state transition")

// Session is one pickup/return inspection. Mutate it only through its
// methods; they keep Assessment set exactly when State is result_ready.
type Session struct {
	ID         string      `json:"id"`
	State      State       `json:"state"`
	Pickup     *Image      `json:"pickup,omitempty"`
	Return     *Image      `json:"return,omitempty"`
	Assessment *Assessment `json:"assessment,omitempty"`
	Error      string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, State: StateIdle, CreatedAt: now, UpdatedAt: now}
}

// Image returns the image stored for side.
func (s *Session) Image(side Side) (*Image, bool) {
	var img *Image
	switch side {
	case SidePickup:
		img = s.Pickup
	case SideReturn:
		img = s.Return
	}
	return img, img != nil
}

// Result returns the assessment, available only in result_ready.
func (s *Session) Result() (*Assessment, bool) {
	if s.State != StateResultReady || s.Assessment == nil {
		return nil, false
	}
	return s.Assessment, true
}

// SetImage stores the image for side and discards any earlier result.
// The session is images_selected once both images are present.
func (s *Session) SetImage(side Side, img Image) error {
	if s.State == StateAnalyzing {
		return s.invalid("set_image")
	}
	if len(img.Data) == 0 {
		return errors.Newf("%s image is empty", side).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}

	switch side {
	case SidePickup:
		s.Pickup = &img
	case SideReturn:
		s.Return = &img
	default:
		_, err := ParseSide(string(side))
		return err
	}

	s.clearOutcome()
	if s.Pickup != nil && s.Return != nil {
		s.moveTo(StateImagesSelected)
	} else {
		s.moveTo(StateIdle)
	}
	return nil
}

// BeginAnalysis starts an analysis. Failed sessions may retry.
func (s *Session) BeginAnalysis() error {
	if s.State != StateImagesSelected && s.State != StateFailed {
		return s.invalid("begin_analysis")
	}
	s.clearOutcome()
	s.moveTo(StateAnalyzing)
	return nil
}

// Complete records a finished assessment.
func (s *Session) Complete(a *Assessment) error {
	if s.State != StateAnalyzing || a == nil {
		return s.invalid("complete")
	}
	s.Assessment = a
	s.moveTo(StateResultReady)
	return nil
}

// Fail records why an analysis did not finish.
func (s *Session) Fail(cause error) error {
	if s.State != StateAnalyzing {
		return s.invalid("fail")
	}
	s.Error = "analysis failed"
	if cause != nil {
		s.Error = cause.Error()
	}
	s.moveTo(StateFailed)
	return nil
}

// Reset drops both images and any result.
func (s *Session) Reset() error {
	if s.State == StateAnalyzing {
		return s.invalid("reset")
	}
	s.Pickup = nil
	s.Return = nil
	s.clearOutcome()
	s.moveTo(StateIdle)
	return nil
}

func (s *Session) clearOutcome() {
	s.Assessment = nil
	s.Error = ""
}

func (s *Session) moveTo(state State) {
	s.State = state
	s.UpdatedAt = time.Now()
}

func (s *Session) invalid(action string) error {
	return errors.New(ErrInvalidTransition).
		Component(componentName).
		Category(errors.CategoryState).
		Context("state", string(s.State)).
		Context("action", action).
		Build()
}
