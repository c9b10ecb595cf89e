package domain

import "time"

// Slot holds every result derived for one business within a session.
// Nil fields mean the corresponding step has not run since the last reset.
type Slot struct {
	PlaceID         string         `json:"place_id,omitempty"`
	Raw             *Collection    `json:"raw,omitempty"`
	Processed       *Collection    `json:"processed,omitempty"`
	Themes          *ThemeSet      `json:"themes,omitempty"`
	Summary         *string        `json:"summary,omitempty"`
	Recommendations *string        `json:"recommendations,omitempty"`
	Actionability   *Actionability `json:"actionability,omitempty"`
}

func (s *Slot) reset() { *s = Slot{} }

// Session is the whole dashboard state for one user. It replaces the
// implicit global UI state with explicit named slots.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Single  Slot `json:"single"`
	FromCSV bool `json:"from_csv,omitempty"`

	A          Slot    `json:"a"`
	B          Slot    `json:"b"`
	Compared   bool    `json:"compared,omitempty"`
	Comparison *string `json:"comparison,omitempty"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now}
}

// ResetSingle clears the single-business slot.
func (s *Session) ResetSingle() {
	s.Single.reset()
	s.FromCSV = false
}

// ResetCompare clears both comparison slots and the comparison result.
func (s *Session) ResetCompare() {
	s.A.reset()
	s.B.reset()
	s.Compared = false
	s.Comparison = nil
}
