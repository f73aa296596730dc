package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionState is the per-call snapshot written after every turn.
// - Record: the customer data collected so far
// - Stage: derived booking stage at the time of the snapshot
type SessionState struct {
	// Identity
	SessionID string `json:"session_id"`
	RoomName  string `json:"room_name"`

	Record *CustomerRecord `json:"record"`
	Stage  Stage           `json:"stage"`
	Turns  int             `json:"turns"`
	Closed bool            `json:"closed,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrNilRecord     = errors.New("customer record is nil")
	ErrStageMismatch = errors.New("stage does not match record")
)

func NewSessionState(sessionID, roomName string, now time.Time) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		RoomName:  roomName,
		Record:    NewCustomerRecord(),
		Stage:     StageCollecting,
		StartedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Sync refreshes the derived stage from the record.
func (s *SessionState) Sync() {
	if s == nil || s.Record == nil {
		return
	}
	s.Stage = s.Record.Stage()
}

// EnsureRecord makes sure s.Record is initialized.
func (s *SessionState) EnsureRecord() {
	if s.Record == nil {
		s.Record = NewCustomerRecord()
	}
}

func (s *SessionState) Validate() error {
	if s == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	if s.Record == nil {
		return ErrNilRecord
	}
	if s.Stage != "" && s.Stage != s.Record.Stage() {
		return fmt.Errorf("%w: stage=%s record=%s", ErrStageMismatch, s.Stage, s.Record.Stage())
	}
	// an appointment can only exist for a confirmed service
	if s.Record.Appointment != nil && s.Record.ServiceCategory == "" {
		return fmt.Errorf("%w: appointment without service category", ErrStageMismatch)
	}
	return nil
}
