package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RequestEventType string

const (
	EventCreate             RequestEventType = "create"
	EventAccept             RequestEventType = "accept"
	EventConfirmFulfilled   RequestEventType = "confirm_fulfilled"
	EventReportUnresponsive RequestEventType = "report_unresponsive"
	EventCancel             RequestEventType = "cancel"
)

var transitions = map[RequestStatus]map[RequestEventType]RequestStatus{
	RequestActive: {
		EventAccept: RequestAccepted,
		EventCancel: RequestCancelled,
	},
	RequestAccepted: {
		EventConfirmFulfilled:   RequestFulfilled,
		EventReportUnresponsive: RequestActive,
		EventCancel:             RequestCancelled,
	},
}

// Transition returns the status reached by applying event in from.
// Terminal statuses reject every event with ErrTerminalState; an event that
// is not valid in a live status fails with ErrInvalidTransition.
func Transition(from RequestStatus, event RequestEventType) (RequestStatus, error) {
	if from.IsTerminal() {
		return from, ErrTerminalState
	}
	next, ok := transitions[from][event]
	if !ok {
		return from, fmt.Errorf("%w: cannot %s a request that is %s", ErrInvalidTransition, event, from)
	}
	return next, nil
}

// Apply returns a copy of r with event applied by actorID at now.
func (r BloodRequest) Apply(event RequestEventType, actorID uuid.UUID, reason *string, now time.Time) (*BloodRequest, error) {
	next, err := Transition(r.Status, event)
	if err != nil {
		return nil, err
	}

	out := r
	out.Status = next
	out.UpdatedAt = now

	switch event {
	case EventAccept:
		out.AccepterID = &actorID
		out.AcceptedAt = &now
	case EventConfirmFulfilled:
		out.FulfilledBy = r.AccepterID
		out.FulfilledAt = &now
		out.AccepterID = nil
	case EventReportUnresponsive:
		out.ReleasedAccepterID = r.AccepterID
		out.AccepterID = nil
		out.AcceptedAt = nil
		out.ReassignmentCount = r.ReassignmentCount + 1
	case EventCancel:
		out.AccepterID = nil
		out.CancelReason = reason
		out.CancelledBy = &actorID
		out.CancelledAt = &now
	}

	return &out, nil
}
