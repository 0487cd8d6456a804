package orchestrator

import (
	"visitor-relay/internal/common/errors"
	"visitor-relay/internal/models"
)

// State names the pipeline stages a relay passes through.
type State string

const (
	StateReceived   State = "received"
	StateVerified   State = "verified"
	StateNormalized State = "normalized"
	StateArchived   State = "archived"
	StateComposed   State = "composed"
	StatePublished  State = "published"
	StateDone       State = "done"

	// Terminal short-circuit exits.
	StateRejected State = "rejected"
	StateIgnored  State = "ignored"
	StateFailed   State = "failed"
)

// Input is one webhook delivery as received at the boundary.
type Input struct {
	LocationCode string
	Notification models.InboundNotification
}

// Result is the terminal outcome of one relay invocation. Link is set only
// in StateDone; Err only in StateRejected/StateFailed.
type Result struct {
	State State
	Link  string
	Err   *errors.StandardError
}
