package link

import "time"

// State is the lifecycle position of a device link flow.
type State string

const (
	StateNotStarted   State = "not_started"
	StateAwaitingUser State = "awaiting_user"
	StateLinked       State = "linked"
	StateAbandoned    State = "abandoned"
)

// Terminal reports whether no further polling can change the state.
func (s State) Terminal() bool {
	return s == StateLinked || s == StateAbandoned
}

// Flow tracks one attempt to link a project's remote credentials to a GitHub
// account. The device code never leaves the flow.
type Flow struct {
	ID              string        `json:"id"`
	ProjectID       string        `json:"projectId"`
	State           State         `json:"state"`
	UserCode        string        `json:"userCode,omitempty"`
	VerificationURI string        `json:"verificationUri,omitempty"`
	Attempts        int           `json:"attempts"`
	Interval        time.Duration `json:"interval"`
	StartedAt       time.Time     `json:"startedAt"`
	ExpiresAt       time.Time     `json:"expiresAt,omitzero"`
	Login           string        `json:"login,omitempty"`
	Reason          string        `json:"reason,omitempty"`

	deviceCode string
}
