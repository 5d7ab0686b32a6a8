package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// FetchKind selects which last-fetch slot of a project is updated.
type FetchKind string

const (
	FetchGitButlerData FetchKind = "gitbutler"
	FetchProjectData   FetchKind = "project"
)

// FetchResult is the outcome of the most recent fetch attempt: either fetched
// or failed, each stamped with the instant of the attempt.
type FetchResult struct {
	failed    bool
	timestamp time.Time
	message   string
}

// Fetched records a successful fetch at ts.
func Fetched(ts time.Time) FetchResult {
	return FetchResult{timestamp: ts}
}

// FetchFailed records a failed fetch at ts.
func FetchFailed(ts time.Time, message string) FetchResult {
	return FetchResult{failed: true, timestamp: ts, message: message}
}

func (r FetchResult) Timestamp() time.Time { return r.timestamp }

func (r FetchResult) Succeeded() bool { return !r.failed }

// Message is the failure message; empty for a successful fetch.
func (r FetchResult) Message() string { return r.message }

type fetchedPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

type fetchErrorPayload struct {
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error"`
}

type fetchResultWire struct {
	Fetched *fetchedPayload    `json:"fetched,omitempty"`
	Error   *fetchErrorPayload `json:"error,omitempty"`
}

func (r FetchResult) MarshalJSON() ([]byte, error) {
	if r.failed {
		return json.Marshal(fetchResultWire{Error: &fetchErrorPayload{Timestamp: r.timestamp, Error: r.message}})
	}
	return json.Marshal(fetchResultWire{Fetched: &fetchedPayload{Timestamp: r.timestamp}})
}

func (r *FetchResult) UnmarshalJSON(data []byte) error {
	var variants map[string]json.RawMessage
	if err := json.Unmarshal(data, &variants); err != nil {
		return fmt.Errorf("fetch result: %w", err)
	}
	if len(variants) != 1 {
		return fmt.Errorf("fetch result: expected exactly one variant, got %d", len(variants))
	}
	if body, ok := variants["fetched"]; ok {
		var payload fetchedPayload
		if err := decodeVariant(body, &payload); err != nil {
			return err
		}
		if payload.Timestamp.IsZero() {
			return fmt.Errorf("fetch result: fetched variant missing timestamp")
		}
		*r = Fetched(payload.Timestamp)
		return nil
	}
	if body, ok := variants["error"]; ok {
		var payload fetchErrorPayload
		if err := decodeVariant(body, &payload); err != nil {
			return err
		}
		if payload.Timestamp.IsZero() {
			return fmt.Errorf("fetch result: error variant missing timestamp")
		}
		*r = FetchFailed(payload.Timestamp, payload.Error)
		return nil
	}
	for tag := range variants {
		return fmt.Errorf("fetch result: unknown variant %q", tag)
	}
	return nil
}

func decodeVariant(body json.RawMessage, out any) error {
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return fmt.Errorf("fetch result: null payload")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("fetch result: %w", err)
	}
	return nil
}

var commitIDPattern = regexp.MustCompile(`^([0-9a-f]{40}|[0-9a-f]{64})$`)

// CodePushState is the last commit pushed on the code channel and when.
type CodePushState struct {
	CommitID  string    `json:"commitId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCodePushState validates commitID as a hex object id.
func NewCodePushState(commitID string, ts time.Time) (CodePushState, error) {
	if !commitIDPattern.MatchString(commitID) {
		return CodePushState{}, fmt.Errorf("%w: commit id %q is not a hex object id", ErrInvalidInput, commitID)
	}
	return CodePushState{CommitID: commitID, Timestamp: ts}, nil
}
