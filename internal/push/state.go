package push

import "fmt"

// State is a step of a push. A run moves strictly forward through the
// states and ends in Success or Aborted.
type State int

const (
	AcquireContext State = iota
	BuildLocalIndex
	RequestCredentials
	FetchRemoteIndex
	Diff
	Upload
	VerifyUpload
	DeleteObsolete
	PublishArtifacts
	Finalize
	Success
	Aborted
)

var stateNames = [...]string{
	AcquireContext:     "acquire-context",
	BuildLocalIndex:    "build-local-index",
	RequestCredentials: "request-credentials",
	FetchRemoteIndex:   "fetch-remote-index",
	Diff:               "diff",
	Upload:             "upload",
	VerifyUpload:       "verify-upload",
	DeleteObsolete:     "delete-obsolete",
	PublishArtifacts:   "publish-artifacts",
	Finalize:           "finalize",
	Success:            "success",
	Aborted:            "aborted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StepError is returned by Run when a step fails. Err keeps the original
// error so its kind stays visible to errors.Is.
type StepError struct {
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("push failed at %s: %v", e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
