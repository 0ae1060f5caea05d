package sockclient

import (
	"errors"
	"strings"
)

// FailureKind separates failures worth retrying from those that are not.
type FailureKind int

const (
	// FailureTransient is a network or handshake failure; reconnect applies.
	FailureTransient FailureKind = iota

	// FailurePermanent is a rejection that retrying cannot fix.
	FailurePermanent
)

// String returns the name of the kind.
func (k FailureKind) String() string {
	if k == FailurePermanent {
		return "permanent"
	}
	return "transient"
}

// Failure is the classification of a connection error.
type Failure struct {
	Kind   FailureKind
	Reason BreakReason
}

// Transient returns a transient classification.
func Transient() Failure {
	return Failure{Kind: FailureTransient}
}

// Permanent returns a permanent classification with the given reason.
func Permanent(reason BreakReason) Failure {
	return Failure{Kind: FailurePermanent, Reason: reason}
}

// Classifier decides whether a connection error is permanent.
type Classifier interface {
	Classify(err error) Failure
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(err error) Failure

// Classify calls f(err).
func (f ClassifierFunc) Classify(err error) Failure {
	return f(err)
}

// ServerError is implemented by transport errors that carry the server's
// own explanation, such as the message header of a STOMP ERROR frame.
type ServerError interface {
	error
	ServerMessage() string
}

// credentialRejectedMessage is the server text sent when it refuses the
// CONNECT because the token is invalid.
const credentialRejectedMessage = "Failed to send message"

// ClassifyServerMessage treats a server error whose message contains
// "Failed to send message" as an invalid credential.
//
// This is coupled to the server's wording and will silently degrade to
// treating every failure as transient if that text changes.
func ClassifyServerMessage(err error) Failure {
	var se ServerError
	if errors.As(err, &se) && strings.Contains(se.ServerMessage(), credentialRejectedMessage) {
		return Permanent(BreakReasonInvalidCredential)
	}
	return Transient()
}
