package sockclient

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyServerMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Failure
	}{
		{
			name: "credential rejected",
			err:  &serverError{message: "Failed to send message to ExecutorSubscribableChannel[clientInboundChannel]"},
			want: Permanent(BreakReasonInvalidCredential),
		},
		{
			name: "wrapped credential rejection",
			err:  fmt.Errorf("handshake: %w", &serverError{message: "Failed to send message"}),
			want: Permanent(BreakReasonInvalidCredential),
		},
		{
			name: "other server error",
			err:  &serverError{message: "Session closed"},
			want: Transient(),
		},
		{
			name: "plain error containing the text",
			err:  errors.New("Failed to send message"),
			want: Transient(),
		},
		{
			name: "network error",
			err:  errNetwork,
			want: Transient(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyServerMessage(tt.err); got != tt.want {
				t.Errorf("ClassifyServerMessage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFailureKind_String(t *testing.T) {
	if got := FailureTransient.String(); got != "transient" {
		t.Errorf("FailureTransient.String() = %q", got)
	}
	if got := FailurePermanent.String(); got != "permanent" {
		t.Errorf("FailurePermanent.String() = %q", got)
	}
}
