package journal

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-sockclient/internal/sockclient"
)

// recordTimeout bounds one journal write. Recorders run on the client's
// event loop, so a stuck database must not hold it for long.
const recordTimeout = 2 * time.Second

// Recorder journals every message it handles.
// It implements sockclient.MessageHandler.
type Recorder struct {
	repo  Repository
	kind  Kind
	topic string
	now   func() time.Time
}

var _ sockclient.MessageHandler = (*Recorder)(nil)

// NewRecorder returns a Recorder for one subscription. topic is the
// broadcast topic name and is empty for the personal queue.
func NewRecorder(repo Repository, kind Kind, topic string) *Recorder {
	return &Recorder{repo: repo, kind: kind, topic: topic, now: time.Now}
}

// HandleMessage stores msg. The returned error is logged by the client.
func (r *Recorder) HandleMessage(msg sockclient.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	return r.repo.Record(ctx, Entry{
		ReceivedAt:  r.now(),
		Kind:        r.kind,
		Topic:       r.topic,
		Destination: msg.Destination,
		Headers:     msg.Headers,
		Body:        msg.Body,
	})
}
