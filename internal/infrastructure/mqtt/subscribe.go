package mqtt

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-sockclient/internal/sockclient"
)

// Message header names filled from the MQTT publish packet.
const (
	HeaderTopic     = "topic"
	HeaderMessageID = "message-id"
	HeaderQoS       = "qos"
	HeaderRetained  = "retained"
)

// TopicFor maps a sockclient destination to an MQTT topic filter by
// dropping leading and trailing slashes, which would otherwise create empty
// topic levels.
//
// Example:
//
//	TopicFor("/topic/p1/orders") // "topic/p1/orders"
//	TopicFor("/user/queue/p1/")  // "user/queue/p1"
func TopicFor(destination string) string {
	return strings.Trim(destination, "/")
}

// Subscribe sends SUBSCRIBE for the destination's topic and returns without
// waiting for SUBACK. A refused subscription is reported through onFailure.
func (s *session) Subscribe(destination string, onMessage func(sockclient.Message)) (sockclient.Subscription, error) {
	topic := TopicFor(destination)
	if topic == "" {
		return nil, ErrInvalidTopic
	}
	if !s.client.IsConnectionOpen() {
		return nil, fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, destination, ErrNotConnected)
	}

	sub := &subscription{session: s, destination: destination, topic: topic}
	token := s.client.Subscribe(topic, s.qos, s.wrapHandler(sub, onMessage))
	go func() {
		var err error
		if !token.WaitTimeout(defaultOpTimeout) {
			err = ErrTimeout
		} else {
			err = token.Error()
		}
		if err != nil && !sub.isReleased() {
			s.report(fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, destination, err))
		}
	}()

	return sub, nil
}

// subscription is one topic filter on a session.
type subscription struct {
	session     *session
	destination string
	topic       string
	released    atomic.Bool
}

func (h *subscription) isReleased() bool {
	return h.released.Load()
}

// Unsubscribe removes the topic filter. On a dropped connection there is
// nothing to release: sessions are clean, so the broker already forgot it.
func (h *subscription) Unsubscribe() error {
	if !h.released.CompareAndSwap(false, true) {
		return nil
	}
	if !h.session.client.IsConnectionOpen() {
		return nil
	}

	token := h.session.client.Unsubscribe(h.topic)
	if !token.WaitTimeout(defaultOpTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrUnsubscribeFailed, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}
	return nil
}

// toMessage copies a paho message into the transport-neutral form. The
// destination is the one subscribed to, not the MQTT topic.
func toMessage(destination string, msg pahomqtt.Message) sockclient.Message {
	return sockclient.Message{
		Destination: destination,
		Headers: map[string]string{
			HeaderTopic:     msg.Topic(),
			HeaderMessageID: strconv.FormatUint(uint64(msg.MessageID()), 10),
			HeaderQoS:       strconv.Itoa(int(msg.Qos())),
			HeaderRetained:  strconv.FormatBool(msg.Retained()),
		},
		Body: msg.Payload(),
	}
}
