package main

import (
	"fmt"

	"github.com/nerrad567/gray-logic-sockclient/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-sockclient/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-sockclient/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-sockclient/internal/journal"
	"github.com/nerrad567/gray-logic-sockclient/internal/sockclient"
)

// registrar is the subscription surface of *sockclient.Client.
type registrar interface {
	SubscribeBroadcast(topic string, handler sockclient.MessageHandler) error
	SubscribeForCurrentUser(handler sockclient.MessageHandler)
}

// subscribe registers, for every configured topic and the personal queue,
// a log handler plus the journal and telemetry handlers when enabled.
func subscribe(r registrar, subs config.SubscriptionsConfig, repo journal.Repository, influx *influxdb.Client, log *logging.Logger) error {
	seen := make(map[string]bool, len(subs.Topics))
	for _, topic := range subs.Topics {
		if seen[topic] {
			continue
		}
		seen[topic] = true
		for _, h := range handlersFor(journal.KindBroadcast, topic, repo, influx, log) {
			if err := r.SubscribeBroadcast(topic, h); err != nil {
				return fmt.Errorf("subscribing to %q: %w", topic, err)
			}
		}
	}
	if subs.Personal {
		for _, h := range handlersFor(journal.KindPersonal, "", repo, influx, log) {
			r.SubscribeForCurrentUser(h)
		}
	}
	return nil
}

func handlersFor(kind journal.Kind, topic string, repo journal.Repository, influx *influxdb.Client, log *logging.Logger) []sockclient.MessageHandler {
	handlers := []sockclient.MessageHandler{
		&messageLogger{log: log, kind: kind, topic: topic},
	}
	if repo != nil {
		handlers = append(handlers, journal.NewRecorder(repo, kind, topic))
	}
	if influx != nil {
		handlers = append(handlers, &messageTelemetry{influx: influx, kind: kind, topic: topic})
	}
	return handlers
}

// messageLogger logs every message at debug level.
type messageLogger struct {
	log   *logging.Logger
	kind  journal.Kind
	topic string
}

func (h *messageLogger) HandleMessage(msg sockclient.Message) error {
	h.log.Debug("message received",
		"kind", string(h.kind),
		"topic", h.topic,
		"destination", msg.Destination,
		"bytes", len(msg.Body),
	)
	return nil
}

// messageTelemetry writes one InfluxDB point per message.
type messageTelemetry struct {
	influx *influxdb.Client
	kind   journal.Kind
	topic  string
}

func (h *messageTelemetry) HandleMessage(msg sockclient.Message) error {
	h.influx.WriteMessage(string(h.kind), h.topic, len(msg.Body))
	return nil
}

// stateLogger logs connection state transitions.
type stateLogger struct {
	log *logging.Logger
}

func (l *stateLogger) StateChanged(state sockclient.State) {
	if state == sockclient.StateDisconnected {
		l.log.Warn("connection state changed", "state", state.String())
		return
	}
	l.log.Info("connection state changed", "state", state.String())
}
