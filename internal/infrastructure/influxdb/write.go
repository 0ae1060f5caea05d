package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-sockclient/internal/sockclient"
)

// Measurement names.
const (
	MeasurementConnectionState = "connection_state"
	MeasurementMessages        = "messages"
)

var _ sockclient.StateListener = (*Client)(nil)

// StateChanged records a connection state transition.
//
// Point: connection_state,state=<name> value=<0|1|2>i
func (c *Client) StateChanged(state sockclient.State) {
	c.writePoint(
		MeasurementConnectionState,
		map[string]string{"state": state.String()},
		map[string]interface{}{"value": int64(state)},
	)
}

// WriteMessage records one inbound message.
//
// Parameters:
//   - kind: "broadcast" or "personal"
//   - topic: Broadcast topic name (empty for the personal queue)
//   - size: Body length in bytes
//
// Point: messages,kind=<kind>[,topic=<topic>] count=1i,bytes=<size>i
func (c *Client) WriteMessage(kind, topic string, size int) {
	tags := map[string]string{"kind": kind}
	if topic != "" {
		tags["topic"] = topic
	}
	c.writePoint(
		MeasurementMessages,
		tags,
		map[string]interface{}{"count": int64(1), "bytes": int64(size)},
	)
}

// writePoint queues a point stamped with the current time.
func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
