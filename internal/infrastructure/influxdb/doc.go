// Package influxdb records connection telemetry in InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library and writes two
// measurements:
//
//	connection_state  one point per state transition (tag state)
//	messages          one point per inbound message (tags kind, topic)
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	sc.OnStateChange(client)
//	client.WriteMessage("broadcast", "orders", len(msg.Body))
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
