package sockclient

import "fmt"

// Destination prefixes. These must match the server exactly.
const (
	// DestinationPrefixTopic is the base for tenant broadcast topics.
	DestinationPrefixTopic = "/topic"

	// DestinationPrefixUserQueue is the base for the current user's queue.
	DestinationPrefixUserQueue = "/user/queue"
)

// Destinations builds protocol destinations for one tenant.
//
//	d := sockclient.Destinations{TenantID: "p1"}
//	d.Broadcast("orders") // "/topic/p1/orders"
//	d.Personal()          // "/user/queue/p1/"
type Destinations struct {
	TenantID string
}

// Broadcast returns the destination for a tenant topic.
//
// Example: /topic/p1/orders
func (d Destinations) Broadcast(topic string) string {
	return fmt.Sprintf("%s/%s/%s", DestinationPrefixTopic, d.TenantID, topic)
}

// Personal returns the destination of the current user's queue.
// The trailing slash is part of the destination.
//
// Example: /user/queue/p1/
func (d Destinations) Personal() string {
	return fmt.Sprintf("%s/%s/", DestinationPrefixUserQueue, d.TenantID)
}
