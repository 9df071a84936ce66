// Package outbox implements the transactional outbox pattern shared by all
// services: domain events are written in the same transaction as the state
// change, then relayed to Kafka by a background publisher.
package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}
