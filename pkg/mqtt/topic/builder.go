package topic

import (
	"fmt"
)

// Topic segments shared by the guardian and anything consuming its feed.
// Changing them breaks existing ground-station subscribers.
const (
	// SuffixAlert carries dispatched alerts.
	// Structure: {root}/alert/{alertType}/{unitID|system}
	SuffixAlert = "alert"

	// SuffixReturnCommand carries return-to-home plans to a unit (Guardian -> Unit).
	// Structure: {root}/command/rth/{unitID}
	SuffixReturnCommand = "command/rth"

	// SuffixCommandAck carries unit acknowledgements (Unit -> Guardian).
	// Structure: {root}/command/ack/{unitID}
	SuffixCommandAck = "command/ack"

	// SuffixOnline carries the retained liveness flag of a guardian instance.
	// Structure: {root}/online/{clientID}
	SuffixOnline = "online"

	// SystemScope replaces the unit ID for alerts not tied to a unit.
	SystemScope = "system"

	// Wildcard matches exactly one topic level.
	Wildcard = "+"

	// MultiWildcard matches the remaining levels and must end a filter.
	MultiWildcard = "#"
)

// TopicBuilder encapsulates the logic for constructing MQTT topic strings.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "guardian/v1").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: root}
}

// Alert returns the topic an alert of the given type is published on.
// An empty unitID scopes the alert to the whole system.
func (b *TopicBuilder) Alert(alertType, unitID string) string {
	if unitID == "" {
		unitID = SystemScope
	}
	return b.build(SuffixAlert+"/"+alertType, unitID)
}

// AlertWildcard matches every alert of every type.
// Result: {root}/alert/#
func (b *TopicBuilder) AlertWildcard() string {
	return fmt.Sprintf("%s/%s/%s", b.root, SuffixAlert, MultiWildcard)
}

// ReturnCommand returns the topic a unit listens on for its return plan.
func (b *TopicBuilder) ReturnCommand(unitID string) string {
	return b.build(SuffixReturnCommand, unitID)
}

// CommandAck returns the topic a unit acknowledges return plans on.
func (b *TopicBuilder) CommandAck(unitID string) string {
	return b.build(SuffixCommandAck, unitID)
}

// CommandAckWildcard matches acknowledgements from every unit.
// Result: {root}/command/ack/+
func (b *TopicBuilder) CommandAckWildcard() string {
	return b.build(SuffixCommandAck, Wildcard)
}

// Online returns the liveness topic for a guardian client.
func (b *TopicBuilder) Online(clientID string) string {
	return b.build(SuffixOnline, clientID)
}

// build constructs {root}/{suffix}/{identifier}.
func (b *TopicBuilder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
