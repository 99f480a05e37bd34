package observability

// EventEnvelope is the shape every message published on the topic
// exchange takes: a coarse type for routing, a concrete name, and an
// opaque payload. Realtime lifecycle events and audit records both ride
// in it; message content never does, only ciphertext metadata.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// BuildHeaders assembles the correlation headers attached to outgoing
// AMQP publishes. Empty values are omitted rather than sent blank.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
