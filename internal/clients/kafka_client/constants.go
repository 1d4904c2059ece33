package kafka_client

import "time"

const (
	KAFKA_TOPIC_COMMUNICATION_REQUESTS = "communication-requests" // outbound client communications waiting for delivery
	KAFKA_TOPIC_ADVISOR_EVENTS         = "advisor-events"         // realtime events fanned out to advisor dashboards
)

const (
	BATCH_TIMEOUT = 5 * time.Second
	MAX_RETRIES   = 5
	RETRY_DELAY   = 2 * time.Second
)
