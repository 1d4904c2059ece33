package consumers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paul-reitz/relate.io/internal/models"
)

type recordingHub struct {
	advisorIDs []int64
	events     []models.AdvisorEvent
}

func (r *recordingHub) BroadcastToAdvisor(advisorID int64, event models.AdvisorEvent) {
	r.advisorIDs = append(r.advisorIDs, advisorID)
	r.events = append(r.events, event)
}

func TestBroadcastEvent(t *testing.T) {
	hub := &recordingHub{}

	raw, err := json.Marshal(models.AdvisorEvent{
		Type:      models.EventNewFeedback,
		AdvisorID: 3,
		Data:      map[string]any{"client_id": float64(7), "urgency": float64(5)},
	})
	require.NoError(t, err)

	broadcastEvent(hub, raw)

	require.Len(t, hub.events, 1)
	assert.Equal(t, []int64{3}, hub.advisorIDs)
	assert.Equal(t, models.EventNewFeedback, hub.events[0].Type)
	assert.Equal(t, float64(5), hub.events[0].Data["urgency"])
}

func TestBroadcastEvent_SkipsMalformedPayload(t *testing.T) {
	hub := &recordingHub{}

	broadcastEvent(hub, []byte("{not json"))

	assert.Empty(t, hub.events)
}

func TestBroadcastEvent_SkipsEventsWithoutAdvisor(t *testing.T) {
	hub := &recordingHub{}

	raw, err := json.Marshal(models.AdvisorEvent{Type: models.EventClientCreated})
	require.NoError(t, err)

	broadcastEvent(hub, raw)

	assert.Empty(t, hub.events)
}
