package compliance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUrgencyOrderingPreservedByWeight(t *testing.T) {
	levels := []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh}
	for i := 1; i < len(levels); i++ {
		assert.Less(t, levels[i-1], levels[i])
		assert.Less(t, levels[i-1].Weight(), levels[i].Weight(), "weight of %s should be below %s", levels[i-1], levels[i])
	}
}

func TestUrgencyJSONRoundTrip(t *testing.T) {
	payload, err := json.Marshal(map[string]Urgency{"urgency": UrgencyMedium})
	require.NoError(t, err)
	assert.JSONEq(t, `{"urgency":"MEDIUM"}`, string(payload))

	var decoded struct {
		Urgency Urgency `json:"urgency"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"urgency":"high"}`), &decoded))
	assert.Equal(t, UrgencyHigh, decoded.Urgency)
}

func TestParseUrgencyRejectsUnknown(t *testing.T) {
	_, err := ParseUrgency("critical")
	assert.Error(t, err)
}
