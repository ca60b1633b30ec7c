package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrievanceIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^GRV-[A-Z0-9]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewGrievanceID()
		assert.Regexp(t, pattern, id)
		seen[id] = true
	}
	// Collisions over 100 draws from a 36^8 space would mean the
	// generator is broken.
	assert.Len(t, seen, 100)
}

func TestValidGrievanceStatus(t *testing.T) {
	for _, s := range []GrievanceStatus{StatusPending, StatusUnderReview, StatusResolved, StatusArchived} {
		assert.True(t, ValidGrievanceStatus(s), string(s))
	}
	assert.False(t, ValidGrievanceStatus("escalated"))
	assert.False(t, ValidGrievanceStatus(""))
}

func TestDisplayStatus(t *testing.T) {
	assert.Equal(t, "Pending", DisplayStatus(StatusPending))
	assert.Equal(t, "Under Review", DisplayStatus(StatusUnderReview))
	assert.Equal(t, "Resolved", DisplayStatus(StatusResolved))
	assert.Equal(t, "Archived", DisplayStatus(StatusArchived))
	// Labels kept for statuses that only exist in legacy data.
	assert.Equal(t, "Solved", DisplayStatus("solved"))
	assert.Equal(t, "Unsolved", DisplayStatus("unsolved"))
	assert.Equal(t, "", DisplayStatus(""))
}

func TestStringListRoundTrip(t *testing.T) {
	list := StringList{"a.enc", "b.enc"}
	value, err := list.Value()
	require.NoError(t, err)

	var decoded StringList
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, list, decoded)
}

func TestStringListNil(t *testing.T) {
	var list StringList
	value, err := list.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)

	var decoded StringList
	require.NoError(t, decoded.Scan(nil))
	assert.Nil(t, decoded)
}

func TestJSONBRoundTrip(t *testing.T) {
	payload := JSONB{"grievance_id": "GRV-ABCD2345", "old_status": "pending"}
	value, err := payload.Value()
	require.NoError(t, err)

	var decoded JSONB
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, "GRV-ABCD2345", decoded["grievance_id"])
}
