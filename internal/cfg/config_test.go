package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRequiresUserID(t *testing.T) {
	c := &Config{Timezone: DefaultTimezone}
	assert.Error(t, c.Validate())
}

func TestValidateFallsBackOnBadTimezone(t *testing.T) {
	c := &Config{UserID: "alice", Timezone: "Not/AZone"}
	assert.NoError(t, c.Validate())
	assert.Equal(t, DefaultTimezone, c.Timezone)
}

func TestLocationResolvesConfiguredTimezone(t *testing.T) {
	c := &Config{UserID: "alice", Timezone: "UTC"}
	assert.NoError(t, c.Validate())
	assert.Equal(t, "UTC", c.Location().String())
}
