package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfigDurationsUseDeclaredUnits(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()

	assert.Equal(t, 60*time.Second, ticketTTLFromViper())

	cfg := gameConfigFromViper()
	assert.Equal(t, 3*time.Second, cfg.StartDelay)
	assert.Equal(t, 2*time.Second, cfg.RoundDelay)
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, time.Second, cfg.ResyncInterval)
	assert.Equal(t, 3, cfg.RoundsToWin)
	assert.Equal(t, 8.0, cfg.Physics.BallSpeed)
}

func TestConfigDurationsFromOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()
	viper.Set("ticket.ttl_seconds", 5)
	viper.Set("game.tick_ms", 16)

	assert.Equal(t, 5*time.Second, ticketTTLFromViper())
	assert.Equal(t, 16*time.Millisecond, gameConfigFromViper().TickInterval)
}
