package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseMix(t *testing.T) {
	def := []int{44, 44, 4, 4, 4}

	assert.Equal(t, []int{10, 20, 30, 40, 0}, parseMix("10, 20,30,40,0"))
	assert.Equal(t, def, parseMix("1,2,3"))
	assert.Equal(t, def, parseMix("1,2,x,4,5"))
	assert.Equal(t, def, parseMix("1,2,-3,4,5"))
	assert.Equal(t, def, parseMix("0,0,0,0,0"))
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:///tmp/tpcc.db")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("RTE_MEASURE", "90s")
	t.Setenv("RTE_WAIT_FACTOR", "0.5")
	t.Setenv("RTE_DEFER_DELIVERY", "true")

	cfg := Load()
	assert.Equal(t, "sqlite:///tmp/tpcc.db", cfg.Database.URL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 90*time.Second, cfg.Generator.Measure)
	assert.Equal(t, 0.5, cfg.Generator.WaitFactor)
	assert.True(t, cfg.Generator.DeferDelivery)
	assert.Equal(t, 10, cfg.Generator.Concurrency)
}
