package kafka

import (
	"context"
	"math"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Beer-Review-Analytics/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type featureRow struct {
	Doc      int                `json:"doc"`
	Features map[string]float64 `json:"features"`
}

func TestEncode(t *testing.T) {
	messages, err := encode([]Event{
		{Key: "12", Value: featureRow{Doc: 12, Features: map[string]float64{"hops": 0.25}}},
		{Key: "run-1", Value: map[string]int{"documents": 3}},
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "12", string(messages[0].Key))
	assert.JSONEq(t, `{"doc":12,"features":{"hops":0.25}}`, string(messages[0].Value))
	assert.JSONEq(t, `{"documents":3}`, string(messages[1].Value))
}

func TestEncode_UnmarshalableValue(t *testing.T) {
	messages, err := encode([]Event{
		{Key: "1", Value: featureRow{Doc: 1}},
		{Key: "2", Value: featureRow{Doc: 2, Features: map[string]float64{"malt": math.NaN()}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshaling event 2")
	assert.Nil(t, messages, "no partial batch")
}

func TestNewProducer(t *testing.T) {
	p := NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, "feature-rows")
	assert.Equal(t, "feature-rows", p.Topic())
	require.NoError(t, p.Close())
}

func TestPing_NoBrokers(t *testing.T) {
	err := Ping(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}
