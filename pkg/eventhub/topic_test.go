package eventhub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventhub/pkg/eventhub"
)

type reading struct {
	Celsius float64
}

func TestTopic_NotifySubscribe(t *testing.T) {
	r := newRouter()
	temp := eventhub.NewTopic[reading, string](r, "temp")

	var got []eventhub.TypedPayload[reading, string]
	temp.Subscribe(func(p eventhub.TypedPayload[reading, string]) {
		got = append(got, p)
	})

	temp.Notify(reading{Celsius: 21.5}, "sensorA")
	temp.NotifyValue(reading{Celsius: 22})

	require.Len(t, got, 2)
	assert.Equal(t, eventhub.TypedPayload[reading, string]{
		Value: reading{Celsius: 21.5}, Context: "sensorA", HasContext: true,
	}, got[0])
	assert.False(t, got[1].HasContext)
	assert.Equal(t, "", got[1].Context)
	assert.Equal(t, eventhub.Name("temp"), temp.Name())
}

func TestTopic_SharesRouterState(t *testing.T) {
	r := newRouter()
	flag := eventhub.NewTopic[bool, any](r, "ready")

	r.Notify("ready", false, nil)

	p, ok := flag.Current()
	require.True(t, ok)
	assert.False(t, p.Value)

	var replayed []bool
	flag.Subscribe(func(p eventhub.TypedPayload[bool, any]) {
		replayed = append(replayed, p.Value)
	}, eventhub.WithLastValue())
	assert.Equal(t, []bool{false}, replayed)

	flag.Set(true)
	raw, _ := r.CurrentValue("ready")
	assert.Equal(t, true, raw.Value)
}

func TestTopic_MismatchedTypesBecomeZero(t *testing.T) {
	r := newRouter()
	count := eventhub.NewTopic[int, string](r, "count")

	var got []eventhub.TypedPayload[int, string]
	count.Subscribe(func(p eventhub.TypedPayload[int, string]) { got = append(got, p) })

	r.Notify("count", "not an int", 42)

	require.Len(t, got, 1)
	assert.Zero(t, got[0].Value)
	assert.Equal(t, "", got[0].Context)
	assert.True(t, got[0].HasContext)
}

func TestTopic_CurrentMissing(t *testing.T) {
	r := newRouter()
	_, ok := eventhub.NewTopic[int, string](r, "x").Current()
	assert.False(t, ok)
}
