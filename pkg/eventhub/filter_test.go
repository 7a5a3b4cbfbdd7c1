package eventhub_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/randalmurphal/eventhub/pkg/eventhub"
)

func TestMatchContext(t *testing.T) {
	r := newRouter()
	var a, none recorder

	r.Subscribe("temp", eventhub.MatchContext("sensorA", a.cb))
	r.Subscribe("temp", eventhub.MatchContext(nil, none.cb))

	r.Notify("temp", 1, "sensorA")
	r.Notify("temp", 2, "sensorB")
	r.Notify("temp", 3, nil)

	assert.Equal(t, []eventhub.Payload{{Value: 1, Context: "sensorA"}}, a.got())
	assert.Equal(t, []eventhub.Payload{{Value: 3}}, none.got())
}

func TestFilterContext(t *testing.T) {
	r := newRouter()
	var rec recorder

	r.Subscribe("temp", eventhub.FilterContext(func(c any) bool {
		s, ok := c.(string)
		return ok && strings.HasPrefix(s, "sensor")
	}, rec.cb))

	r.Notify("temp", 1, "sensorA")
	r.Notify("temp", 2, "probe")
	r.Notify("temp", 3, 7)

	assert.Len(t, rec.got(), 1)
}

func TestFilterContext_NilPredicate(t *testing.T) {
	var rec recorder
	cb := eventhub.FilterContext(nil, rec.cb)
	cb(eventhub.Payload{Value: 1})
	assert.Len(t, rec.got(), 1)
}
