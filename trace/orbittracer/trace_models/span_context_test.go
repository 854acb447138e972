package trace_models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanContextFlags(t *testing.T) {
	sc := NewSpanContext(TraceID{Low: 1}, 2, 0, FlagSampled, nil)
	assert.True(t, sc.IsSampled())
	assert.False(t, sc.IsDebug())
	assert.True(t, sc.IsValid())

	debug := NewDebugSpanContext(TraceID{Low: 1}, "ticket-42")
	assert.True(t, debug.IsSampled())
	assert.True(t, debug.IsDebug())
	assert.Equal(t, "ticket-42", debug.DebugID())
	// no span id yet: the first span started from it becomes the root
	assert.False(t, debug.IsValid())
}

func TestWithBaggageItemCopies(t *testing.T) {
	parent := NewSpanContext(TraceID{Low: 1}, 2, 0, FlagSampled, map[string]string{"k1": "v1"})
	child := parent.WithBaggageItem("k2", "v2")

	assert.Equal(t, "v1", child.BaggageItem("k1"))
	assert.Equal(t, "v2", child.BaggageItem("k2"))
	// parent baggage unchanged
	assert.Equal(t, "", parent.BaggageItem("k2"))

	overwritten := child.WithBaggageItem("k1", "other")
	assert.Equal(t, "other", overwritten.BaggageItem("k1"))
	assert.Equal(t, "v1", child.BaggageItem("k1"))
}

func TestForeachBaggageItem(t *testing.T) {
	sc := NewSpanContext(TraceID{Low: 1}, 2, 0, 0, map[string]string{"a": "1", "b": "2"})
	seen := map[string]string{}
	sc.ForeachBaggageItem(func(k, v string) bool {
		seen[k] = v
		return true
	})
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, seen)

	count := 0
	sc.ForeachBaggageItem(func(k, v string) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}
