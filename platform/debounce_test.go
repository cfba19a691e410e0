package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(3)

	assert.False(t, d.Update(true))
	assert.False(t, d.Update(true))
	assert.True(t, d.Update(true), "three agreeing samples flip the level")

	assert.True(t, d.Update(false), "a single bounce is ignored")
	assert.True(t, d.Update(true))
	assert.True(t, d.Update(false))
	assert.True(t, d.Update(false))
	assert.False(t, d.Update(false))
	assert.False(t, d.Level())
}

func TestDebouncer_SizeOne(t *testing.T) {
	d := NewDebouncer(0)
	assert.True(t, d.Update(true))
	assert.False(t, d.Update(false))
}
