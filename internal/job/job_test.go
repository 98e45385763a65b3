package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobIsValidRejectsOversizedTarget(t *testing.T) {
	j := &Job{Bits: 0x20123456}
	assert.False(t, j.IsValid())
}

func TestJobIsValidAcceptsRealDifficulty(t *testing.T) {
	j := &Job{Bits: 0x1d00ffff}
	assert.True(t, j.IsValid())
}

func TestEngineViewCarriesFieldsAndOrigin(t *testing.T) {
	table := NewClientTable()
	h := table.Register(&fakeClient{name: "pool-a"})

	j := &Job{Bits: 0x1d00ffff, Version: 0x20000000, Origin: h}
	view := j.Engine()

	assert.Equal(t, j.Bits, view.Bits)
	assert.Equal(t, j.Version, view.Version)
	assert.Equal(t, "pool-a", view.Origin.String())
}
