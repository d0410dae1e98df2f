package ipd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryBeing(t *testing.T) *ScriptedBeing {
	t.Helper()
	b, err := NewScriptedBeing("mem", "COOPERATE")
	require.NoError(t, err)
	return b
}

func TestAddExperienceAppendsInOrder(t *testing.T) {
	b := newMemoryBeing(t)
	b.AddExperience("Person-1", Defect, Cooperate)
	b.AddExperience("Person-1", Cooperate, Defect)
	b.AddExperience("Person-2", Cooperate, Cooperate)

	h := b.History()
	require.Len(t, h["Person-1"], 2)
	assert.Equal(t, Experience{Us: Cooperate, Them: Defect}, h["Person-1"][0])
	assert.Equal(t, Experience{Us: Defect, Them: Cooperate}, h["Person-1"][1])
	assert.Len(t, h["Person-2"], 1)
}

func TestClearHistoryArchivesDeepCopy(t *testing.T) {
	b := newMemoryBeing(t)
	b.AddExperience("Person-1", Defect, Cooperate)
	b.AddExperience("Person-1", Cooperate, Cooperate)
	before := b.History()

	b.ClearHistory()
	assert.Empty(t, b.History())
	require.Len(t, b.Warehouse(), 1)
	assert.Equal(t, before, b.Warehouse()[0])

	b.AddExperience("Person-1", Defect, Defect)
	assert.Equal(t, before, b.Warehouse()[0], "archive does not alias the live history")

	w := b.Warehouse()
	w[0]["Person-1"][0] = Experience{Us: Defect, Them: Defect}
	assert.Equal(t, before, b.Warehouse()[0], "warehouse accessor returns copies")
}

func TestClearHistoryArchivesEmptyHistory(t *testing.T) {
	b := newMemoryBeing(t)
	b.ClearHistory()
	b.AddExperience("Person-1", Cooperate, Defect)
	b.ClearHistory()
	b.ClearHistory()

	ws := b.Warehouse()
	require.Len(t, ws, 3, "one entry per boundary")
	assert.Empty(t, ws[0])
	assert.Len(t, ws[1]["Person-1"], 1)
	assert.Empty(t, ws[2])
}

func TestWarehouseLimit(t *testing.T) {
	m := newMemory(2)
	for i, id := range []string{"a", "b", "c"} {
		for j := 0; j <= i; j++ {
			m.AddExperience(id, Cooperate, Cooperate)
		}
		m.ClearHistory()
	}
	ws := m.Warehouse()
	require.Len(t, ws, 2)
	assert.Len(t, ws[0]["b"], 2)
	assert.Len(t, ws[1]["c"], 3)
}

func TestMorality(t *testing.T) {
	b := newMemoryBeing(t)
	_, ok := b.Morality()
	assert.False(t, ok, "no recorded actions")

	b.AddExperience("Person-1", Defect, Cooperate)
	b.AddExperience("Person-1", Defect, Cooperate)
	b.AddExperience("Person-2", Cooperate, Cooperate)
	b.AddExperience("Person-2", Cooperate, Defect)

	m, ok := b.Morality()
	require.True(t, ok)
	assert.Equal(t, 0.75, m)
}

func TestSetHistoryCopies(t *testing.T) {
	b := newMemoryBeing(t)
	h := History{"Person-1": {{Us: Cooperate, Them: Defect}}}
	b.SetHistory(h)
	h["Person-1"][0].Us = Defect
	assert.Equal(t, Cooperate, b.History()["Person-1"][0].Us)

	b.SetHistory(nil)
	assert.Empty(t, b.History())
	b.AddExperience("x", Cooperate, Cooperate)
	assert.Len(t, b.History()["x"], 1)
}

func TestHistoryRounds(t *testing.T) {
	h := History{"p": {{Us: Cooperate, Them: Defect}, {Us: Defect, Them: Defect}}}
	assert.Equal(t, []Round{{Cooperate, Defect}, {Defect, Defect}}, h.Rounds("p"))
	assert.Empty(t, h.Rounds("missing"))
}

func TestExtraBag(t *testing.T) {
	b := newMemoryBeing(t)
	b.Extra["note"] = "kept"
	assert.Equal(t, "kept", b.Extra["note"])
}
