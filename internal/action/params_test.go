// internal/action/params_test.go
package action

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWildcardColorRoundTrip(t *testing.T) {
	var p Params
	_, ok := p.WildcardColor()
	assert.False(t, ok)

	p.SetWildcardColor(models.ColorEmerald)
	color, ok := p.WildcardColor()
	require.True(t, ok)
	assert.Equal(t, models.ColorEmerald, color)

	raw, err := json.Marshal(PendingAction{ID: uuid.New(), Params: p})
	require.NoError(t, err)
	var back PendingAction
	require.NoError(t, json.Unmarshal(raw, &back))
	color, ok = back.Params.WildcardColor()
	require.True(t, ok)
	assert.Equal(t, models.ColorEmerald, color)
}

func TestMergeOnlyTouchesDialogKeys(t *testing.T) {
	target := uuid.New()
	stored := Params{TargetPlayers: []uuid.UUID{target}}

	setID := uuid.New()
	stored.Merge(Params{
		TargetPlayers:         []uuid.UUID{uuid.New()},
		SelectedPropertySetID: setID,
	}, DialogParams[DialogSelectPropertySet]...)

	assert.Equal(t, target, stored.Target(), "earlier selections must survive later responses")
	assert.Equal(t, setID, stored.SelectedPropertySetID)
}

func TestMergeSkipsAbsentValues(t *testing.T) {
	stored := Params{ShieldsUp: boolPtr(true), PaymentCardIDs: []uuid.UUID{uuid.New()}}
	stored.Merge(Params{})
	require.NotNil(t, stored.ShieldsUp)
	assert.True(t, *stored.ShieldsUp)
	assert.Len(t, stored.PaymentCardIDs, 1)

	stored.Merge(Params{ShieldsUp: boolPtr(false)}, ParamShieldsUp)
	assert.False(t, *stored.ShieldsUp)
}

func TestParamsCloneIsDeep(t *testing.T) {
	p := Params{TargetPlayers: []uuid.UUID{uuid.New()}, ShieldsUp: boolPtr(true)}
	c := p.Clone()
	c.TargetPlayers[0] = uuid.New()
	*c.ShieldsUp = false

	assert.NotEqual(t, p.TargetPlayers[0], c.TargetPlayers[0])
	assert.True(t, *p.ShieldsUp)
}

func TestNextDialog(t *testing.T) {
	next := NextDialog(models.ActionHostileTakeover, DialogSelectPlayer)
	require.NotNil(t, next)
	assert.Equal(t, DialogSelectPropertySet, *next)

	assert.Nil(t, NextDialog(models.ActionHostileTakeover, DialogSelectPropertySet))
	assert.Nil(t, NextDialog(models.ActionPirateRaid, DialogSelectWildcardColor))

	next = NextDialog(models.ActionWildTribute, DialogSelectPropertySet)
	require.NotNil(t, next)
	assert.Equal(t, DialogSelectPlayer, *next)

	assert.True(t, IsInterruptible(models.ActionTribute))
	assert.False(t, IsInterruptible(models.ActionTradeDividend))
}
