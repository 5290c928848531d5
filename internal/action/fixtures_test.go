// internal/action/fixtures_test.go
package action

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// directory is an in-memory PlayerDirectory.
type directory struct {
	players []*models.Player
}

func (d *directory) GetAllPlayers() []*models.Player { return d.players }

func (d *directory) GetPlayerByUserID(id uuid.UUID) (*models.Player, error) {
	for _, p := range d.players {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrPlayerNotFound
}

func (d *directory) CountPlayers() int { return len(d.players) }

// spyStore counts clears so tests can assert one result means one Clear.
type spyStore struct {
	*PendingActionStore
	clears int
}

func (s *spyStore) Clear() {
	s.clears++
	s.PendingActionStore.Clear()
}

func moneyCard(value int) *models.Card {
	return &models.Card{ID: uuid.New(), Name: "credits", Kind: models.KindMoney, Value: value}
}

func propertyCard(color models.PropertyColor) *models.Card {
	return &models.Card{ID: uuid.New(), Name: string(color), Kind: models.KindProperty, Value: 1, Color: color}
}

func wildCard(colors ...models.PropertyColor) *models.Card {
	return &models.Card{ID: uuid.New(), Name: "wild", Kind: models.KindWildProperty, Value: 2, Colors: colors}
}

func commandCard(t models.ActionType, colors ...models.PropertyColor) *models.Card {
	return &models.Card{ID: uuid.New(), Name: string(t), Kind: models.KindCommand, Value: 1, Command: t, Colors: colors}
}

// completeSet lays down a full set of color for p.
func completeSet(p *models.Player, color models.PropertyColor) *models.PropertySet {
	var set *models.PropertySet
	for i := 0; i < color.SetSize(); i++ {
		set = p.AddProperty(propertyCard(color), color)
	}
	return set
}

func setupOrchestrator(t *testing.T, numPlayers int) (*Orchestrator, *spyStore, []*models.Player) {
	t.Helper()
	require.GreaterOrEqual(t, numPlayers, 2)
	dir := &directory{}
	for i := 0; i < numPlayers; i++ {
		dir.players = append(dir.players, &models.Player{ID: uuid.New(), Name: "P" + string(rune('1'+i)), Connected: true})
	}
	store := &spyStore{PendingActionStore: NewPendingActionStore()}
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	o := NewOrchestrator(store, dir, WithLogger(logrus.NewEntry(logger)))
	return o, store, dir.players
}

func respond(playerID uuid.UUID, params Params) Response {
	return Response{PlayerID: playerID, Params: params}
}

func boolPtr(b bool) *bool { return &b }

func activeContext(t *testing.T, o *Orchestrator) *ActionContext {
	t.Helper()
	ctx, ok := o.Active()
	require.True(t, ok, "expected a pending action")
	return ctx
}
