// internal/room/rules_test.go
package room

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHouseRulesUpdate(t *testing.T) {
	rules := DefaultHouseRules()
	err := rules.Update(map[string]interface{}{
		"playsPerTurn":      float64(4),
		"bountyAmount":      7,
		"embargoMultiplier": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, rules.PlaysPerTurn)
	assert.Equal(t, 7, rules.BountyAmount)
	assert.Equal(t, DefaultHouseRules().EmbargoMultiplier, rules.EmbargoMultiplier)
	assert.Equal(t, 7, rules.ActionRules().BountyAmount)

	assert.Error(t, rules.Update(map[string]interface{}{"maxPlayers": float64(1)}))
	assert.Error(t, rules.Update(map[string]interface{}{"setsToWin": "two"}))

	parsed, err := ParseRules(map[string]interface{}{"setsToWin": float64(2)}, DefaultHouseRules())
	require.NoError(t, err)
	assert.Equal(t, 2, parsed.SetsToWin)
}

func TestLoadHouseRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("setsToWin: 2\nresponseTimeoutSec: 30\nstarbaseBonus: 6\n"), 0o600))

	rules, err := LoadHouseRules(path)
	require.NoError(t, err)
	assert.Equal(t, 2, rules.SetsToWin)
	assert.Equal(t, 30, rules.ResponseTimeoutSec)
	assert.Equal(t, 6, rules.StarbaseBonus)
	assert.Equal(t, DefaultHouseRules().PlaysPerTurn, rules.PlaysPerTurn, "missing keys keep defaults")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("playsPerTurn: 0\n"), 0o600))
	_, err = LoadHouseRules(bad)
	assert.Error(t, err)

	_, err = LoadHouseRules(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
