package components

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/simivar/stnh-techtree-exporter/src/app/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const templates = `
# phasers
weapon_component_template = {
	key = "PHASER_1"
	size = small
	power = -5
	damage = { min = 10 max = 20 }
	windup = 0.5
	cooldown = 3
	prerequisites = { "tech_phaser_1" "building_x" }
	resources = {
		category = ship_components
		cost = { alloys = 12 }
		upkeep = { energy = 0.2 }
	}
}

utility_component_template = {
	key = "SHIELD_1"
	size = medium
	prerequisites = { tech_shields_1 }
	modifier = {
		ship_shield_add = 120
		ship_shield_mult = 0.1
	}
}

utility_component_template = {
	size = small
}

ship_size = { key = "NOT_A_COMPONENT" }
`

func TestParseTemplates(t *testing.T) {
	c := NewCatalog()

	n := c.Parse(templates)

	require.Equal(t, 2, n)
	require.Equal(t, 2, c.Len())
	require.Len(t, c.ForTech("tech_phaser_1"), 1)
	phaser := c.ForTech("tech_phaser_1")[0]
	assert.Equal(t, "PHASER_1", phaser.Key)
	assert.Equal(t, "weapon_component_template", phaser.Type)
	assert.Equal(t, "small", phaser.Size)
	assert.Equal(t, -5.0, phaser.Power)
	assert.Equal(t, []string{"tech_phaser_1"}, phaser.Prerequisites)
	assert.Equal(t, map[string]float64{"alloys": 12}, phaser.Cost)
	assert.Equal(t, map[string]float64{"energy": 0.2}, phaser.Upkeep)
	assert.Equal(t, 10.0, phaser.DamageMin)
	assert.Equal(t, 20.0, phaser.DamageMax)
	assert.Equal(t, 0.5, phaser.Windup)
	assert.Equal(t, 3.0, phaser.Cooldown)

	shield := c.ForTech("tech_shields_1")[0]
	assert.Equal(t, []script.Pair{
		{Key: "ship_shield_add", Value: 120},
		{Key: "ship_shield_mult", Value: 0.1},
	}, shield.Modifiers)
}

func TestForTech(t *testing.T) {
	c := NewCatalog()
	c.Parse(templates)

	got := c.ForTech("tech_shields_1")

	require.Len(t, got, 1)
	assert.Equal(t, "SHIELD_1", got[0].Key)
	assert.Empty(t, c.ForTech("tech_unknown"))
	assert.Equal(t, 2, c.TechCount())
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00_weapons.txt"), []byte(templates), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte(templates), 0o644))

	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	empty, err := Load(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}
