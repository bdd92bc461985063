package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/simivar/stnh-techtree-exporter/src/app/techtree"
	"github.com/simivar/stnh-techtree-exporter/src/app/unlocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// newMod lays out a minimal mod with two technologies, one building and a
// single icon.
func newMod(t *testing.T) string {
	t.Helper()
	mod := filepath.Join(t.TempDir(), "mod")

	writeFile(t, filepath.Join(mod, "common", "technology", "00_sth_physics.txt"), `
tech_alpha = {
	area = physics
	tier = 1
	cost = 100
	icon = "tech_alpha_icon"
}
tech_beta = {
	area = physics
	prerequisites = { "tech_alpha" "tech_ghost" }
}
`)
	writeFile(t, filepath.Join(mod, "common", "technology", "readme.txt"), `tech_ignored = { area = physics }`)
	writeFile(t, filepath.Join(mod, "common", "buildings", "00_labs.txt"), `
building_lab = {
	prerequisites = { "tech_alpha" }
}
`)
	writeFile(t, filepath.Join(mod, "localisation", "english", "sth_tech_l_english.yml"), "l_english:\n tech_alpha:0 \"Alpha\"\n tech_alpha_desc:0 \"First steps\"\n")
	writeFile(t, filepath.Join(mod, "gfx", "interface", "icons", "technologies", "tech_alpha_icon.dds"), "DDS fake")
	return mod
}

func TestRunGeneratesEverything(t *testing.T) {
	mod := newMod(t)
	out := t.TempDir()

	p := New(Config{
		ModRoot:    mod,
		OutputRoot: out,
		BalanceDir: filepath.Join(out, "no-export"),
	})
	success, err := p.Run()
	require.NoError(t, err)
	assert.True(t, success)

	cfg := p.Config()

	var physics []techtree.Record
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(cfg.AssetsDir, "technology_physics.json"))), &physics))
	require.Len(t, physics, 2)
	assert.Equal(t, "tech_alpha", physics[0].ID)
	assert.Equal(t, "Alpha", physics[0].Name)
	assert.Equal(t, "First steps", physics[0].Description)
	assert.Equal(t, "tech_alpha_icon", physics[0].Icon)
	assert.Equal(t, "Building: Lab", physics[0].UnlockDetails.Description)
	assert.Equal(t, "tech_beta", physics[1].ID)

	assert.FileExists(t, filepath.Join(cfg.AssetsDir, techtree.FactionsFile))
	assert.FileExists(t, filepath.Join(cfg.AssetsDir, techtree.UnlockTypesFile))
	assert.Equal(t, "tech_beta -> tech_ghost\n", readFile(t, filepath.Join(cfg.AssetsDir, techtree.DanglingFile)))

	assert.FileExists(t, filepath.Join(cfg.CacheDir, LocalisationFile))
	assert.FileExists(t, filepath.Join(cfg.CacheDir, TriggerMapFile))
	assert.FileExists(t, filepath.Join(cfg.CacheDir, IconMappingFile))

	assert.FileExists(t, filepath.Join(cfg.IconsDir, "tech_alpha_icon.dds"))
	assert.Equal(t, "tech_beta -> tech_beta\n", readFile(t, filepath.Join(cfg.CacheDir, NotFoundIconsFile)))

	doc := p.Log().Document()
	require.Len(t, doc.Phases, 6)
	assert.Equal(t, PhaseValidation, doc.Phases[0].Name)
	assert.Equal(t, PhaseFinalize, doc.Phases[5].Name)
	assert.Equal(t, 2, doc.Statistics["techs_total"])
	assert.Equal(t, 1, doc.Statistics["dds_files_to_convert"])
	assert.Equal(t, 0, doc.Statistics["components"])
	assert.Empty(t, doc.Errors)
	assert.NotEmpty(t, doc.Warnings)
	require.NotEmpty(t, doc.ManualStepsRequired)
	assert.Contains(t, doc.ManualStepsRequired[0], "Convert 1 DDS icon(s)")

	logs, err := filepath.Glob(filepath.Join(cfg.LogsDir, "update_*.json"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestRunRecordsFailedStepAndContinues(t *testing.T) {
	mod := newMod(t)
	out := t.TempDir()

	p := New(Config{
		ModRoot:      mod,
		OutputRoot:   out,
		TriggersPath: filepath.Join(out, "missing_rules.yaml"),
	})
	success, err := p.Run()
	require.NoError(t, err)
	assert.False(t, success)

	doc := p.Log().Document()
	require.Len(t, doc.Phases, 6)
	assert.False(t, *doc.Phases[1].Success)
	assert.True(t, *doc.Phases[3].Success)
	require.Len(t, doc.Errors, 1)
	assert.Contains(t, doc.Errors[0], "trigger map: ")
	assert.FileExists(t, filepath.Join(p.Config().AssetsDir, "technology_physics.json"))
}

func TestRunAbortsOnInvalidModRoot(t *testing.T) {
	out := t.TempDir()
	mod := filepath.Join(out, "mod")
	require.NoError(t, os.MkdirAll(filepath.Join(mod, "localisation", "english"), 0o755))

	p := New(Config{ModRoot: mod, OutputRoot: out})
	success, err := p.Run()
	require.ErrorIs(t, err, ErrInvalidRoot)
	assert.False(t, success)

	doc := p.Log().Document()
	require.Len(t, doc.Phases, 1)
	assert.False(t, *doc.Phases[0].Success)
	assert.NoFileExists(t, filepath.Join(out, "assets", "technology_physics.json"))

	logs, err := filepath.Glob(filepath.Join(out, "logs", "update_*.json"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestValidateRequiresModRoot(t *testing.T) {
	require.ErrorIs(t, Config{}.WithDefaults().Validate(), ErrInvalidRoot)
	require.NoError(t, Config{ModRoot: newMod(t)}.WithDefaults().Validate())
}

func TestWithDefaults(t *testing.T) {
	cfg := Config{ModRoot: "/games/sth/descriptor.mod", OutputRoot: "/srv/out", LogsDir: "/var/log/stt"}.WithDefaults()

	assert.Equal(t, "/games/sth", cfg.ModRoot)
	assert.Equal(t, "/srv/out/assets", cfg.AssetsDir)
	assert.Equal(t, "/srv/out/data", cfg.CacheDir)
	assert.Equal(t, "/srv/out/icons", cfg.IconsDir)
	assert.Equal(t, "/srv/out/icons/icons_webp", cfg.WebpDir)
	assert.Equal(t, "/var/log/stt", cfg.LogsDir)
	assert.Equal(t, DefaultTechPattern, cfg.TechPattern)
	assert.Equal(t, DefaultKeepLogs, cfg.KeepLogs)
	assert.Equal(t, unlocks.DefaultCategories, cfg.Categories)
	assert.Equal(t, "/games/sth/common/technology", cfg.TechDir())
}

func TestIconRoots(t *testing.T) {
	cfg := Config{ModRoot: "/mod"}.WithDefaults()
	require.Len(t, cfg.IconRoots(), 2)
	assert.Equal(t, "/mod/gfx/interface/icons/technologies", cfg.IconRoots()[0].Path)

	cfg = Config{ModRoot: "/mod", VanillaRoot: "/stellaris"}.WithDefaults()
	roots := cfg.IconRoots()
	require.Len(t, roots, 4)
	assert.Equal(t, "vanilla gfx", roots[3].Label)
	assert.Equal(t, "/stellaris/gfx", roots[3].Path)
}

func TestRunPhasesRunsOnlySelectedPhases(t *testing.T) {
	mod := newMod(t)
	out := t.TempDir()

	p := New(Config{ModRoot: mod, OutputRoot: out})
	success, err := p.RunPhases(PhaseIcons, PhaseIconMap)
	require.NoError(t, err)
	assert.True(t, success)

	doc := p.Log().Document()
	require.Len(t, doc.Phases, 3)
	assert.Equal(t, PhaseIconMap, doc.Phases[1].Name)
	assert.Equal(t, PhaseIcons, doc.Phases[2].Name)

	cfg := p.Config()
	assert.FileExists(t, filepath.Join(cfg.IconsDir, "tech_alpha_icon.dds"))
	assert.NoFileExists(t, filepath.Join(cfg.AssetsDir, "technology_physics.json"))
	assert.NoDirExists(t, cfg.LogsDir)
}

func TestRequiredSpeciesSurviveSiblingNot(t *testing.T) {
	mod := newMod(t)
	writeFile(t, filepath.Join(mod, "common", "technology", "01_sth_society.txt"), `
tech_society_bat_leth = {
	area = society
	potential = {
		NOT = { has_country_flag = borg_collective }
		is_species_class = KDF
	}
}
`)

	p := New(Config{ModRoot: mod, OutputRoot: t.TempDir()})
	success, err := p.RunPhases(PhaseCaching, PhaseGeneration)
	require.NoError(t, err)
	assert.True(t, success)

	var found bool
	for _, r := range p.Records() {
		if r.ID == "tech_society_bat_leth" {
			found = true
			assert.Equal(t, []string{"Klingon"}, r.RequiredSpecies)
		}
	}
	assert.True(t, found)
}
