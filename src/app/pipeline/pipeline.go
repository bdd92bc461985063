package pipeline

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/simivar/stnh-techtree-exporter/src/app"
	"github.com/simivar/stnh-techtree-exporter/src/app/artifact"
	"github.com/simivar/stnh-techtree-exporter/src/app/balance"
	"github.com/simivar/stnh-techtree-exporter/src/app/components"
	"github.com/simivar/stnh-techtree-exporter/src/app/icons"
	"github.com/simivar/stnh-techtree-exporter/src/app/localisation"
	"github.com/simivar/stnh-techtree-exporter/src/app/runlog"
	"github.com/simivar/stnh-techtree-exporter/src/app/techtree"
	"github.com/simivar/stnh-techtree-exporter/src/app/triggers"
	"github.com/simivar/stnh-techtree-exporter/src/app/unlocks"
)

const (
	LocalisationFile    = "localisation_map.json"
	TriggerMapFile      = "trigger_map.json"
	IconMappingFile     = "tech_icon_mappings.json"
	ReverseUnlocksFile  = "reverse_unlocks.json"
	MissingIconsFile    = "actually_missing_icons.txt"
	NotFoundIconsFile   = "truly_missing_icons.txt"
	InvalidWebPIconFile = "invalid_webp_icons.txt"
)

const (
	PhaseValidation = "Validation"
	PhaseCaching    = "Data caching"
	PhaseIconMap    = "Icon mapping"
	PhaseGeneration = "Generation"
	PhaseIcons      = "Icons"
	PhaseFinalize   = "Finalization"
)

// Pipeline runs the full update: caches, icon mapping, technology
// generation, icon resolution and the run log. Each phase reads what the
// previous ones left on the struct; a failed step leaves its field empty
// and later phases work with what is there.
type Pipeline struct {
	cfg    Config
	runlog *runlog.Logger

	assets *artifact.Writer
	cache  *artifact.Writer

	loc     *localisation.Table
	species *triggers.Resolver
	mapping icons.Mapping
	records []techtree.Record
	conv    icons.Conversion
}

type step struct {
	name string
	run  func() (map[string]any, error)
}

func New(cfg Config) *Pipeline {
	cfg = cfg.WithDefaults()
	return &Pipeline{
		cfg:    cfg,
		runlog: runlog.New(cfg.LogsDir),
		assets: artifact.NewWriter(cfg.AssetsDir, cfg.Precompress),
		cache:  artifact.NewWriter(cfg.CacheDir, false),
	}
}

func (p *Pipeline) Config() Config {
	return p.cfg
}

func (p *Pipeline) Log() *runlog.Logger {
	return p.runlog
}

func (p *Pipeline) Records() []techtree.Record {
	return p.records
}

type phaseDef struct {
	name  string
	steps []step
}

func (p *Pipeline) phases() []phaseDef {
	return []phaseDef{
		{PhaseCaching, []step{{"localisation", p.cacheLocalisation}, {"trigger map", p.cacheTriggers}}},
		{PhaseIconMap, []step{{"icon mappings", p.mapIcons}}},
		{PhaseGeneration, []step{{"technologies", p.generate}}},
		{PhaseIcons, []step{{"icons", p.resolveIcons}}},
	}
}

// Run executes every phase and saves the run log. Only a failed validation
// aborts the run and is returned as an error; any other failure is
// recorded in the run log and reported through the returned success flag.
func (p *Pipeline) Run() (bool, error) {
	return p.run(true, nil)
}

// RunPhases runs the named phases in pipeline order after validation. The
// session is kept in memory only.
func (p *Pipeline) RunPhases(names ...string) (bool, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	return p.run(false, want)
}

func (p *Pipeline) run(full bool, want map[string]bool) (bool, error) {
	p.runlog.Start()
	log.Info().Str("session", p.runlog.SessionID()).Str("mod", p.cfg.ModRoot).Msg("Update started")

	if err := p.validate(); err != nil {
		p.runlog.End()
		if full {
			p.save()
		}
		p.runlog.Summary()
		return false, err
	}

	for _, ph := range p.phases() {
		if full || want[ph.name] {
			p.phase(ph.name, ph.steps...)
		}
	}
	if full {
		p.finalize()
	}

	success := p.runlog.End()
	if full {
		p.save()
		if archived, err := runlog.Archive(p.cfg.LogsDir, p.cfg.KeepLogs); err != nil {
			log.Warn().Err(err).Msg("Failed to archive old run logs")
		} else if len(archived) > 0 {
			log.Debug().Msgf("[pipeline] archived %d run logs", len(archived))
		}
	}
	p.runlog.Summary()
	return success, nil
}

func (p *Pipeline) save() {
	path, err := p.runlog.Save()
	if err != nil {
		log.Error().Err(err).Msg("Failed to save run log")
		return
	}
	log.Info().Str("path", path).Msg("Run log saved")
}

func (p *Pipeline) phase(name string, steps ...step) {
	_ = p.runlog.StartPhase(name)
	for _, s := range steps {
		started := time.Now()
		output, err := s.run()
		status, msg := runlog.StatusSuccess, ""
		if err != nil {
			status, msg = runlog.StatusError, err.Error()
			log.Error().Err(err).Str("phase", name).Str("step", s.name).Msg("Step failed")
		}
		_ = p.runlog.Step(s.name, status, time.Since(started), output, msg)
	}
	p.runlog.EndPhase()
}

func (p *Pipeline) validate() error {
	_ = p.runlog.StartPhase(PhaseValidation)
	started := time.Now()
	defer p.runlog.EndPhase()

	p.runlog.SetEnvironment("mod_root", p.cfg.ModRoot)
	p.runlog.SetEnvironment("output_root", p.cfg.OutputRoot)
	if p.cfg.VanillaRoot != "" {
		p.runlog.SetEnvironment("vanilla_root", p.cfg.VanillaRoot)
	}

	if err := p.cfg.Validate(); err != nil {
		_ = p.runlog.Step("paths", runlog.StatusError, time.Since(started), nil, err.Error())
		log.Error().Err(err).Msg("Validation failed")
		return err
	}

	balanceOK := p.cfg.BalanceDir != ""
	if !balanceOK {
		p.runlog.AddWarning("Balance center export not configured, using mod files only")
	}
	_ = p.runlog.Step("paths", runlog.StatusSuccess, time.Since(started), map[string]any{
		"paths_valid":               true,
		"balance_center_configured": balanceOK,
	}, "")
	return nil
}

func (p *Pipeline) cacheLocalisation() (map[string]any, error) {
	loc, err := localisation.Load(p.cfg.LocalisationDir(), p.cfg.LocPattern)
	if err != nil {
		return nil, fmt.Errorf("load localisation: %w", err)
	}
	p.loc = loc
	if _, err := p.cache.JSON(LocalisationFile, loc.Map()); err != nil {
		return nil, err
	}
	return map[string]any{"files": loc.Files(), "entries": loc.Len()}, nil
}

func (p *Pipeline) cacheTriggers() (map[string]any, error) {
	table, err := triggers.LoadOrDefault(p.cfg.TriggersPath)
	if err != nil {
		return nil, err
	}

	r, err := triggers.NewResolver(table.Rules())
	if err != nil {
		return nil, fmt.Errorf("compile trigger rules: %w", err)
	}
	p.species = r
	if _, err := p.cache.JSON(TriggerMapFile, table); err != nil {
		return nil, err
	}
	return map[string]any{"categories": len(table), "rules": table.Len()}, nil
}

func (p *Pipeline) techFiles() ([]string, error) {
	return app.ListFiles(p.cfg.TechDir(), p.cfg.TechPattern, false)
}

func (p *Pipeline) mapIcons() (map[string]any, error) {
	files, err := p.techFiles()
	if err != nil {
		return nil, err
	}
	p.mapping = icons.MappingFromFiles(files)
	if _, err := p.cache.JSON(IconMappingFile, p.mapping); err != nil {
		return nil, err
	}
	return map[string]any{"technologies": len(p.mapping), "icons": len(p.mapping.Needed())}, nil
}

func (p *Pipeline) generate() (map[string]any, error) {
	var (
		exported []balance.Technology
		md       balance.Metadata
	)
	if p.cfg.BalanceDir != "" {
		exp, err := balance.Load(p.cfg.BalanceDir)
		switch {
		case errors.Is(err, balance.ErrNoExport):
			log.Warn().Err(err).Msg("Continuing with mod files only")
			p.runlog.AddWarning(err.Error())
		case err != nil:
			return nil, fmt.Errorf("balance center: %w", err)
		default:
			exported, md = exp.Technologies, exp.Metadata
		}
	}

	files, err := p.techFiles()
	if err != nil {
		return nil, err
	}
	parsed := techtree.LoadSources(files)

	catalog, err := components.Load(p.cfg.ComponentsDir())
	if err != nil {
		return nil, fmt.Errorf("components: %w", err)
	}
	index := unlocks.NewIndexer(p.cfg.ModRoot, p.cfg.Categories).Build()
	if _, err := p.cache.JSON(ReverseUnlocksFile, index); err != nil {
		return nil, err
	}

	b, err := techtree.NewBuilder(techtree.Inputs{
		Localisation: p.loc,
		Components:   catalog,
		Unlocks:      index,
		Icons:        p.mapping,
		Species:      p.species,
		Metadata:     md,
	})
	if err != nil {
		return nil, err
	}
	p.records = b.Build(exported, parsed)

	names := md.Factions
	if len(names) == 0 {
		names = techtree.KnownFactions()
	}
	factions := techtree.Factions(names, p.records)

	report, err := techtree.Analyze(p.records)
	if err != nil {
		return nil, err
	}
	if len(report.Dangling) > 0 || len(report.Cycles) > 0 {
		p.runlog.AddWarning(fmt.Sprintf("%d dangling prerequisites, %d cycles", len(report.Dangling), len(report.Cycles)))
	}

	if err := techtree.Write(p.assets, techtree.Output{Records: p.records, Factions: factions, Report: report}); err != nil {
		return nil, err
	}

	stats := map[string]any{}
	total := 0
	for area, recs := range techtree.Split(p.records) {
		stats["techs_"+area] = len(recs)
		total += len(recs)
	}
	stats["techs_total"] = total
	stats["factions"] = len(factions)
	stats["unlock_types"] = len(techtree.UnlockTypes(p.records))
	stats["dangling_prerequisites"] = len(report.Dangling)
	stats["prerequisite_cycles"] = len(report.Cycles)
	stats["components"] = catalog.Len()
	stats["component_techs"] = catalog.TechCount()
	for k, v := range stats {
		p.runlog.SetStatistic(k, v)
	}
	stats["from_balance"] = b.Stats().FromBalance
	stats["from_mod"] = b.Stats().FromMod
	stats["dropped"] = b.Stats().Dropped
	return stats, nil
}

// neededIcons maps every record to its icon name. Without generated
// records the mapping read from the technology files is used.
func (p *Pipeline) neededIcons() icons.Mapping {
	if len(p.records) == 0 {
		return p.mapping
	}
	m := icons.Mapping{}
	for _, r := range p.records {
		m[r.ID] = r.Icon
	}
	return m
}

func (p *Pipeline) resolveIcons() (map[string]any, error) {
	conv, err := icons.ScanConversion(p.cfg.WebpDir, p.cfg.IconsDir)
	if err != nil {
		return nil, err
	}

	needed := p.neededIcons()
	pending := conv.Unconverted(needed.Needed())

	r := icons.NewResolver(p.cfg.IconMarker, p.cfg.IconRoots()...)
	if err := r.Index(); err != nil {
		return nil, err
	}
	res, err := r.Resolve(pending, p.cfg.IconsDir)
	if err != nil {
		return nil, err
	}

	// Rescan so freshly copied files count as pending conversion.
	if len(res.NewlyCopied) > 0 {
		if conv, err = icons.ScanConversion(p.cfg.WebpDir, p.cfg.IconsDir); err != nil {
			return nil, err
		}
	}
	p.conv = conv

	if _, err := p.cache.Lines(MissingIconsFile, needed.Lines(pending)); err != nil {
		return nil, err
	}
	if _, err := p.cache.Lines(NotFoundIconsFile, needed.Lines(res.Missing)); err != nil {
		return nil, err
	}
	if len(conv.Invalid) > 0 {
		if _, err := p.cache.Lines(InvalidWebPIconFile, conv.Invalid); err != nil {
			return nil, err
		}
		p.runlog.AddWarning(fmt.Sprintf("%d WebP icons could not be decoded", len(conv.Invalid)))
	}
	if n := len(conv.Pending); n > 0 {
		p.runlog.AddWarning(fmt.Sprintf("%d DDS files need conversion", n))
	}

	p.runlog.SetStatistic("icons_needed", len(needed.Needed()))
	p.runlog.SetStatistic("icons_webp_available", len(conv.Converted))
	p.runlog.SetStatistic("icons_not_found", len(res.Missing))
	p.runlog.SetStatistic("dds_files_to_convert", len(conv.Pending))
	return map[string]any{
		"unconverted":     len(pending),
		"copied":          len(res.NewlyCopied),
		"already_present": len(res.AlreadyPresent),
		"not_found":       len(res.Missing),
		"invalid_webp":    len(conv.Invalid),
	}, nil
}

func (p *Pipeline) finalize() {
	p.phase(PhaseFinalize, step{"finalization", func() (map[string]any, error) {
		stats := p.runlog.Document().Statistics
		total, _ := stats["techs_total"].(int)
		available, _ := stats["icons_webp_available"].(int)
		if total > 0 {
			coverage := math.Round(float64(available)/float64(total)*10000) / 100
			p.runlog.SetStatistic("icon_coverage_percent", coverage)
		}

		if m := p.conv.ManualStep(); m != "" {
			p.runlog.AddManualStep(m)
		}
		p.runlog.AddManualStep("Test the tech tree viewer locally in a browser")
		p.runlog.AddManualStep("Commit and push the generated files")

		return map[string]any{"files_written": len(p.assets.Written()) + len(p.cache.Written())}, nil
	}})
}
