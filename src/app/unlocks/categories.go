package unlocks

// Category maps a directory under common/ to the label shown for its items.
type Category struct {
	Dir   string `mapstructure:"dir" json:"dir"`
	Label string `mapstructure:"label" json:"label"`
}

// DefaultCategories lists every content directory that can reference a
// technology, in scan order.
var DefaultCategories = []Category{
	{"buildings", "Building"},
	{"districts", "District"},
	{"starbase_buildings", "Starbase Building"},
	{"starbase_modules", "Starbase Module"},
	{"megastructures", "Megastructure"},

	{"ship_sizes", "Ship Type"},
	{"section_templates", "Ship Section"},
	{"armies", "Army Type"},
	{"bombardment_stances", "Bombardment Stance"},

	{"edicts", "Edict"},
	{"decisions", "Decision"},
	{"policies", "Policy"},
	{"traditions", "Tradition"},
	{"ascension_perks", "Ascension Perk"},

	{"strategic_resources", "Strategic Resource"},
	{"deposits", "Deposit"},
	{"pop_jobs", "Job"},

	{"traits", "Trait"},
	{"governments", "Government/Civic"},

	{"diplomatic_actions", "Diplomatic Action"},
	{"war_goals", "War Goal"},
	{"casus_belli", "Casus Belli"},
	{"federation_perks", "Federation Perk"},

	{"special_projects", "Special Project"},
	{"artifact_actions", "Artifact Action"},
	{"astral_actions", "Astral Action"},
	{"anomalies", "Anomaly"},
	{"situations", "Situation"},

	{"component_sets", "Component Set"},
	{"terraform", "Terraforming"},
	{"observation_station_missions", "Observation Mission"},
	{"tradable_actions", "Tradable Action"},
	{"espionage_operation_types", "Espionage Operation"},
	{"specialist_subject_perks", "Specialist Subject Perk"},
	{"pop_faction_types", "Faction Type"},
	{"country_limits", "Country Limit"},
	{"species_rights", "Species Right"},
	{"zone_slots", "Zone Slot"},
	{"zones", "Zone"},
	{"council_agendas", "Council Agenda"},
	{"bypass", "Bypass"},
	{"game_rules", "Game Rule"},
	{"patrons", "Patron"},
	{"starbase_types", "Starbase Type"},
}

// metaBlocks are top-level blocks that never name a content item.
var metaBlocks = []string{"inline_script", "has_global_flag", "set_global_flag", "if", "else", "limit"}
