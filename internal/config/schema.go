package config

// WatchConfig is the top-level YAML structure.
type WatchConfig struct {
	Version string     `yaml:"version"`
	Render  RenderConf `yaml:"render"`
	Watches []WatchDef `yaml:"watches"`
}

// RenderConf holds tunable rendering settings.
type RenderConf struct {
	ExportWorkers int `yaml:"export_workers"`
	CacheSize     int `yaml:"cache_size"` // rendered documents kept in the LRU
}

// WatchDef describes one watch. Trigger is required; the other components
// fall back to the builder defaults when omitted.
type WatchDef struct {
	ID             string         `yaml:"id"`
	Description    string         `yaml:"description"`
	Trigger        *ComponentDef  `yaml:"trigger"`
	Input          *ComponentDef  `yaml:"input,omitempty"`
	Condition      *ComponentDef  `yaml:"condition,omitempty"`
	Transform      *ComponentDef  `yaml:"transform,omitempty"`
	ThrottlePeriod string         `yaml:"throttle_period,omitempty"` // time.ParseDuration syntax
	Metadata       map[string]any `yaml:"metadata,omitempty"`
	Actions        []ActionDef    `yaml:"actions"`
}

// ComponentDef names a registered component type and its params.
type ComponentDef struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params"`
}

// ActionDef is one action plus its optional per-action overrides.
type ActionDef struct {
	ID             string         `yaml:"id"`
	Type           string         `yaml:"type"`
	Params         map[string]any `yaml:"params"`
	ThrottlePeriod string         `yaml:"throttle_period,omitempty"`
	Condition      *ComponentDef  `yaml:"condition,omitempty"`
	Transform      *ComponentDef  `yaml:"transform,omitempty"`
}
