package sdrgnss

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

/* config.go : ambient — configuration
*
* A typed Config record enumerating every key of spec.md §6, decoded via
* gopkg.in/yaml.v3, grounded on dpcsar-stratux-ng/internal/config's
* yaml-tagged-struct approach — the only configuration-loading pattern
* attested anywhere in the retrieval pack. Unknown keys are decoded
* through a yaml.Node pre-pass and logged as a WARNING rather than
* rejected, per spec.md §7's ConfigurationInvalid handling.
 */

// Config is the top-level record; RoleConfig entries are keyed by the
// role name used in spec.md's "<Role>.<key>" convention (e.g. "Acq1",
// "Tracking1").
type Config struct {
	InternalFsHz int                   `yaml:"gnss_sdr.internal_fs_hz"`
	Roles        map[string]RoleConfig `yaml:"roles"`
}

// RoleConfig is one channel role's acquisition/tracking/dump block.
type RoleConfig struct {
	IfreqHz                   int     `yaml:"ifreq"`
	DopplerMaxHz              int     `yaml:"doppler_max"`
	CoherentIntegrationTimeMs int     `yaml:"coherent_integration_time_ms"`
	FoldingFactor             int     `yaml:"folding_factor"`
	BitTransitionFlag         bool    `yaml:"bit_transition_flag"`
	MaxDwells                 int     `yaml:"max_dwells"`
	Pfa                       float64 `yaml:"pfa"`
	TongInitVal               int     `yaml:"tong_init_val"`
	TongMaxVal                int     `yaml:"tong_max_val"`
	Dump                      bool    `yaml:"dump"`
	DumpFilename              string  `yaml:"dump_filename"`
}

var knownTopLevelKeys = map[string]bool{
	"gnss_sdr.internal_fs_hz": true,
	"roles":                   true,
}

var knownRoleKeys = map[string]bool{
	"ifreq": true, "doppler_max": true, "coherent_integration_time_ms": true,
	"folding_factor": true, "bit_transition_flag": true, "max_dwells": true,
	"pfa": true, "tong_init_val": true, "tong_max_val": true,
	"dump": true, "dump_filename": true,
}

// LoadConfig decodes the YAML document at b into a Config, logging one
// WARNING (via Trace at level 2) per unknown key rather than failing the
// load — spec.md §7's ConfigurationInvalid is a WARNING-and-continue
// error kind, not a fatal one.
func LoadConfig(b []byte) (Config, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	warnUnknownKeys(&node)

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func warnUnknownKeys(doc *yaml.Node) {
	if len(doc.Content) == 0 {
		return
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i < len(root.Content); i += 2 {
		key := root.Content[i].Value
		if !knownTopLevelKeys[key] {
			Trace(2, "config: unknown top-level key %q\n", key)
			continue
		}
		if key == "roles" {
			warnUnknownRoleKeys(root.Content[i+1])
		}
	}
}

func warnUnknownRoleKeys(roles *yaml.Node) {
	if roles.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i < len(roles.Content); i += 2 {
		roleName := roles.Content[i].Value
		roleNode := roles.Content[i+1]
		if roleNode.Kind != yaml.MappingNode {
			continue
		}
		for j := 0; j < len(roleNode.Content); j += 2 {
			key := roleNode.Content[j].Value
			if !knownRoleKeys[key] {
				Trace(2, "config: unknown key %q in role %q\n", key, roleName)
			}
		}
	}
}

// applyDefaults rounds coherent_integration_time_ms up to a multiple of
// 4*folding_factor when it isn't already, logging at WARNING per spec.md
// §7's ConfigurationInvalid handling rather than aborting.
func (c *Config) applyDefaults() {
	for name, r := range c.Roles {
		if r.FoldingFactor < 1 {
			r.FoldingFactor = 1
		}
		need := 4 * r.FoldingFactor
		if r.CoherentIntegrationTimeMs%need != 0 {
			rounded := ((r.CoherentIntegrationTimeMs / need) + 1) * need
			Trace(2, "config: role %q coherent_integration_time_ms %d not a multiple of %d, rounding to %d\n",
				name, r.CoherentIntegrationTimeMs, need, rounded)
			r.CoherentIntegrationTimeMs = rounded
		}
		c.Roles[name] = r
	}
}
