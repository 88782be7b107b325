package classify

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Rule maps a tensor name (and optionally its shape) straight to a tag.
// Zero-valued fields match anything.
type Rule struct {
	Name   string `yaml:"name"`
	Prefix string `yaml:"prefix,omitempty"`
	Suffix string `yaml:"suffix,omitempty"`
	Rank   int    `yaml:"rank,omitempty"` // required number of dimensions
	Dim0   uint64 `yaml:"dim0,omitempty"` // required size of the first dimension
	Tag    Tag    `yaml:"tag"`
}

// Matches reports whether the rule applies to the tensor.
func (r Rule) Matches(name string, shape []uint64) bool {
	if !strings.HasPrefix(name, r.Prefix) || !strings.HasSuffix(name, r.Suffix) {
		return false
	}
	if r.Rank != 0 && len(shape) != r.Rank {
		return false
	}
	if r.Dim0 != 0 && (len(shape) == 0 || shape[0] != r.Dim0) {
		return false
	}
	return true
}

// TargetRule maps an adapter tensor name prefix to the network it modifies.
type TargetRule struct {
	Prefix string `yaml:"prefix"`
	Target Target `yaml:"target"`
}

// TechniqueRule maps an adapter tensor name suffix to its factorization.
type TechniqueRule struct {
	Suffix    string    `yaml:"suffix"`
	Technique Technique `yaml:"technique"`
}

// RuleSet is the ordered rule table used by a Classifier. Rules are tried first, in
// order; when none matches, the first matching target prefix and the first matching
// technique suffix are combined into an adapter tag.
type RuleSet struct {
	Rules      []Rule          `yaml:"rules"`
	Targets    []TargetRule    `yaml:"targets"`
	Techniques []TechniqueRule `yaml:"techniques"`
}

// DefaultRules returns the built-in rule table for Stable Diffusion checkpoints, VAEs and
// kohya / diffusers style adapters.
func DefaultRules() RuleSet {
	return RuleSet{
		Rules: []Rule{
			{Name: "sd1-checkpoint", Prefix: "cond_stage_model.transformer.", Tag: Checkpoint(ArchSD1)},
			{Name: "sdxl-checkpoint", Prefix: "conditioner.embedders.", Tag: Checkpoint(ArchSDXL)},
			// Conv weights only; bare "encoder." also starts T5 and other text encoders.
			{Name: "standalone-vae", Prefix: "encoder.", Rank: 4, Tag: VAE(VAEStandalone)},
			{Name: "baked-vae", Prefix: "first_stage_model.", Tag: VAE(VAEBaked)},
		},
		Targets: []TargetRule{
			{Prefix: "lora_te1_", Target: TargetTextEncoder1},
			{Prefix: "lora_te2_", Target: TargetTextEncoder2},
			{Prefix: "lora_te_", Target: TargetTextEncoder1},
			{Prefix: "text_encoder_2.", Target: TargetTextEncoder2},
			{Prefix: "text_encoder.", Target: TargetTextEncoder1},
			{Prefix: "lora_unet_input_blocks_", Target: TargetUNetSDXL},
			{Prefix: "lora_unet_middle_block_", Target: TargetUNetSDXL},
			{Prefix: "lora_unet_output_blocks_", Target: TargetUNetSDXL},
			{Prefix: "lora_unet_label_emb_", Target: TargetUNetSDXL},
			{Prefix: "lora_unet_time_embed_", Target: TargetUNetSDXL},
			{Prefix: "lora_unet_down_blocks_", Target: TargetUNet},
			{Prefix: "lora_unet_mid_block_", Target: TargetUNet},
			{Prefix: "lora_unet_up_blocks_", Target: TargetUNet},
			{Prefix: "lora_unet_conv_in", Target: TargetUNet},
			{Prefix: "lora_unet_conv_out", Target: TargetUNet},
			{Prefix: "lora_unet_time_embedding_", Target: TargetUNet},
		},
		Techniques: []TechniqueRule{
			{Suffix: ".lora_down.weight", Technique: TechniqueLoRA},
			{Suffix: ".lora_up.weight", Technique: TechniqueLoRA},
			{Suffix: ".lora_mid.weight", Technique: TechniqueLoRA},
			{Suffix: ".lora_A.weight", Technique: TechniqueLoRA},
			{Suffix: ".lora_B.weight", Technique: TechniqueLoRA},
			{Suffix: ".dora_scale", Technique: TechniqueDoRA},
			{Suffix: ".lora_magnitude_vector", Technique: TechniqueDoRA},
			{Suffix: ".hada_w1_a", Technique: TechniqueLoHa},
			{Suffix: ".hada_w1_b", Technique: TechniqueLoHa},
			{Suffix: ".hada_w2_a", Technique: TechniqueLoHa},
			{Suffix: ".hada_w2_b", Technique: TechniqueLoHa},
			{Suffix: ".hada_t1", Technique: TechniqueLoHa},
			{Suffix: ".hada_t2", Technique: TechniqueLoHa},
			{Suffix: ".lokr_w1", Technique: TechniqueLoKr},
			{Suffix: ".lokr_w2", Technique: TechniqueLoKr},
			{Suffix: ".lokr_w1_a", Technique: TechniqueLoKr},
			{Suffix: ".lokr_w1_b", Technique: TechniqueLoKr},
			{Suffix: ".lokr_w2_a", Technique: TechniqueLoKr},
			{Suffix: ".lokr_w2_b", Technique: TechniqueLoKr},
			{Suffix: ".lokr_t2", Technique: TechniqueLoKr},
		},
	}
}

// Validate checks that every rule can match something and yields a known tag.
func (rs RuleSet) Validate() error {
	var errs []error
	for i, r := range rs.Rules {
		if r.Prefix == "" && r.Suffix == "" {
			errs = append(errs, fmt.Errorf("rule %d (%s): needs a prefix or a suffix", i, r.Name))
		}
		if _, err := r.Tag.MarshalText(); err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%s): %w", i, r.Name, err))
		}
	}
	for i, r := range rs.Targets {
		if r.Prefix == "" {
			errs = append(errs, fmt.Errorf("target %d: empty prefix", i))
		}
		if _, ok := targetNames[r.Target]; !ok {
			errs = append(errs, fmt.Errorf("target %d (%s): unknown target", i, r.Prefix))
		}
	}
	for i, r := range rs.Techniques {
		if r.Suffix == "" {
			errs = append(errs, fmt.Errorf("technique %d: empty suffix", i))
		}
		if _, ok := techniqueNames[r.Technique]; !ok {
			errs = append(errs, fmt.Errorf("technique %d (%s): unknown technique", i, r.Suffix))
		}
	}
	return errors.Join(errs...)
}

// LoadRules reads a YAML rule table from path. Sections the file leaves out keep their
// defaults; sections it defines replace the defaults entirely, keeping rule order explicit.
// An empty list (rules: []) turns a section off.
func LoadRules(path string) (RuleSet, error) {
	//nolint:gosec // G304: Rule file path comes from user configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes a YAML rule table, see LoadRules.
func ParseRules(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules: %w", err)
	}

	// mergo treats an empty list as unset, so sections the file names are not
	// offered as defaults.
	var sections map[string]yaml.Node
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules: %w", err)
	}
	defaults := DefaultRules()
	if _, ok := sections["rules"]; ok {
		defaults.Rules = nil
	}
	if _, ok := sections["targets"]; ok {
		defaults.Targets = nil
	}
	if _, ok := sections["techniques"]; ok {
		defaults.Techniques = nil
	}

	if err := mergo.Merge(&rs, defaults); err != nil {
		return RuleSet{}, fmt.Errorf("failed to apply default rules: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return RuleSet{}, fmt.Errorf("invalid rules: %w", err)
	}
	return rs, nil
}
