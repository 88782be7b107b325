package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultRules_Valid(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())
}

func TestRuleSet_YAMLRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(DefaultRules())
	require.NoError(t, err)
	assert.Contains(t, string(data), "tag: checkpoint/sdxl")
	assert.Contains(t, string(data), "target: unet-sdxl")
	assert.Contains(t, string(data), "technique: dora")

	rs, err := ParseRules(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rs)
}

func TestParseRules_PartialOverride(t *testing.T) {
	data := []byte(`
targets:
  - prefix: lora_unet_
    target: unet
`)
	rs, err := ParseRules(data)
	require.NoError(t, err)

	assert.Equal(t, []TargetRule{{Prefix: "lora_unet_", Target: TargetUNet}}, rs.Targets)
	assert.Equal(t, DefaultRules().Rules, rs.Rules)
	assert.Equal(t, DefaultRules().Techniques, rs.Techniques)

	c := New(rs)
	tag, ok := c.Match("lora_unet_input_blocks_1_0_emb_layers_1.lora_down.weight", []uint64{4, 1280})
	require.True(t, ok)
	assert.Equal(t, Adapter(TargetUNet, TechniqueLoRA), tag)
}

func TestParseRules_EmptySectionDisables(t *testing.T) {
	rs, err := ParseRules([]byte("rules: []\n"))
	require.NoError(t, err)

	assert.Empty(t, rs.Rules)
	assert.Equal(t, DefaultRules().Targets, rs.Targets)
	assert.Equal(t, DefaultRules().Techniques, rs.Techniques)

	_, ok := New(rs).Match("conditioner.embedders.0.transformer.text_model.final_layer_norm.weight", []uint64{768})
	assert.False(t, ok)

	rs, err = ParseRules([]byte("targets: []\ntechniques: []\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRules().Rules, rs.Rules)
	assert.Empty(t, rs.Targets)
	assert.Empty(t, rs.Techniques)
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "unknown tag", data: "rules:\n  - name: x\n    prefix: a.\n    tag: checkpoint/sd3\n"},
		{name: "unknown target", data: "targets:\n  - prefix: a\n    target: vae\n"},
		{name: "unknown technique", data: "techniques:\n  - suffix: .b\n    technique: ia3\n"},
		{name: "rule without pattern", data: "rules:\n  - name: x\n    tag: vae/baked\n"},
		{name: "empty suffix", data: "techniques:\n  - suffix: \"\"\n    technique: lora\n"},
		{name: "not yaml", data: "rules: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - name: wide-embedding
    prefix: conditioner.
    dim0: 1280
    tag: checkpoint/sdxl
`), 0o600))

	rs, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rs.Rules, 1)

	c := New(rs)
	_, ok := c.Match("conditioner.embedders.1.model.ln_final.weight", []uint64{1024})
	assert.False(t, ok)
	tag, ok := c.Match("conditioner.embedders.1.model.ln_final.weight", []uint64{1280})
	assert.True(t, ok)
	assert.Equal(t, Checkpoint(ArchSDXL), tag)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRule_Matches(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		input string
		shape []uint64
		want  bool
	}{
		{name: "prefix", rule: Rule{Prefix: "a."}, input: "a.b", want: true},
		{name: "prefix miss", rule: Rule{Prefix: "a."}, input: "b.a", want: false},
		{name: "suffix", rule: Rule{Suffix: ".w"}, input: "x.w", want: true},
		{name: "prefix and suffix", rule: Rule{Prefix: "a.", Suffix: ".w"}, input: "a.x.b", want: false},
		{name: "rank", rule: Rule{Prefix: "a.", Rank: 2}, input: "a.x", shape: []uint64{1, 2}, want: true},
		{name: "rank miss", rule: Rule{Prefix: "a.", Rank: 2}, input: "a.x", shape: []uint64{1}, want: false},
		{name: "dim0 on scalar", rule: Rule{Prefix: "a.", Dim0: 3}, input: "a.x", shape: nil, want: false},
		{name: "dim0", rule: Rule{Prefix: "a.", Dim0: 3}, input: "a.x", shape: []uint64{3, 1}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Matches(tt.input, tt.shape))
		})
	}
}
