package classify

import (
	"cmp"
	"fmt"
	"strings"
)

// Kind is the top level of the tag vocabulary.
type Kind int

// Tag kinds.
const (
	KindCheckpoint Kind = iota + 1
	KindAdapter
	KindVAE
)

// Arch is the architecture of a full checkpoint.
type Arch int

// Checkpoint architectures. SD1 has a single text encoder, SDXL a dual text encoder
// conditioner.
const (
	ArchSD1 Arch = iota + 1
	ArchSDXL
)

// Target is the sub-model an adapter tensor modifies.
type Target int

// Adapter network targets. TargetUNet is a UNet addressed with diffusers-style block
// names (SD1.x), TargetUNetSDXL one addressed with SGM-style names (SDXL).
const (
	TargetTextEncoder1 Target = iota + 1
	TargetTextEncoder2
	TargetUNet
	TargetUNetSDXL
)

// Technique is the adapter factorization.
type Technique int

// Adapter techniques.
const (
	TechniqueLoRA Technique = iota + 1
	TechniqueDoRA
	TechniqueLoHa
	TechniqueLoKr
)

// VAEKind tells a standalone VAE from one baked into a checkpoint.
type VAEKind int

// VAE kinds.
const (
	VAEStandalone VAEKind = iota + 1
	VAEBaked
)

var (
	archNames = map[Arch]string{ArchSD1: "sd1", ArchSDXL: "sdxl"}

	targetNames = map[Target]string{
		TargetTextEncoder1: "te1",
		TargetTextEncoder2: "te2",
		TargetUNet:         "unet",
		TargetUNetSDXL:     "unet-sdxl",
	}

	techniqueNames = map[Technique]string{
		TechniqueLoRA: "lora",
		TechniqueDoRA: "dora",
		TechniqueLoHa: "loha",
		TechniqueLoKr: "lokr",
	}

	vaeNames = map[VAEKind]string{VAEStandalone: "standalone", VAEBaked: "baked"}
)

// Tag is one classification result. Only the fields relevant to Kind are set, so tags
// are comparable and can be used as map keys.
type Tag struct {
	Kind      Kind
	Arch      Arch
	Target    Target
	Technique Technique
	VAE       VAEKind
}

// Checkpoint returns the checkpoint tag for arch.
func Checkpoint(arch Arch) Tag {
	return Tag{Kind: KindCheckpoint, Arch: arch}
}

// Adapter returns the adapter tag for target and technique.
func Adapter(target Target, technique Technique) Tag {
	return Tag{Kind: KindAdapter, Target: target, Technique: technique}
}

// VAE returns the VAE tag for kind.
func VAE(kind VAEKind) Tag {
	return Tag{Kind: KindVAE, VAE: kind}
}

// String returns a human-readable label such as "LoRA (UNet SDXL)".
func (t Tag) String() string {
	switch t.Kind {
	case KindCheckpoint:
		if t.Arch == ArchSDXL {
			return "SDXL checkpoint"
		}
		return "SD1 checkpoint"
	case KindVAE:
		if t.VAE == VAEBaked {
			return "Baked VAE"
		}
		return "VAE"
	case KindAdapter:
		return fmt.Sprintf("%s (%s)", t.Technique.String(), t.Target.String())
	default:
		return "Unknown"
	}
}

// String returns the display name of the target.
func (t Target) String() string {
	switch t {
	case TargetTextEncoder1:
		return "Text encoder 1"
	case TargetTextEncoder2:
		return "Text encoder 2"
	case TargetUNet:
		return "UNet"
	case TargetUNetSDXL:
		return "UNet SDXL"
	default:
		return "Unknown"
	}
}

// String returns the display name of the technique.
func (t Technique) String() string {
	switch t {
	case TechniqueLoRA:
		return "LoRA"
	case TechniqueDoRA:
		return "DoRA"
	case TechniqueLoHa:
		return "LoHa"
	case TechniqueLoKr:
		return "LoKr"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the tag as "checkpoint/sdxl", "vae/baked" or "adapter/te1/dora".
func (t Tag) MarshalText() ([]byte, error) {
	var parts []string
	switch t.Kind {
	case KindCheckpoint:
		parts = []string{"checkpoint", archNames[t.Arch]}
	case KindVAE:
		parts = []string{"vae", vaeNames[t.VAE]}
	case KindAdapter:
		parts = []string{"adapter", targetNames[t.Target], techniqueNames[t.Technique]}
	default:
		return nil, fmt.Errorf("unknown tag kind %d", t.Kind)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("incomplete %s tag", parts[0])
		}
	}
	return []byte(strings.Join(parts, "/")), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tag) UnmarshalText(text []byte) error {
	tag, err := ParseTag(string(text))
	if err != nil {
		return err
	}
	*t = tag
	return nil
}

// ParseTag parses the text form produced by MarshalText.
func ParseTag(s string) (Tag, error) {
	parts := strings.Split(s, "/")
	switch {
	case len(parts) == 2 && parts[0] == "checkpoint":
		if arch, ok := lookup(archNames, parts[1]); ok {
			return Checkpoint(arch), nil
		}
	case len(parts) == 2 && parts[0] == "vae":
		if kind, ok := lookup(vaeNames, parts[1]); ok {
			return VAE(kind), nil
		}
	case len(parts) == 3 && parts[0] == "adapter":
		target, okTarget := lookup(targetNames, parts[1])
		technique, okTechnique := lookup(techniqueNames, parts[2])
		if okTarget && okTechnique {
			return Adapter(target, technique), nil
		}
	}
	return Tag{}, fmt.Errorf("unknown tag %q", s)
}

// MarshalText encodes the target as "te1", "te2", "unet" or "unet-sdxl".
func (t Target) MarshalText() ([]byte, error) {
	name, ok := targetNames[t]
	if !ok {
		return nil, fmt.Errorf("unknown target %d", t)
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Target) UnmarshalText(text []byte) error {
	target, ok := lookup(targetNames, string(text))
	if !ok {
		return fmt.Errorf("unknown target %q", text)
	}
	*t = target
	return nil
}

// MarshalText encodes the technique as "lora", "dora", "loha" or "lokr".
func (t Technique) MarshalText() ([]byte, error) {
	name, ok := techniqueNames[t]
	if !ok {
		return nil, fmt.Errorf("unknown technique %d", t)
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Technique) UnmarshalText(text []byte) error {
	technique, ok := lookup(techniqueNames, string(text))
	if !ok {
		return fmt.Errorf("unknown technique %q", text)
	}
	*t = technique
	return nil
}

// Compare orders tags by kind, then by their fields.
func Compare(a, b Tag) int {
	return cmp.Or(
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.Arch, b.Arch),
		cmp.Compare(a.Target, b.Target),
		cmp.Compare(a.Technique, b.Technique),
		cmp.Compare(a.VAE, b.VAE),
	)
}

func lookup[K comparable](names map[K]string, s string) (K, bool) {
	for k, name := range names {
		if name == s {
			return k, true
		}
	}
	var zero K
	return zero, false
}
