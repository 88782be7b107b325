package classify

import (
	"slices"
	"strings"

	"github.com/Karonar1/lora-viewer/internal/safetensors"
)

// Classifier assigns model type tags to tensors using an ordered RuleSet.
type Classifier struct {
	rules RuleSet
}

// New creates a classifier for rules. The rule set is used as given; call
// RuleSet.Validate first for rules from untrusted sources.
func New(rules RuleSet) *Classifier {
	return &Classifier{rules: rules}
}

// Default returns a classifier using DefaultRules.
func Default() *Classifier {
	return New(DefaultRules())
}

// Rules returns the rule table.
func (c *Classifier) Rules() RuleSet {
	return c.rules
}

// Match returns the tag for a single tensor, or false when no rule recognizes it.
func (c *Classifier) Match(name string, shape []uint64) (Tag, bool) {
	for _, r := range c.rules.Rules {
		if r.Matches(name, shape) {
			return r.Tag, true
		}
	}

	target, ok := c.target(name)
	if !ok {
		return Tag{}, false
	}
	technique, ok := c.technique(name)
	if !ok {
		return Tag{}, false
	}
	return Adapter(target, technique), true
}

func (c *Classifier) target(name string) (Target, bool) {
	for _, r := range c.rules.Targets {
		if strings.HasPrefix(name, r.Prefix) {
			return r.Target, true
		}
	}
	return 0, false
}

func (c *Classifier) technique(name string) (Technique, bool) {
	for _, r := range c.rules.Techniques {
		if strings.HasSuffix(name, r.Suffix) {
			return r.Technique, true
		}
	}
	return 0, false
}

// Classify returns the distinct tags of all tensors, with superseded tags removed,
// sorted by Compare.
func (c *Classifier) Classify(tensors []safetensors.TensorEntry) []Tag {
	set := make(map[Tag]struct{})
	for _, t := range tensors {
		if tag, ok := c.Match(t.Name, t.Shape); ok {
			set[tag] = struct{}{}
		}
	}
	return Resolve(set)
}

// Resolve drops the LoRA tag of every target that also has a DoRA tag (a DoRA adapter
// carries the same down/up tensors as a LoRA one) and returns the remaining tags sorted.
// set is modified in place.
func Resolve(set map[Tag]struct{}) []Tag {
	for tag := range set {
		if tag.Kind == KindAdapter && tag.Technique == TechniqueDoRA {
			delete(set, Adapter(tag.Target, TechniqueLoRA))
		}
	}

	tags := make([]Tag, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	slices.SortFunc(tags, Compare)
	return tags
}
