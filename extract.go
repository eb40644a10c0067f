package wardly

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Recognizer tries to find one field's raw value in free text. It returns
// the candidate substring and whether it matched.
type Recognizer func(text string) (string, bool)

// Normalizer converts a recognized raw substring into the field's typed
// value. An error rejects the candidate and leaves the field unset.
type Normalizer func(raw string) (any, error)

// FieldRule is one entry of an entity's ordered recognition cascade.
// A nil Normalize keeps the trimmed raw value.
type FieldRule struct {
	Field     string
	Recognize Recognizer
	Normalize Normalizer
}

// CompositeRule recognizes several fields at once (e.g. a full name split
// into first and last). Composites run before the field cascade; a composite
// only applies when none of its target fields are set yet.
type CompositeRule struct {
	Fields    []string
	Recognize func(text string) ([]string, bool)
}

// ForeignKey fills an identifier field from a human-typed name of a related
// entity: Recognize captures the name, the Resolver turns it into an id.
type ForeignKey struct {
	Field     string
	Kind      string
	Recognize Recognizer
}

// GeneratedID synthesizes an identifier field (e.g. a patient number) when
// the text supplies none. Synthesis happens only after every other required
// field has resolved.
type GeneratedID struct {
	Field    string
	Generate func(now time.Time) string
}

// EntityRules is the full extraction program for one entity type: the
// ordered cascade, optional composites, foreign keys, the generated
// identifier, the required-field gate, and the canonical example shown when
// extraction is incomplete.
type EntityRules struct {
	Entity      string
	Tool        string // creation tool fed by this entity's fields
	Required    []string
	Composites  []CompositeRule
	Rules       []FieldRule
	ForeignKeys []ForeignKey
	Generated   *GeneratedID
	Example     string
}

// Outcome is the result of one extraction: either Complete with every
// required field resolved, or Incomplete naming what is still missing plus
// the entity's canonical example. Extraction never partially executes a
// tool call.
type Outcome struct {
	Complete bool
	Entity   string
	Fields   map[string]any
	Missing  []string
	Example  string
}

// Extractor converts raw text plus a target entity type into a field map or
// a structured "what's missing" answer. Rules run in a fixed,
// entity-specific order; the first successful rule for a field wins and
// there is no backtracking across fields.
type Extractor struct {
	entities map[string]*EntityRules
	opts     extractorOptions
}

// NewExtractor builds an Extractor over the given entity rule tables.
func NewExtractor(entities []*EntityRules, opts ...ExtractorOption) *Extractor {
	o := extractorOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	m := make(map[string]*EntityRules, len(entities))
	for _, er := range entities {
		m[er.Entity] = er
	}
	return &Extractor{entities: m, opts: o}
}

// Extract runs the entity's rule cascade against text. The returned error
// is non-nil only for an unknown entity type; recognition and resolution
// failures surface through an Incomplete outcome instead.
func (e *Extractor) Extract(ctx context.Context, text, entity string) (Outcome, error) {
	er, ok := e.entities[entity]
	if !ok {
		return Outcome{}, fmt.Errorf("%q: %w", entity, ErrUnknownEntity)
	}

	fields := make(map[string]any)

	for _, c := range er.Composites {
		if anyFieldSet(fields, c.Fields) {
			continue
		}
		vals, ok := c.Recognize(text)
		if !ok || len(vals) != len(c.Fields) {
			continue
		}
		for i, f := range c.Fields {
			fields[f] = strings.TrimSpace(vals[i])
		}
	}

	for _, rule := range er.Rules {
		if _, set := fields[rule.Field]; set {
			continue
		}
		raw, ok := rule.Recognize(text)
		if !ok {
			continue
		}
		if rule.Normalize == nil {
			fields[rule.Field] = strings.TrimSpace(raw)
			continue
		}
		val, err := rule.Normalize(raw)
		if err != nil {
			e.opts.logger.DebugContext(ctx, "candidate rejected",
				"entity", entity, "field", rule.Field, "raw", raw, "error", err)
			continue
		}
		fields[rule.Field] = val
	}

	for _, fk := range er.ForeignKeys {
		if _, set := fields[fk.Field]; set {
			continue
		}
		name, ok := fk.Recognize(text)
		if !ok || e.opts.resolver == nil {
			continue
		}
		id, found, err := e.opts.resolver.Resolve(ctx, fk.Kind, name)
		if err != nil || !found {
			// Leaves the field unset; the completeness check below turns
			// that into Incomplete rather than an error.
			e.opts.logger.DebugContext(ctx, "foreign key unresolved",
				"entity", entity, "field", fk.Field, "kind", fk.Kind, "name", name, "error", err)
			continue
		}
		fields[fk.Field] = id
	}

	if g := er.Generated; g != nil {
		if _, set := fields[g.Field]; !set && requiredSatisfiedExcept(fields, er.Required, g.Field) {
			fields[g.Field] = g.Generate(e.opts.now())
		}
	}

	var missing []string
	for _, f := range er.Required {
		if _, set := fields[f]; !set {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return Outcome{Entity: entity, Fields: fields, Missing: missing, Example: er.Example}, nil
	}
	return Outcome{Complete: true, Entity: entity, Fields: fields}, nil
}

// ToolFor returns the creation tool fed by an entity's fields, so a
// Complete outcome can be turned into a ToolCall directly.
func (e *Extractor) ToolFor(entity string) (string, bool) {
	er, ok := e.entities[entity]
	if !ok {
		return "", false
	}
	return er.Tool, true
}

// Entities returns the entity types this extractor knows about.
func (e *Extractor) Entities() []string {
	out := make([]string, 0, len(e.entities))
	for k := range e.entities {
		out = append(out, k)
	}
	return out
}

func anyFieldSet(fields map[string]any, names []string) bool {
	for _, n := range names {
		if _, ok := fields[n]; ok {
			return true
		}
	}
	return false
}

func requiredSatisfiedExcept(fields map[string]any, required []string, except string) bool {
	for _, f := range required {
		if f == except {
			continue
		}
		if _, ok := fields[f]; !ok {
			return false
		}
	}
	return true
}

// RegexpRecognizer returns a Recognizer over a compiled pattern. With a
// capture group it yields the first group, otherwise the whole match.
func RegexpRecognizer(re *regexp.Regexp) Recognizer {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		if len(m) > 1 {
			return m[1], true
		}
		return m[0], true
	}
}

// dateLayouts accepted by NormalizeDate. Slash and dash forms are read
// day-first.
var dateLayouts = []string{"2006-01-02", "2/1/2006", "2-1-2006"}

// NormalizeDate converts an accepted date string (YYYY-MM-DD, DD/MM/YYYY or
// DD-MM-YYYY) to canonical YYYY-MM-DD. Canonical input passes through
// unchanged, so normalization is idempotent.
func NormalizeDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}

// DateNormalizer adapts NormalizeDate to the Normalizer signature.
func DateNormalizer(raw string) (any, error) {
	return NormalizeDate(raw)
}

// TrimNormalizer keeps the trimmed raw value.
func TrimNormalizer(raw string) (any, error) {
	return strings.TrimSpace(raw), nil
}

// IntNormalizer parses the raw value as an integer.
func IntNormalizer(raw string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("not an integer: %q", raw)
	}
	return n, nil
}

// EnumNormalizer canonicalizes a raw value through the given mapping
// (lower-cased lookup); values outside the mapping are rejected.
func EnumNormalizer(canonical map[string]string) Normalizer {
	return func(raw string) (any, error) {
		key := strings.ToLower(strings.TrimSpace(raw))
		if v, ok := canonical[key]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("not an allowed value: %q", raw)
	}
}
