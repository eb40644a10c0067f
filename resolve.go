package wardly

import (
	"context"
	"fmt"
	"strings"
)

// Lister is the read-all listing endpoint for an entity kind. It is an
// external collaborator; records must carry at least an identifier and a
// human-readable name field.
type Lister interface {
	List(ctx context.Context, kind string) ([]map[string]any, error)
}

// ListerFunc adapts a function to the Lister interface.
type ListerFunc func(ctx context.Context, kind string) ([]map[string]any, error)

// List implements Lister.
func (f ListerFunc) List(ctx context.Context, kind string) ([]map[string]any, error) {
	return f(ctx, kind)
}

// KindSpec tells the Resolver how to read one entity kind's records: which
// field holds the identifier and how to derive the display name.
type KindSpec struct {
	Kind    string
	IDField string
	NameOf  func(rec map[string]any) string
}

// Resolver turns a human-readable entity name into the identifier a tool
// requires, by listing the entity kind and matching the display name
// case-insensitively. The first exact match wins.
type Resolver struct {
	lister Lister
	kinds  map[string]KindSpec
}

// NewResolver builds a Resolver over the given kinds.
func NewResolver(lister Lister, kinds ...KindSpec) *Resolver {
	m := make(map[string]KindSpec, len(kinds))
	for _, k := range kinds {
		m[k.Kind] = k
	}
	return &Resolver{lister: lister, kinds: m}
}

// Resolve looks humanName up among the kind's records. It returns
// (id, true, nil) on a match, ("", false, nil) when nothing matches, and a
// non-nil error only for a listing failure. Callers treat the last two the
// same way: the field stays unset.
func (r *Resolver) Resolve(ctx context.Context, kind, humanName string) (string, bool, error) {
	spec, ok := r.kinds[kind]
	if !ok {
		return "", false, fmt.Errorf("%q: %w", kind, ErrUnknownEntity)
	}
	recs, err := r.lister.List(ctx, kind)
	if err != nil {
		return "", false, err
	}
	want := strings.TrimSpace(humanName)
	for _, rec := range recs {
		if strings.EqualFold(spec.NameOf(rec), want) {
			return stringID(rec[spec.IDField]), true, nil
		}
	}
	return "", false, nil
}

// stringID renders an identifier value uniformly; backends return ids as
// strings or JSON numbers.
func stringID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		if id == float64(int64(id)) {
			return fmt.Sprintf("%d", int64(id))
		}
		return fmt.Sprintf("%v", id)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", id)
	}
}
