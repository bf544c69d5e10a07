package docs

import (
	"fmt"

	"github.com/platinummonkey/protodoc/pkg/apimodel"
)

// Resolution describes what a symbolic reference resolves to
type Resolution struct {
	Reference string `json:"reference"`
	From      string `json:"from,omitempty"`
	Entity    string `json:"entity,omitempty"`
	Kind      string `json:"kind,omitempty"`
	File      string `json:"file,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Resolved reports whether the reference named an entity
func (r Resolution) Resolved() bool {
	return r.Entity != ""
}

// Resolve resolves ref the way code links in comments are resolved, from the
// scope of the entity named from. An empty from resolves from the root scope.
// File is empty for entities without a page.
func (d *Documenter) Resolve(ref, from string) (Resolution, error) {
	out := Resolution{Reference: ref, From: from}
	var scope *apimodel.Entity
	if from != "" {
		e, err := d.model.Lookup(from)
		if err != nil {
			return out, fmt.Errorf("unknown scope %q: %w", from, err)
		}
		scope = e
	}

	resolved := d.model.ResolveReference(ref, scope)
	if resolved.Entity == nil {
		out.Error = resolved.ErrorMessage
		return out, nil
	}
	out.Entity = resolved.Entity.FullName()
	out.Kind = resolved.Entity.Kind().String()
	out.File, _ = d.linkTarget(resolved.Entity)
	return out, nil
}
