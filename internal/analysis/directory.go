package analysis

import (
	"strings"

	"github.com/rpggio/breakwatch/internal/domain/identity"
)

// Directory resolves badge codes to registered identities, ignoring case.
type Directory struct {
	byBadge map[string]identity.Identity
}

// NewDirectory indexes identities by upper-cased badge code.
func NewDirectory(identities []identity.Identity) Directory {
	byBadge := make(map[string]identity.Identity, len(identities))
	for _, ident := range identities {
		byBadge[strings.ToUpper(ident.BadgeCode)] = ident
	}
	return Directory{byBadge: byBadge}
}

// Lookup returns the identity registered for code.
func (d Directory) Lookup(code string) (identity.Identity, bool) {
	ident, ok := d.byBadge[strings.ToUpper(code)]
	return ident, ok
}

// Resolve returns the name and external reference for code, or the
// unregistered sentinels on a miss.
func (d Directory) Resolve(code string) (name, ref string) {
	if ident, ok := d.Lookup(code); ok {
		return ident.Name, ident.ExternalRef
	}
	return UnregisteredName, UnregisteredRef
}
