package collab

import "context"

// StaticVerifiers authorizes a fixed set of verifier principals.
type StaticVerifiers map[string]struct{}

// NewStaticVerifiers builds the set from ids; empty ids are ignored.
func NewStaticVerifiers(ids ...string) StaticVerifiers {
	v := make(StaticVerifiers, len(ids))
	for _, id := range ids {
		if id != "" {
			v[id] = struct{}{}
		}
	}
	return v
}

// AuthorizeVerifier reports whether principal is in the set.
func (v StaticVerifiers) AuthorizeVerifier(_ context.Context, principal string) bool {
	_, ok := v[principal]
	return ok
}
