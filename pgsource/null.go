package pgsource

import "github.com/aarondl/null/v8"

// ResolveString, ResolveInt and ResolveTime unwrap aarondl/null/v8
// nullable columns into the plain `any` a filter.Resolver returns: nil
// when the column is SQL NULL, the underlying value otherwise. Row
// types generated by SQLBoiler against nullable columns carry these
// types directly, so field resolvers for optional columns are built
// with these helpers rather than a type-specific accessor.

// ResolveString unwraps a null.String column.
func ResolveString(n null.String) any {
	if !n.Valid {
		return nil
	}
	return n.String
}

// ResolveInt unwraps a null.Int column.
func ResolveInt(n null.Int) any {
	if !n.Valid {
		return nil
	}
	return n.Int
}

// ResolveTime unwraps a null.Time column.
func ResolveTime(n null.Time) any {
	if !n.Valid {
		return nil
	}
	return n.Time
}
