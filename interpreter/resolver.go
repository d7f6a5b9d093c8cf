package interpreter

// Resolver maps the entity and field names written in a query to the names
// used by the storage. It must be deterministic for the same input.
type Resolver interface {
	ResolveEntity(raw string) string
	ResolveField(entity, raw string) string
}

// IdentityResolver keeps every name as written
type IdentityResolver struct{}

// ResolveEntity returns raw
func (IdentityResolver) ResolveEntity(raw string) string {
	return raw
}

// ResolveField returns raw
func (IdentityResolver) ResolveField(_, raw string) string {
	return raw
}

// AliasResolver renames entities and fields from static tables, names without
// an alias are kept. Field aliases are looked up with the resolved entity.
type AliasResolver struct {
	Entities map[string]string
	Fields   map[string]map[string]string
}

// ResolveEntity returns the alias of raw, or raw
func (r AliasResolver) ResolveEntity(raw string) string {
	if alias, ok := r.Entities[raw]; ok {
		return alias
	}

	return raw
}

// ResolveField returns the alias of raw within entity, or raw
func (r AliasResolver) ResolveField(entity, raw string) string {
	if alias, ok := r.Fields[entity][raw]; ok {
		return alias
	}

	return raw
}
