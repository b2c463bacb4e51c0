package usd

import "fmt"

// Specifier is how a prim is introduced in the layer.
type Specifier int

const (
	SpecifierDef  Specifier = iota // Concrete definition
	SpecifierOver                  // Override of a prim defined elsewhere
)

// String returns the .usda keyword.
func (s Specifier) String() string {
	if s == SpecifierOver {
		return "over"
	}
	return "def"
}

// Prim is a node in the stage hierarchy.
type Prim struct {
	stage      *Stage
	path       Path
	specifier  Specifier
	typeName   string
	apiSchemas []string
	children   []*Prim
	attrs      []*Attribute
	rels       []*Relationship
}

// Path returns the prim path.
func (p *Prim) Path() Path { return p.path }

// Name returns the last element of the prim path.
func (p *Prim) Name() string { return p.path.Name() }

// TypeName returns the schema type, empty for typeless prims.
func (p *Prim) TypeName() string { return p.typeName }

// Specifier returns def or over.
func (p *Prim) Specifier() Specifier { return p.specifier }

// Stage returns the owning stage.
func (p *Prim) Stage() *Stage { return p.stage }

// Children returns the child prims in creation order.
func (p *Prim) Children() []*Prim { return p.children }

// APISchemas returns the applied API schema names.
func (p *Prim) APISchemas() []string { return p.apiSchemas }

// Child returns the named child prim, or nil.
func (p *Prim) Child(name string) *Prim {
	for _, c := range p.children {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// ApplyAPI records an applied API schema. Applying twice is a no-op.
func (p *Prim) ApplyAPI(schema string) {
	for _, s := range p.apiSchemas {
		if s == schema {
			return
		}
	}
	p.apiSchemas = append(p.apiSchemas, schema)
}

// CreateAttribute returns the named attribute, creating it if needed.
// An existing attribute with a different type is an error.
func (p *Prim) CreateAttribute(name string, typ ValueType, uniform bool) (*Attribute, error) {
	if a := p.Attribute(name); a != nil {
		if a.typ != typ {
			return nil, fmt.Errorf("%w: %s is %s, not %s", ErrTypeMismatch, a.Path(), a.typ, typ)
		}
		return a, nil
	}
	a := &Attribute{prim: p, name: name, typ: typ, uniform: uniform}
	p.attrs = append(p.attrs, a)
	return a, nil
}

// Attribute returns the named attribute, or nil.
func (p *Prim) Attribute(name string) *Attribute {
	for _, a := range p.attrs {
		if a.name == name {
			return a
		}
	}
	return nil
}

// Attributes returns all attributes in creation order.
func (p *Prim) Attributes() []*Attribute { return p.attrs }

// CreateRelationship returns the named relationship, creating it if needed.
func (p *Prim) CreateRelationship(name string) *Relationship {
	if r := p.Relationship(name); r != nil {
		return r
	}
	r := &Relationship{prim: p, name: name}
	p.rels = append(p.rels, r)
	return r
}

// Relationship returns the named relationship, or nil.
func (p *Prim) Relationship(name string) *Relationship {
	for _, r := range p.rels {
		if r.name == name {
			return r
		}
	}
	return nil
}

// Relationships returns all relationships in creation order.
func (p *Prim) Relationships() []*Relationship { return p.rels }

// Attribute is a typed, optionally time-independent property.
type Attribute struct {
	prim          *Prim
	name          string
	typ           ValueType
	uniform       bool
	value         any
	hasValue      bool
	interpolation Interpolation
	connections   []Path
}

// Name returns the (namespaced) property name.
func (a *Attribute) Name() string { return a.name }

// Path returns the property path.
func (a *Attribute) Path() Path { return a.prim.path.AppendProperty(a.name) }

// Type returns the value type.
func (a *Attribute) Type() ValueType { return a.typ }

// Prim returns the owning prim.
func (a *Attribute) Prim() *Prim { return a.prim }

// Set authors a value. The Go type must match the attribute type.
func (a *Attribute) Set(v any) error {
	if err := a.typ.check(v); err != nil {
		return fmt.Errorf("setting %s: %w", a.Path(), err)
	}
	a.value = v
	a.hasValue = true
	return nil
}

// Get returns the authored value.
func (a *Attribute) Get() (any, bool) {
	return a.value, a.hasValue
}

// SetInterpolation authors the interpolation metadata.
func (a *Attribute) SetInterpolation(i Interpolation) {
	a.interpolation = i
}

// Interpolation returns the authored interpolation, empty if unset.
func (a *Attribute) Interpolation() Interpolation { return a.interpolation }

// ConnectToSource connects this attribute to a source attribute so that
// it consumes the source's value.
func (a *Attribute) ConnectToSource(source *Attribute) error {
	if source.typ != a.typ {
		return fmt.Errorf("%w: cannot connect %s (%s) to %s (%s)",
			ErrTypeMismatch, a.Path(), a.typ, source.Path(), source.typ)
	}
	a.AddConnection(source.Path())
	return nil
}

// AddConnection appends a connection target path.
func (a *Attribute) AddConnection(source Path) {
	for _, c := range a.connections {
		if c == source {
			return
		}
	}
	a.connections = append(a.connections, source)
}

// Connections returns the connection targets.
func (a *Attribute) Connections() []Path { return a.connections }

// Relationship targets other prims or properties.
type Relationship struct {
	prim    *Prim
	name    string
	targets []Path
}

// Name returns the relationship name.
func (r *Relationship) Name() string { return r.name }

// AddTarget appends a target path.
func (r *Relationship) AddTarget(target Path) {
	for _, t := range r.targets {
		if t == target {
			return
		}
	}
	r.targets = append(r.targets, target)
}

// Targets returns the relationship targets.
func (r *Relationship) Targets() []Path { return r.targets }
