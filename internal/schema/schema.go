package schema

// Schema represents the complete GraphQL schema
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field      // For OBJECT and INTERFACE
	Interfaces     []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      // For INTERFACE and UNION
	EnumValues     []*EnumValue  // For ENUM
	InputFields    []*InputValue // For INPUT_OBJECT
	SpecifiedByURL *string
	OneOf          bool

	// HasIsTypeOf marks an OBJECT type as carrying a host-defined isTypeOf
	// predicate: the Completer must run it (a Runtime implementing
	// TypeOfChecker supplies the check) before trusting a value as this
	// type and collecting its subfields.
	HasIsTypeOf bool
}

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue // formerly ArgumentDefinitionMap
	Async             bool
	IsDeprecated      bool
	DeprecationReason string
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// Helper functions for TypeRef
func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue // formerly ArgumentDefinitionMap
	IsRepeatable bool
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }

// NewSchema creates an empty schema with the given description.
func NewSchema(description string) *Schema {
	return &Schema{
		Types:       map[string]*Type{},
		Directives:  map[string]*Directive{},
		Description: description,
	}
}

// AddType registers a named type on the schema.
func (s *Schema) AddType(t *Type) { s.Types[t.Name] = t }

// SetQueryType sets the name of the root query type.
func (s *Schema) SetQueryType(name string) { s.QueryType = name }

// SetMutationType sets the name of the root mutation type.
func (s *Schema) SetMutationType(name string) { s.MutationType = name }

// SetSubscriptionType sets the name of the root subscription type.
func (s *Schema) SetSubscriptionType(name string) { s.SubscriptionType = name }

// NewType creates a named type of the given kind.
func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

// AddField appends a field to an OBJECT or INTERFACE type.
func (t *Type) AddField(f *Field) { t.Fields = append(t.Fields, f) }

// NewFieldMap is a convenience constructor for the field list of an OBJECT or
// INTERFACE type; despite the name, fields are stored and iterated in the
// order given (a "map" from response name to definition, keyed positionally).
func NewFieldMap(fields ...*Field) []*Field { return fields }

// GetPossibleTypes returns the concrete OBJECT type names that satisfy an
// INTERFACE or UNION type. For any other kind the result is empty (nil only
// when abstractType is nil).
func (s *Schema) GetPossibleTypes(abstractType *Type) []*Type {
	if abstractType == nil {
		return nil
	}
	out := make([]*Type, 0, len(abstractType.PossibleTypes))
	for _, name := range abstractType.PossibleTypes {
		if t := s.Types[name]; t != nil {
			out = append(out, t)
		}
	}
	return out
}

// IsSubType reports whether objectTypeName names a concrete OBJECT type that
// is a possible type of the named abstract (INTERFACE or UNION) type. When the
// first name is an existing type of any other kind, it reports whether the two
// names are equal.
func (s *Schema) IsSubType(abstractTypeName, objectTypeName string) bool {
	abstract := s.Types[abstractTypeName]
	if abstract == nil {
		return false
	}
	if abstract.Kind != TypeKindInterface && abstract.Kind != TypeKindUnion {
		return abstractTypeName == objectTypeName
	}
	for _, name := range abstract.PossibleTypes {
		if name == objectTypeName {
			return true
		}
	}
	return false
}
