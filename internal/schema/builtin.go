package schema

var stringType = &Type{
	Name:        "String",
	Kind:        TypeKindScalar,
	Description: "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
}

var intType = &Type{
	Name:        "Int",
	Kind:        TypeKindScalar,
	Description: "The `Int` scalar type represents non-fractional signed whole numeric values.",
}

var floatType = &Type{
	Name:        "Float",
	Kind:        TypeKindScalar,
	Description: "The `Float` scalar type represents signed double-precision fractional values.",
}

var booleanType = &Type{
	Name:        "Boolean",
	Kind:        TypeKindScalar,
	Description: "The `Boolean` scalar type represents `true` or `false`.",
}

var idType = &Type{
	Name:        "ID",
	Kind:        TypeKindScalar,
	Description: "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.",
}

var includeDirective = &Directive{
	Name:        "include",
	Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Included when true.",
			Type:        &TypeRef{Kind: TypeRefKindNonNull, OfType: &TypeRef{Kind: TypeRefKindNamed, Named: "Boolean"}},
		},
	},
	Locations:    []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	IsRepeatable: false,
}

var skipDirective = &Directive{
	Name:        "skip",
	Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Skipped when true.",
			Type:        &TypeRef{Kind: TypeRefKindNonNull, OfType: &TypeRef{Kind: TypeRefKindNamed, Named: "Boolean"}},
		},
	},
	Locations:    []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	IsRepeatable: false,
}

var deferDirective = &Directive{
	Name:        "defer",
	Description: "Deprioritizes the selected fields, causing them to be sent in a patch after the initial response.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Deferred when true or omitted.",
			Type:        &TypeRef{Kind: TypeRefKindNamed, Named: "Boolean"},
		},
		{
			Name:        "label",
			Description: "Unique name identifying the associated patch in the response.",
			Type:        &TypeRef{Kind: TypeRefKindNamed, Named: "String"},
		},
	},
	Locations:    []string{"FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	IsRepeatable: false,
}

var streamDirective = &Directive{
	Name:        "stream",
	Description: "Streams the remaining list items after the first initialCount items have been returned.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Streamed when true or omitted.",
			Type:        &TypeRef{Kind: TypeRefKindNamed, Named: "Boolean"},
		},
		{
			Name:        "label",
			Description: "Unique name identifying the associated patch in the response.",
			Type:        &TypeRef{Kind: TypeRefKindNamed, Named: "String"},
		},
		{
			Name:         "initialCount",
			Description:  "The number of list items to return as part of the initial response.",
			Type:         &TypeRef{Kind: TypeRefKindNonNull, OfType: &TypeRef{Kind: TypeRefKindNamed, Named: "Int"}},
			DefaultValue: 0,
		},
	},
	Locations:    []string{"FIELD"},
	IsRepeatable: false,
}
