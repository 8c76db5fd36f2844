package schema

import (
	"strings"

	"github.com/rowshape/rowshape/ast"
	"github.com/rowshape/rowshape/diag"
)

// ResolveColumn derives a column model from its parsed declaration:
// nullability, constraints, default policy and any applied converter.
//
// Resolution never aborts. Unresolvable enum mappings degrade to a
// placeholder integer column so that table assembly and shape resolution can
// still run; every finding is returned in the diagnostic list.
func ResolveColumn(decl *ast.ColumnDecl, enums *EnumRegistry, gens *GeneratorRegistry) (*Column, diag.List) {
	var diags diag.List

	col := &Column{
		Name:     decl.Name,
		JSONName: decl.JSONKey,
		Type:     decl.Type,
		Span:     decl.Span,
	}

	// A custom constraint string replaces every default-derived constraint,
	// including NOT NULL. Nullability must come from its literal text.
	if decl.CustomConstraint != nil {
		col.HasCustomConstraint = true
		col.CustomConstraint = *decl.CustomConstraint
		col.Nullable = !containsNotNull(col.CustomConstraint)
		diags = resolveConverters(col, decl, enums, diags)
		return col, diags
	}

	col.Nullable = decl.Nullable

	if decl.PrimaryKey || decl.AutoIncrement {
		col.Constraints = append(col.Constraints, PrimaryKey{AutoIncrement: decl.AutoIncrement})
	}
	if decl.Unique {
		col.Constraints = append(col.Constraints, Unique{})
	}
	if ref := decl.References; ref != nil {
		col.Constraints = append(col.Constraints, ForeignKey{
			Table:    ref.Table,
			Column:   ref.Column,
			OnUpdate: ref.OnUpdate,
			OnDelete: ref.OnDelete,
		})
	}
	for _, check := range decl.Checks {
		col.Constraints = append(col.Constraints, Check{Expr: check.Expr})
	}
	if def := decl.Default; def != nil {
		if def.Generator != "" && gens != nil {
			if _, ok := gens.Get(def.Generator); !ok {
				diags = diags.Add(diag.Warningf(diag.KindUnknownGenerator, def.Span,
					"column %q names unknown default generator %q", decl.Name, def.Generator))
			}
		}
		col.Constraints = append(col.Constraints, Default{Value: def.Value, Generator: def.Generator})
	}

	diags = resolveConverters(col, decl, enums, diags)
	return col, diags
}

// resolveConverters applies the enum mapping forms and any caller-supplied
// converter, enforcing the one-converter-per-column invariant. Both enum
// forms are checked independently so a column declaring both against a
// missing enumeration reports twice, once per form.
func resolveConverters(col *Column, decl *ast.ColumnDecl, enums *EnumRegistry, diags diag.List) diag.List {
	if idx := decl.EnumIndex; idx != nil {
		if enums.Lookup(idx.Enum) == nil {
			diags = diags.Add(diag.Errorf(diag.KindUnknownEnum, idx.Span,
				"column %q maps indexes of unknown enum %q", decl.Name, idx.Enum))
			col.Type = ast.Integer // placeholder so later stages still run
		} else {
			col.Converter = &Converter{
				Form:     ConverterEnumIndex,
				SQLType:  ast.Integer,
				HostType: idx.Enum,
				Enum:     idx.Enum,
			}
		}
	}
	if name := decl.EnumName; name != nil {
		if enums.Lookup(name.Enum) == nil {
			diags = diags.Add(diag.Errorf(diag.KindUnknownEnum, name.Span,
				"column %q maps names of unknown enum %q", decl.Name, name.Enum))
			if col.Converter == nil && decl.EnumIndex == nil {
				col.Type = ast.Integer
			}
		} else if col.Converter != nil {
			diags = diags.Add(diag.Warningf(diag.KindDuplicateConverter, name.Span,
				"column %q already has an enum converter; name mapping ignored", decl.Name))
		} else {
			col.Converter = &Converter{
				Form:     ConverterEnumName,
				SQLType:  ast.Text,
				HostType: name.Enum,
				Enum:     name.Enum,
			}
		}
	}

	if conv := decl.Converter; conv != nil {
		if col.Converter != nil {
			// The implicit enum converter wins; at most one converter per
			// column.
			diags = diags.Add(diag.Warningf(diag.KindDuplicateConverter, conv.Span,
				"column %q has an enum converter; caller-supplied converter to %q ignored",
				decl.Name, conv.HostType))
		} else {
			col.Converter = &Converter{
				Form:     ConverterCustom,
				SQLType:  conv.SQLType,
				HostType: conv.HostType,
			}
		}
	}

	return diags
}

// containsNotNull reports whether a raw constraint string carries a literal
// NOT NULL, case-insensitively and tolerant of interior whitespace.
func containsNotNull(constraint string) bool {
	upper := strings.ToUpper(constraint)
	fields := strings.Fields(upper)
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "NOT" && strings.HasPrefix(fields[i+1], "NULL") {
			return true
		}
	}
	return false
}
