package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

// Naming utilities deriving default row-type names from table names and
// back. A table named "blog_posts" gets the row type "BlogPost" unless the
// declaration overrides it.

// pluralizeClient is a singleton instance for consistent pluralization behavior.
var pluralizeClient = pluralizer.NewClient()

// RowTypeName derives the default row-type name for a table or view:
// singularized PascalCase of the schema name.
func RowTypeName(tableName string) string {
	return toPascalCase(singularize(tableName))
}

// DefaultTableName derives a table name from a row-type name: pluralized
// snake_case, the most common database convention.
func DefaultTableName(rowTypeName string) string {
	return pluralizeClient.Plural(toSnakeCase(rowTypeName))
}

// singularize converts plural nouns to their singular forms.
func singularize(name string) string {
	if name == "" {
		return ""
	}
	return pluralizeClient.Singular(name)
}

// toSnakeCase converts any naming convention to snake_case. Handles
// acronym runs and digits: "OAuth2Token" -> "o_auth2_token".
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}

	// Already snake_case.
	if strings.Contains(name, "_") && !hasUpperCase(name) {
		return strings.ToLower(name)
	}

	var result strings.Builder
	result.Grow(len(name) + 8)

	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteByte('_')
			} else if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				result.WriteByte('_')
			}
		}
		result.WriteRune(unicode.ToLower(r))
	}

	return result.String()
}

// toPascalCase converts any naming convention to PascalCase.
func toPascalCase(name string) string {
	if name == "" {
		return ""
	}

	snake := toSnakeCase(name)
	parts := strings.Split(snake, "_")

	var result strings.Builder
	result.Grow(len(name))
	for _, part := range parts {
		if part == "" {
			continue
		}
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(part[1:])
	}

	return result.String()
}

// hasUpperCase returns true if the string contains any uppercase letters.
func hasUpperCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
