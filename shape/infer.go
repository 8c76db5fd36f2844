package shape

import (
	"strings"

	"github.com/rowshape/rowshape/ast"
)

// TypeInferrer resolves the scalar type of an arbitrary value expression.
// The full inference engine is an external collaborator; the resolver only
// needs the resulting type, since any expression that is not a bare column
// reference is treated as nullable regardless of what inference reports.
type TypeInferrer interface {
	Infer(expr ast.Expr) ast.ScalarType
}

// LiteralInferrer is the default inferrer: exact for literals, best-effort
// for the common operators and aggregate calls. It exists so shape
// resolution works stand-alone; drivers with a real inference engine plug
// theirs in instead.
type LiteralInferrer struct{}

func (LiteralInferrer) Infer(expr ast.Expr) ast.ScalarType {
	switch e := expr.(type) {
	case *ast.Literal:
		switch e.Kind {
		case ast.LitInt:
			return ast.Integer
		case ast.LitFloat:
			return ast.Real
		case ast.LitString:
			return ast.Text
		case ast.LitBlob:
			return ast.Blob
		case ast.LitBool:
			return ast.Boolean
		default:
			return ast.Integer
		}
	case *ast.Call:
		switch strings.ToLower(e.Fn) {
		case "count", "length", "instr":
			return ast.Integer
		case "avg", "round", "abs":
			return ast.Real
		case "sum", "min", "max", "coalesce", "ifnull":
			if len(e.Args) > 0 {
				return LiteralInferrer{}.Infer(e.Args[0])
			}
			return ast.Integer
		case "lower", "upper", "trim", "substr", "group_concat":
			return ast.Text
		default:
			return ast.Text
		}
	case *ast.Binary:
		switch e.Op {
		case "=", "!=", "<>", "<", "<=", ">", ">=", "and", "or", "like", "in", "is":
			return ast.Boolean
		case "||":
			return ast.Text
		default:
			left := LiteralInferrer{}.Infer(e.Left)
			right := LiteralInferrer{}.Infer(e.Right)
			if left == ast.Real || right == ast.Real {
				return ast.Real
			}
			return left
		}
	default:
		return ast.Integer
	}
}
