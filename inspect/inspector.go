package inspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rowshape/rowshape/ast"
)

// Inspector builds table declarations from a database's information_schema.
type Inspector struct {
	pool *pgxpool.Pool
}

// New connects to the configured database and returns an inspector. When
// retry options are set, transient connection failures are retried with
// exponential backoff.
func New(ctx context.Context, cfg Config) (*Inspector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inspect config: %w", err)
	}

	connect := func(ctx context.Context) (*pgxpool.Pool, error) {
		if cfg.ConnectTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
			defer cancel()
		}

		pool, err := pgxpool.New(ctx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to %s:%d: %w", cfg.Host, cfg.Port, err)
		}
		return pool, nil
	}

	pool, err := retryConnect(ctx, cfg.Retry, connect)
	if err != nil {
		return nil, err
	}
	return &Inspector{pool: pool}, nil
}

// Close releases the connection pool.
func (in *Inspector) Close() {
	in.pool.Close()
}

const columnsQuery = `
SELECT c.table_name,
       c.column_name,
       c.data_type,
       c.is_nullable = 'YES',
       c.column_default,
       c.is_identity = 'YES'
  FROM information_schema.columns c
  JOIN information_schema.tables t
    ON t.table_schema = c.table_schema AND t.table_name = c.table_name
 WHERE c.table_schema = $1
   AND t.table_type = 'BASE TABLE'
 ORDER BY c.table_name, c.ordinal_position`

const keyColumnsQuery = `
SELECT tc.table_name,
       kcu.column_name,
       tc.constraint_type,
       COALESCE(ccu.table_name, ''),
       COALESCE(ccu.column_name, '')
  FROM information_schema.table_constraints tc
  JOIN information_schema.key_column_usage kcu
    ON kcu.constraint_name = tc.constraint_name
   AND kcu.table_schema = tc.table_schema
  LEFT JOIN information_schema.constraint_column_usage ccu
    ON ccu.constraint_name = tc.constraint_name
   AND ccu.table_schema = tc.table_schema
   AND tc.constraint_type = 'FOREIGN KEY'
 WHERE tc.table_schema = $1
   AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE', 'FOREIGN KEY')
 ORDER BY tc.table_name, kcu.ordinal_position`

// ImportSchema reads every base table of a database schema and returns the
// equivalent parsed declarations, ready for graph building.
func (in *Inspector) ImportSchema(ctx context.Context, schemaName string) ([]*ast.TableDecl, error) {
	if schemaName == "" {
		schemaName = "public"
	}

	decls, byTable, err := in.importColumns(ctx, schemaName)
	if err != nil {
		return nil, err
	}
	if err := in.importConstraints(ctx, schemaName, byTable); err != nil {
		return nil, err
	}
	return decls, nil
}

func (in *Inspector) importColumns(ctx context.Context, schemaName string) ([]*ast.TableDecl, map[string]*ast.TableDecl, error) {
	rows, err := in.pool.Query(ctx, columnsQuery, schemaName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query columns of schema %q: %w", schemaName, err)
	}
	defer rows.Close()

	var decls []*ast.TableDecl
	byTable := make(map[string]*ast.TableDecl)

	for rows.Next() {
		var (
			tableName, columnName, dataType string
			nullable, identity              bool
			columnDefault                   *string
		)
		if err := rows.Scan(&tableName, &columnName, &dataType, &nullable, &columnDefault, &identity); err != nil {
			return nil, nil, fmt.Errorf("failed to scan column row: %w", err)
		}

		table := byTable[tableName]
		if table == nil {
			table = &ast.TableDecl{Name: tableName}
			byTable[tableName] = table
			decls = append(decls, table)
		}

		col := &ast.ColumnDecl{
			Name:     columnName,
			Type:     mapDataType(dataType),
			Nullable: nullable,
		}
		if identity || isSerialDefault(columnDefault) {
			col.AutoIncrement = true
		} else if columnDefault != nil {
			col.Default = &ast.DefaultSpec{Value: *columnDefault}
		}
		table.Columns = append(table.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read columns of schema %q: %w", schemaName, err)
	}

	return decls, byTable, nil
}

func (in *Inspector) importConstraints(ctx context.Context, schemaName string, byTable map[string]*ast.TableDecl) error {
	rows, err := in.pool.Query(ctx, keyColumnsQuery, schemaName)
	if err != nil {
		return fmt.Errorf("failed to query constraints of schema %q: %w", schemaName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, columnName, constraintType, refTable, refColumn string
		if err := rows.Scan(&tableName, &columnName, &constraintType, &refTable, &refColumn); err != nil {
			return fmt.Errorf("failed to scan constraint row: %w", err)
		}

		table := byTable[tableName]
		if table == nil {
			continue
		}
		col := findColumn(table, columnName)
		if col == nil {
			continue
		}

		switch constraintType {
		case "PRIMARY KEY":
			col.PrimaryKey = true
		case "UNIQUE":
			col.Unique = true
		case "FOREIGN KEY":
			col.References = &ast.ReferenceSpec{Table: refTable, Column: refColumn}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read constraints of schema %q: %w", schemaName, err)
	}
	return nil
}

func findColumn(table *ast.TableDecl, name string) *ast.ColumnDecl {
	for _, col := range table.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

// isSerialDefault recognizes the sequence defaults serial columns carry.
func isSerialDefault(def *string) bool {
	return def != nil && strings.HasPrefix(*def, "nextval(")
}

// mapDataType folds postgres type names onto the analyzer's scalar set.
func mapDataType(dataType string) ast.ScalarType {
	switch strings.ToLower(dataType) {
	case "smallint", "integer", "serial", "smallserial":
		return ast.Integer
	case "bigint", "bigserial":
		return ast.BigInt
	case "real", "double precision", "numeric", "decimal":
		return ast.Real
	case "boolean":
		return ast.Boolean
	case "bytea":
		return ast.Blob
	case "date", "time", "timestamp", "timestamp without time zone", "timestamp with time zone", "timestamptz":
		return ast.DateTime
	default:
		// text, varchar, char, uuid, json and friends all surface as text.
		return ast.Text
	}
}
