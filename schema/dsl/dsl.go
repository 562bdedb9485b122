// Package dsl parses table definition files into a schema registry.
//
//	// users and their posts
//	table users (id) {
//	  id         -> Integer default,
//	  name       -> Text,
//	  age        -> Nullable<Integer>,
//	  created_at -> Timestamp default "CURRENT_TIMESTAMP",
//	}
//
//	joinable posts(user_id) -> users(id)
package dsl

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/spf13/afero"

	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

// Lexer defines the token types of the table definition language.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[{}(),<>]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// File is the parse tree of one definition file.
type File struct {
	Pos   lexer.Position
	Items []*Item `@@*`
}

// Item is a top-level declaration.
type Item struct {
	Table    *Table    `  @@`
	Joinable *Joinable `| @@`
}

type Table struct {
	Pos        lexer.Position
	Name       string    `"table" @Ident`
	PrimaryKey []string  `( "(" @Ident ( "," @Ident )* ")" )?`
	Columns    []*Column `"{" @@* "}"`
}

type Column struct {
	Pos     lexer.Position
	Name    string   `@Ident "->"`
	Type    *Type    `@@`
	Default *Default `@@? ","?`
}

// Default marks a column the database fills in. The optional string is the
// SQL expression used in DDL.
type Default struct {
	Keyword bool   `@"default"`
	SQL     string `@String?`
}

type Type struct {
	Pos  lexer.Position
	Name string  `@Ident`
	Args []*Type `( "<" @@ ( "," @@ )* ">" )?`
}

// Joinable declares a foreign key relation used to infer join conditions.
type Joinable struct {
	Pos        lexer.Position
	Table      string   `"joinable" @Ident`
	Columns    []string `"(" @Ident ( "," @Ident )* ")" "->"`
	RefTable   string   `@Ident`
	RefColumns []string `"(" @Ident ( "," @Ident )* ")"`
}

var parser = participle.MustBuild[File](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses a definition file.
func Parse(filename string, r io.Reader) (*File, error) {
	return parser.Parse(filename, r)
}

// ParseString parses definitions from a string.
func ParseString(filename, src string) (*File, error) {
	return parser.ParseString(filename, src)
}

// Load parses r and builds a validated registry.
func Load(filename string, r io.Reader) (*schema.Registry, error) {
	f, err := Parse(filename, r)
	if err != nil {
		return nil, err
	}
	defs, err := f.Definitions()
	if err != nil {
		return nil, err
	}
	return schema.NewRegistry(defs...)
}

// LoadFile reads and loads a definition file from fs.
func LoadFile(fs afero.Fs, path string) (*schema.Registry, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema file: %w", err)
	}
	defer file.Close()
	return Load(path, file)
}

// Definitions converts the parse tree into table definitions.
func (f *File) Definitions() ([]schema.TableDef, error) {
	var defs []schema.TableDef
	index := map[string]int{}
	for _, item := range f.Items {
		if item.Table == nil {
			continue
		}
		t := item.Table
		def := schema.TableDef{Name: t.Name, PrimaryKey: t.PrimaryKey}
		for _, c := range t.Columns {
			typ, err := resolveType(c.Type)
			if err != nil {
				return nil, err
			}
			cd := schema.ColumnDef{Name: c.Name, Type: typ}
			if c.Default != nil {
				cd.HasDefault = true
				cd.Default = c.Default.SQL
			}
			def.Columns = append(def.Columns, cd)
		}
		index[t.Name] = len(defs)
		defs = append(defs, def)
	}
	for _, item := range f.Items {
		j := item.Joinable
		if j == nil {
			continue
		}
		i, ok := index[j.Table]
		if !ok {
			return nil, fmt.Errorf("%s: joinable references unknown table %s", j.Pos, j.Table)
		}
		defs[i].ForeignKeys = append(defs[i].ForeignKeys, schema.ForeignKey{
			Columns:    j.Columns,
			RefTable:   j.RefTable,
			RefColumns: j.RefColumns,
		})
	}
	return defs, nil
}

func resolveType(t *Type) (types.LogicalType, error) {
	name := strings.ToLower(t.Name)
	switch name {
	case "nullable", "array":
		if len(t.Args) != 1 {
			return types.LogicalType{}, fmt.Errorf("%s: %s takes exactly one type argument", t.Pos, t.Name)
		}
		elem, err := resolveType(t.Args[0])
		if err != nil {
			return types.LogicalType{}, err
		}
		if name == "nullable" {
			return types.Nullable(elem), nil
		}
		return types.Array(elem), nil
	}
	if len(t.Args) > 0 {
		return types.LogicalType{}, fmt.Errorf("%s: %s takes no type arguments", t.Pos, t.Name)
	}
	switch name {
	case "integer", "int", "bigint", "smallint", "int8", "int4":
		return types.Integer(), nil
	case "float", "double", "real":
		return types.Float(), nil
	case "numeric", "decimal":
		return types.Numeric(), nil
	case "text", "varchar", "string", "char":
		return types.Text(), nil
	case "bool", "boolean":
		return types.Bool(), nil
	case "timestamp", "timestamptz", "datetime", "date":
		return types.Timestamp(), nil
	case "bytes", "bytea", "blob", "binary":
		return types.Bytes(), nil
	case "uuid":
		return types.UUID(), nil
	case "json", "jsonb":
		return types.JSON(), nil
	}
	return types.Custom(t.Name), nil
}
