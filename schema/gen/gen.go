// Package gen generates a Go file that declares a schema registry and
// typed column handles for every table.
package gen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"github.com/spf13/afero"

	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

const (
	schemaPkg  = "github.com/satishbabariya/typedsql/schema"
	typesPkg   = "github.com/satishbabariya/typedsql/query/types"
	columnsPkg = "github.com/satishbabariya/typedsql/query/columns"
)

var rules = inflect.NewDefaultRuleset()

// acronyms are kept upper-case in generated identifiers.
var acronyms = map[string]string{
	"id":   "ID",
	"ids":  "IDs",
	"ip":   "IP",
	"json": "JSON",
	"sql":  "SQL",
	"uid":  "UID",
	"url":  "URL",
	"uuid": "UUID",
	"http": "HTTP",
	"api":  "API",
}

// Config configures the generated file.
type Config struct {
	// Package is the package name of the generated file.
	Package string
	// Source names the schema file in the header comment.
	Source string
}

// Generate builds the Go file for reg.
func Generate(reg *schema.Registry, cfg Config) (*jen.File, error) {
	if cfg.Package == "" {
		return nil, fmt.Errorf("gen: package name is required")
	}
	f := jen.NewFile(cfg.Package)
	header := "Code generated by typedsql. DO NOT EDIT."
	if cfg.Source != "" {
		header = fmt.Sprintf("Code generated by typedsql from %s. DO NOT EDIT.", cfg.Source)
	}
	f.HeaderComment(header)
	f.ImportName(schemaPkg, "schema")
	f.ImportName(typesPkg, "types")
	f.ImportName(columnsPkg, "columns")

	defs := make([]jen.Code, 0, len(reg.Tables()))
	for _, t := range reg.Tables() {
		def, err := tableDef(t)
		if err != nil {
			return nil, fmt.Errorf("gen: table %s: %w", t.Name(), err)
		}
		defs = append(defs, def)
	}
	f.Comment("Schema declares every table.")
	f.Var().Id("Schema").Op("=").Qual(schemaPkg, "MustNewRegistry").
		Custom(jen.Options{Open: "(", Close: ")", Separator: ",", Multi: true}, defs...)

	seen := map[string]string{}
	for _, t := range reg.Tables() {
		name := pascal(t.Name())
		if other, dup := seen[name]; dup {
			return nil, fmt.Errorf("gen: tables %s and %s both map to %s", other, t.Name(), name)
		}
		seen[name] = t.Name()
		if err := handles(f, t, name); err != nil {
			return nil, fmt.Errorf("gen: table %s: %w", t.Name(), err)
		}
	}
	return f, nil
}

// Write renders the file for reg to path on fs.
func Write(fs afero.Fs, path string, reg *schema.Registry, cfg Config) error {
	f, err := Generate(reg, cfg)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return fmt.Errorf("gen: render: %w", err)
	}
	return afero.WriteFile(fs, path, buf.Bytes(), 0o644)
}

func tableDef(t *schema.Table) (jen.Code, error) {
	var cols []jen.Code
	for _, c := range t.Columns() {
		typ, err := typeCode(c.Type())
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name(), err)
		}
		d := jen.Dict{
			jen.Id("Name"): jen.Lit(c.Name()),
			jen.Id("Type"): typ,
		}
		if c.DefaultSQL() != "" {
			d[jen.Id("Default")] = jen.Lit(c.DefaultSQL())
		} else if c.HasDefault() {
			d[jen.Id("HasDefault")] = jen.True()
		}
		cols = append(cols, jen.Values(d))
	}

	def := jen.Dict{
		jen.Id("Name"):    jen.Lit(t.Name()),
		jen.Id("Columns"): jen.Index().Qual(schemaPkg, "ColumnDef").Custom(multi("{", "}"), cols...),
	}
	if pk := t.PrimaryKey(); len(pk) > 0 {
		def[jen.Id("PrimaryKey")] = stringSlice(pk)
	}
	if fks := t.ForeignKeys(); len(fks) > 0 {
		var items []jen.Code
		for _, fk := range fks {
			items = append(items, jen.Values(jen.Dict{
				jen.Id("Columns"):    stringSlice(fk.Columns),
				jen.Id("RefTable"):   jen.Lit(fk.RefTable),
				jen.Id("RefColumns"): stringSlice(fk.RefColumns),
			}))
		}
		def[jen.Id("ForeignKeys")] = jen.Index().Qual(schemaPkg, "ForeignKey").Custom(multi("{", "}"), items...)
	}
	return jen.Qual(schemaPkg, "TableDef").Values(def), nil
}

func multi(open, close string) jen.Options {
	return jen.Options{Open: open, Close: close, Separator: ",", Multi: true}
}

func stringSlice(ss []string) jen.Code {
	return jen.Index().String().ValuesFunc(func(g *jen.Group) {
		for _, s := range ss {
			g.Lit(s)
		}
	})
}

// typeCode returns the constructor expression of t.
func typeCode(t types.LogicalType) (jen.Code, error) {
	switch t.Kind() {
	case types.KindNullable, types.KindArray:
		elem, err := typeCode(t.Elem())
		if err != nil {
			return nil, err
		}
		return jen.Qual(typesPkg, t.Kind().String()).Call(elem), nil
	case types.KindCustom:
		return jen.Qual(typesPkg, "Custom").Call(jen.Lit(t.Name())), nil
	case types.KindInvalid, types.KindNull:
		return nil, fmt.Errorf("type %s cannot be declared", t)
	}
	return jen.Qual(typesPkg, t.Kind().String()).Call(), nil
}

// handleFor returns the handle type and constructor of a column.
func handleFor(t types.LogicalType) (typ, ctor string) {
	nullable := t.IsNullable()
	switch t.Base().Kind() {
	case types.KindInteger:
		if nullable {
			return "NullableIntColumn", "NewNullableIntColumn"
		}
		return "IntColumn", "NewIntColumn"
	case types.KindText:
		if nullable {
			return "NullableStringColumn", "NewNullableStringColumn"
		}
		return "StringColumn", "NewStringColumn"
	case types.KindTimestamp:
		if nullable {
			return "NullableDateTimeColumn", "NewNullableDateTimeColumn"
		}
		return "DateTimeColumn", "NewDateTimeColumn"
	}
	if !nullable {
		switch t.Kind() {
		case types.KindFloat:
			return "FloatColumn", "NewFloatColumn"
		case types.KindNumeric:
			return "DecimalColumn", "NewDecimalColumn"
		case types.KindBool:
			return "BoolColumn", "NewBoolColumn"
		case types.KindUUID:
			return "UUIDColumn", "NewUUIDColumn"
		}
	}
	return "BaseColumn", "NewColumn"
}

// handles emits the column handle struct and the table variables.
func handles(f *jen.File, t *schema.Table, name string) error {
	typeName := name + "Columns"
	var (
		fields []jen.Code
		values = jen.Dict{}
		seen   = map[string]string{}
	)
	for _, c := range t.Columns() {
		field := pascal(c.Name())
		if other, dup := seen[field]; dup {
			return fmt.Errorf("columns %s and %s both map to %s", other, c.Name(), field)
		}
		seen[field] = c.Name()
		typ, ctor := handleFor(c.Type())
		fields = append(fields, jen.Id(field).Qual(columnsPkg, typ))
		values[jen.Id(field)] = jen.Qual(columnsPkg, ctor).Call(
			jen.Id(name + "Table").Dot("MustColumn").Call(jen.Lit(c.Name())),
		)
	}

	f.Commentf("%s holds the column handles of the %s table.", typeName, t.Name())
	f.Type().Id(typeName).Struct(fields...)
	f.Var().Defs(
		jen.Commentf("%sTable is the %s table.", name, t.Name()),
		jen.Id(name+"Table").Op("=").Id("Schema").Dot("MustTable").Call(jen.Lit(t.Name())),
		jen.Commentf("%s are the typed columns of %s.", name, t.Name()),
		jen.Id(name).Op("=").Id(typeName).Values(values),
	)
	return nil
}

// pascal converts a snake_case name to an exported Go identifier.
func pascal(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	var b strings.Builder
	for _, w := range words {
		if a, ok := acronyms[strings.ToLower(w)]; ok {
			b.WriteString(a)
			continue
		}
		b.WriteString(rules.Capitalize(w))
	}
	out := b.String()
	if out == "" || !isLetter(out[0]) {
		out = "T" + out
	}
	return out
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}
