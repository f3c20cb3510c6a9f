/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cosmos

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/suparena/cleardata/errors"
	"github.com/suparena/cleardata/query"
	"github.com/suparena/cleardata/storagemodels"
)

// Alias is the item alias used in every generated query.
const Alias = "c"

// Names of generated parameters. Caller parameters may not use them.
const (
	entityTypeParam   = "@entityType"
	placeholderPrefix = "@__p"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect renders filter expressions as Cosmos DB SQL.
type Dialect struct{}

// Field renders c.a.b, quoting segments that are not plain identifiers.
func (Dialect) Field(_ *query.Binder, path string) string {
	return fieldRef(path)
}

func (Dialect) Placeholder(n int) string { return placeholderPrefix + strconv.Itoa(n) }

func (Dialect) Operator(op query.Op) string { return string(op) }

func (Dialect) Function(b *query.Binder, fn query.Func, field, arg string) string {
	switch fn {
	case query.FuncExists:
		return "IS_DEFINED(" + field + ")"
	case query.FuncStartsWith:
		return "STARTSWITH(" + field + ", " + b.Bind(arg) + ")"
	default:
		return "CONTAINS(" + field + ", " + b.Bind(arg) + ")"
	}
}

func (Dialect) Const(_ *query.Binder, v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func fieldRef(path string) string {
	var sb strings.Builder
	sb.WriteString(Alias)
	for _, seg := range strings.Split(path, ".") {
		if identifier.MatchString(seg) {
			sb.WriteString(".")
			sb.WriteString(seg)
			continue
		}
		sb.WriteString(`["`)
		sb.WriteString(strings.ReplaceAll(seg, `"`, `\"`))
		sb.WriteString(`"]`)
	}
	return sb.String()
}

// BuildQuery renders spec as a parameterized Cosmos DB SQL query. The
// entity type condition comes first, then the structured filter, then the
// raw Where clause. Structured filter parameters are named @__p1, @__p2...
// and a caller parameter that reuses a generated name is rejected.
func BuildQuery(spec storagemodels.QuerySpec) (string, []azcosmos.QueryParameter, error) {
	var (
		conds  []string
		params []azcosmos.QueryParameter
	)
	if spec.EntityType != "" {
		conds = append(conds, fieldRef("entityType")+" = "+entityTypeParam)
		params = append(params, azcosmos.QueryParameter{Name: entityTypeParam, Value: spec.EntityType})
	}

	rendered := query.Render(spec.Filter, Dialect{})
	if !rendered.Empty() {
		conds = append(conds, "("+rendered.Text+")")
		for _, p := range rendered.Params {
			params = append(params, azcosmos.QueryParameter{Name: p.Name, Value: p.Value})
		}
	}

	if where := strings.TrimSpace(spec.Where); where != "" {
		conds = append(conds, "("+where+")")
		for _, p := range spec.Parameters {
			name := p.Name
			if !strings.HasPrefix(name, "@") {
				name = "@" + name
			}
			if name == entityTypeParam || strings.HasPrefix(name, placeholderPrefix) {
				return "", nil, errors.NewValidationError("parameters",
					fmt.Sprintf("parameter %s is reserved for generated conditions", name))
			}
			params = append(params, azcosmos.QueryParameter{Name: name, Value: p.Value})
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(Alias)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	orderBy, err := spec.Sort.ToSQLOrderBy(fieldRef, "")
	if err != nil {
		return "", nil, err
	}
	if orderBy != "" {
		sb.WriteString(" ")
		sb.WriteString(orderBy)
	}
	return sb.String(), params, nil
}
