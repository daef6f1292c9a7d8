package dynamodb

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// updateExpr accumulates SET/REMOVE clauses with aliased names and values.
type updateExpr struct {
	sets    []string
	removes []string
	names   map[string]string
	values  map[string]types.AttributeValue
	err     error
}

func newUpdateExpr() *updateExpr {
	return &updateExpr{
		names:  map[string]string{},
		values: map[string]types.AttributeValue{},
	}
}

func (u *updateExpr) name(attr string) string {
	alias := "#" + attr
	u.names[alias] = attr
	return alias
}

// value registers a placeholder for v. Marshal errors are kept and reported by build.
func (u *updateExpr) value(placeholder string, v any) string {
	av, err := attributevalue.Marshal(v)
	if err != nil && u.err == nil {
		u.err = fmt.Errorf("failed to marshal %s: %w", placeholder, err)
	}
	u.values[placeholder] = av
	return placeholder
}

func (u *updateExpr) set(attr string, v any) *updateExpr {
	u.sets = append(u.sets, fmt.Sprintf("%s = %s", u.name(attr), u.value(":"+attr, v)))
	return u
}

// setRaw adds a clause written by the caller, such as a counter increment.
func (u *updateExpr) setRaw(clause string) *updateExpr {
	u.sets = append(u.sets, clause)
	return u
}

func (u *updateExpr) remove(attr string) *updateExpr {
	u.removes = append(u.removes, u.name(attr))
	return u
}

func (u *updateExpr) build() (string, error) {
	if u.err != nil {
		return "", u.err
	}
	var b strings.Builder
	if len(u.sets) > 0 {
		b.WriteString("SET ")
		b.WriteString(strings.Join(u.sets, ", "))
	}
	if len(u.removes) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("REMOVE ")
		b.WriteString(strings.Join(u.removes, ", "))
	}
	return b.String(), nil
}
