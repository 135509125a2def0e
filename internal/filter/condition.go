package filter

import (
	"fmt"

	"github.com/Masterminds/squirrel"
)

// Ops are the operators a Boolean filter condition may use.
var Ops = map[string]bool{
	"eq":       true,
	"ne":       true,
	"in":       true,
	"lt":       true,
	"lte":      true,
	"gt":       true,
	"gte":      true,
	"start":    true,
	"end":      true,
	"cnt":      true,
	"null":     true,
	"not_null": true,
}

func buildCondition(sqlField, op string, val any) (squirrel.Sqlizer, error) {
	switch op {
	case "", "eq":
		return squirrel.Eq{sqlField: val}, nil
	case "ne":
		return squirrel.NotEq{sqlField: val}, nil
	case "in":
		return squirrel.Eq{sqlField: val}, nil // val is a list
	case "lt":
		return squirrel.Lt{sqlField: val}, nil
	case "lte":
		return squirrel.LtOrEq{sqlField: val}, nil
	case "gt":
		return squirrel.Gt{sqlField: val}, nil
	case "gte":
		return squirrel.GtOrEq{sqlField: val}, nil
	case "start":
		return squirrel.Like{sqlField: fmt.Sprint(val) + "%"}, nil
	case "end":
		return squirrel.Like{sqlField: "%" + fmt.Sprint(val)}, nil
	case "cnt":
		return squirrel.Like{sqlField: "%" + fmt.Sprint(val) + "%"}, nil
	case "null":
		return squirrel.Eq{sqlField: nil}, nil
	case "not_null":
		return squirrel.NotEq{sqlField: nil}, nil
	}
	return nil, fmt.Errorf("unknown condition operator %q", op)
}
