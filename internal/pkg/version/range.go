package version

import (
	"fmt"
	"strings"
)

// Range 一个合取子句: 版本同时满足所有已设置的比较条件才算落在范围内
type Range struct {
	EQ Version
	GE Version
	GT Version
	LE Version
	LT Version
}

// NewRange 创建范围并检查歧义
// 空范围、= 与其他比较符同时出现、>= 与 > 同时出现、<= 与 < 同时出现都视为歧义；
// 所有边界必须属于同一个版本族
func NewRange(eq, ge, gt, le, lt Version) (*Range, error) {
	r := &Range{EQ: eq, GE: ge, GT: gt, LE: le, LT: lt}

	bounds := r.bounds()
	if len(bounds) == 0 {
		return nil, fmt.Errorf("%w: no comparator given", ErrAmbiguousRange)
	}
	if eq != nil && len(bounds) > 1 {
		return nil, fmt.Errorf("%w: '=' combined with other comparators", ErrAmbiguousRange)
	}
	if ge != nil && gt != nil {
		return nil, fmt.Errorf("%w: both '>=' and '>' given", ErrAmbiguousRange)
	}
	if le != nil && lt != nil {
		return nil, fmt.Errorf("%w: both '<=' and '<' given", ErrAmbiguousRange)
	}
	family := bounds[0].version.Family()
	for _, b := range bounds[1:] {
		if b.version.Family() != family {
			return nil, fmt.Errorf("%w: mixed version families %s and %s",
				ErrAmbiguousRange, family, b.version.Family())
		}
	}
	return r, nil
}

type bound struct {
	op      string
	version Version
}

func (r *Range) bounds() []bound {
	var out []bound
	for _, b := range []bound{
		{"=", r.EQ}, {">=", r.GE}, {">", r.GT}, {"<=", r.LE}, {"<", r.LT},
	} {
		if b.version != nil {
			out = append(out, b)
		}
	}
	return out
}

// Contains 判断版本是否落在范围内
// 任一比较无法进行时返回错误，不做猜测
func (r *Range) Contains(v Version) (bool, error) {
	for _, b := range r.bounds() {
		c, err := v.Compare(b.version)
		if err != nil {
			return false, err
		}
		var ok bool
		switch b.op {
		case "=":
			ok = c == 0
		case ">=":
			ok = c >= 0
		case ">":
			ok = c > 0
		case "<=":
			ok = c <= 0
		case "<":
			ok = c < 0
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// DetectMatched 判断是否有版本落在该范围内
func (r *Range) DetectMatched(versions []Version) (bool, error) {
	for _, v := range versions {
		matched, err := r.Contains(v)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func (r *Range) String() string {
	parts := make([]string, 0, 5)
	for _, b := range r.bounds() {
		parts = append(parts, b.op+b.version.String())
	}
	return strings.Join(parts, " ")
}

// DetectMatched 任一版本落在任一范围内即返回 true
func DetectMatched(ranges []*Range, versions []Version) (bool, error) {
	for _, r := range ranges {
		matched, err := r.DetectMatched(versions)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// 比较符按长度从长到短匹配
var operators = []string{">=", "<=", "==", "=", ">", "<"}

// parseRange 解析一个合取子句，例如 ">=1.0 <2.0"、">= 1.0 AND < 2.0"
func parseRange(f Family, expr string) (*Range, error) {
	fields := strings.Fields(expr)
	set := map[string]Version{}

	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		if strings.EqualFold(tok, "AND") || tok == "&&" {
			continue
		}

		op, operand := splitOperator(tok)
		if op == "" {
			return nil, invalid(f.Name(), expr, fmt.Sprintf("missing comparator before %q", tok))
		}
		if operand == "" {
			i++
			if i >= len(fields) {
				return nil, invalid(f.Name(), expr, fmt.Sprintf("missing version after %q", op))
			}
			operand = fields[i]
		}

		v, err := f.ParseVersion(operand)
		if err != nil {
			return nil, err
		}
		if _, dup := set[op]; dup {
			return nil, fmt.Errorf("%w: duplicated comparator %q in %q", ErrAmbiguousRange, op, expr)
		}
		set[op] = v
	}

	return NewRange(set["="], set[">="], set[">"], set["<="], set["<"])
}

func splitOperator(tok string) (string, string) {
	for _, op := range operators {
		if strings.HasPrefix(tok, op) {
			if op == "==" {
				return "=", tok[2:]
			}
			return op, tok[len(op):]
		}
	}
	return "", ""
}

// ParseRanges 解析由 "||" 或 OR 连接的多个子句
func ParseRanges(f Family, expr string) ([]*Range, error) {
	var ranges []*Range
	for _, part := range strings.Split(expr, "||") {
		for _, clause := range splitOnWord(part, "OR") {
			r, err := f.ParseRange(clause)
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, r)
		}
	}
	return ranges, nil
}

func splitOnWord(s, word string) []string {
	var (
		out     []string
		current []string
	)
	for _, field := range strings.Fields(s) {
		if strings.EqualFold(field, word) {
			out = append(out, strings.Join(current, " "))
			current = nil
			continue
		}
		current = append(current, field)
	}
	return append(out, strings.Join(current, " "))
}
