package transform

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// Clause is one row predicate of a filter. Clauses are folded left to
// right; each clause's Combiner joins it onto the accumulated mask.
type Clause struct {
	Column string
	// Op is one of contains, excludes, equals, not-equals, >, <,
	// is-empty, not-empty, starts-with, ends-with, has-length,
	// is-number, is-lowercase, is-uppercase.
	Op string
	// Value is the comparison operand, parsed per operator.
	Value string
	// Combiner is AND, OR or NOT. NOT joins by exclusive or, so a NOT
	// clause flips exactly the rows the clause matches.
	Combiner string
}

// FilterOptions configures filter. When Expression is set the clauses
// are ignored and the expression is evaluated per row instead.
type FilterOptions struct {
	Expression      string
	Clauses         []Clause
	CaseInsensitive bool
}

// FilterMask evaluates a filter into a row mask without touching the
// frame; callers mask the display frame and keep the original for
// restore.
func FilterMask(f *frame.Frame, opts FilterOptions) ([]bool, error) {
	if opts.Expression != "" {
		return evalExpression(f, opts.Expression)
	}
	if len(opts.Clauses) == 0 {
		return nil, fmt.Errorf("empty filter")
	}
	acc, err := clauseMask(f, opts.Clauses[0], opts.CaseInsensitive)
	if err != nil {
		return nil, err
	}
	for _, cl := range opts.Clauses[1:] {
		m, err := clauseMask(f, cl, opts.CaseInsensitive)
		if err != nil {
			return nil, err
		}
		switch strings.ToUpper(cl.Combiner) {
		case "", "AND":
			for i := range acc {
				acc[i] = acc[i] && m[i]
			}
		case "OR":
			for i := range acc {
				acc[i] = acc[i] || m[i]
			}
		case "NOT":
			for i := range acc {
				acc[i] = acc[i] != m[i]
			}
		default:
			return nil, fmt.Errorf("unknown combiner %q", cl.Combiner)
		}
	}
	return acc, nil
}

// FilterRows applies a filter and returns the masked frame.
func FilterRows(f *frame.Frame, opts FilterOptions) (*frame.Frame, error) {
	mask, err := FilterMask(f, opts)
	if err != nil {
		return nil, err
	}
	return f.Filter(mask), nil
}

func clauseMask(f *frame.Frame, cl Clause, insensitive bool) ([]bool, error) {
	c, ok := f.ColumnByName(cl.Column)
	if !ok {
		return nil, fmt.Errorf("no column %q", cl.Column)
	}
	n := c.Len()
	mask := make([]bool, n)

	want := cl.Value
	if insensitive {
		want = strings.ToLower(want)
	}
	cell := func(i int) string {
		s := c.String(i)
		if insensitive {
			s = strings.ToLower(s)
		}
		return s
	}

	switch cl.Op {
	case "contains":
		for i := 0; i < n; i++ {
			mask[i] = !c.IsNA(i) && strings.Contains(cell(i), want)
		}
	case "excludes":
		for i := 0; i < n; i++ {
			mask[i] = c.IsNA(i) || !strings.Contains(cell(i), want)
		}
	case "equals":
		for i := 0; i < n; i++ {
			mask[i] = !c.IsNA(i) && cell(i) == want
		}
	case "not-equals":
		for i := 0; i < n; i++ {
			mask[i] = c.IsNA(i) || cell(i) != want
		}
	case ">", "<":
		bound, err := strconv.ParseFloat(cl.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("operator %q needs a numeric value: %w", cl.Op, err)
		}
		for i := 0; i < n; i++ {
			v, ok := c.Float(i)
			if !ok {
				continue
			}
			if cl.Op == ">" {
				mask[i] = v > bound
			} else {
				mask[i] = v < bound
			}
		}
	case "is-empty":
		for i := 0; i < n; i++ {
			mask[i] = c.IsNA(i) || c.String(i) == ""
		}
	case "not-empty":
		for i := 0; i < n; i++ {
			mask[i] = !c.IsNA(i) && c.String(i) != ""
		}
	case "starts-with":
		for i := 0; i < n; i++ {
			mask[i] = !c.IsNA(i) && strings.HasPrefix(cell(i), want)
		}
	case "ends-with":
		for i := 0; i < n; i++ {
			mask[i] = !c.IsNA(i) && strings.HasSuffix(cell(i), want)
		}
	case "has-length":
		length, err := strconv.Atoi(cl.Value)
		if err != nil {
			return nil, fmt.Errorf("has-length needs an integer value: %w", err)
		}
		for i := 0; i < n; i++ {
			mask[i] = !c.IsNA(i) && len([]rune(c.String(i))) == length
		}
	case "is-number":
		for i := 0; i < n; i++ {
			if c.IsNA(i) {
				continue
			}
			_, ok := frame.ParseNumber(c.String(i), frame.CoerceOptions{})
			mask[i] = ok
		}
	case "is-lowercase":
		for i := 0; i < n; i++ {
			s := c.String(i)
			mask[i] = !c.IsNA(i) && s != "" && s == strings.ToLower(s)
		}
	case "is-uppercase":
		for i := 0; i < n; i++ {
			s := c.String(i)
			mask[i] = !c.IsNA(i) && s != "" && s == strings.ToUpper(s)
		}
	default:
		return nil, fmt.Errorf("unknown operator %q", cl.Op)
	}
	return mask, nil
}

// evalExpression evaluates a boolean expression over every row. The
// evaluator tries numeric comparison first and falls back to string
// comparison when an operand is not numeric.
func evalExpression(f *frame.Frame, expr string) ([]bool, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("trailing input at %q", p.toks[p.pos].text)
	}
	mask := make([]bool, f.NumRows())
	for i := range mask {
		v, err := node.eval(f, i)
		if err != nil {
			return nil, err
		}
		mask[i] = v.truthy()
	}
	return mask, nil
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokNumber
	tokString
	tokOp
)

type token struct {
	kind tokKind
	text string
}

func tokenize(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		r := rune(s[i])
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '\'' || r == '"':
			quote := s[i]
			j := i + 1
			for j < len(s) && s[j] != quote {
				j++
			}
			if j == len(s) {
				return nil, fmt.Errorf("unterminated string in %q", s)
			}
			toks = append(toks, token{tokString, s[i+1 : j]})
			i = j + 1
		case r >= '0' && r <= '9' || r == '.':
			j := i
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.' || s[j] == 'e' || s[j] == 'E') {
				j++
			}
			toks = append(toks, token{tokNumber, s[i:j]})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(s) && (unicode.IsLetter(rune(s[j])) || unicode.IsDigit(rune(s[j])) || s[j] == '_') {
				j++
			}
			word := s[i:j]
			switch strings.ToLower(word) {
			case "and", "or", "not":
				toks = append(toks, token{tokOp, strings.ToLower(word)})
			default:
				toks = append(toks, token{tokIdent, word})
			}
			i = j
		default:
			matched := false
			for _, op := range []string{"==", "!=", ">=", "<=", "&&", "||"} {
				if strings.HasPrefix(s[i:], op) {
					toks = append(toks, token{tokOp, op})
					i += 2
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			switch r {
			case '>', '<', '+', '-', '*', '/', '(', ')', '!', '=':
				toks = append(toks, token{tokOp, string(r)})
				i++
			default:
				return nil, fmt.Errorf("unexpected character %q", r)
			}
		}
	}
	return toks, nil
}

// exprValue is either a number or a string; comparisons go numeric when
// both sides parse as numbers.
type exprValue struct {
	num   float64
	str   string
	isNum bool
	valid bool
}

func (v exprValue) truthy() bool {
	if !v.valid {
		return false
	}
	if v.isNum {
		return v.num != 0
	}
	return v.str != ""
}

type exprNode interface {
	eval(f *frame.Frame, row int) (exprValue, error)
}

type binaryNode struct {
	op          string
	left, right exprNode
}

type notNode struct{ inner exprNode }

type identNode struct{ name string }

type literalNode struct{ val exprValue }

func (n *identNode) eval(f *frame.Frame, row int) (exprValue, error) {
	c, ok := f.ColumnByName(n.name)
	if !ok {
		return exprValue{}, fmt.Errorf("no column %q", n.name)
	}
	if c.IsNA(row) {
		return exprValue{}, nil
	}
	if v, ok := c.Float(row); ok {
		return exprValue{num: v, isNum: true, valid: true}, nil
	}
	return exprValue{str: c.String(row), valid: true}, nil
}

func (n *literalNode) eval(*frame.Frame, int) (exprValue, error) { return n.val, nil }

func (n *notNode) eval(f *frame.Frame, row int) (exprValue, error) {
	v, err := n.inner.eval(f, row)
	if err != nil {
		return exprValue{}, err
	}
	return boolValue(!v.truthy()), nil
}

func boolValue(b bool) exprValue {
	v := exprValue{isNum: true, valid: true}
	if b {
		v.num = 1
	}
	return v
}

func (n *binaryNode) eval(f *frame.Frame, row int) (exprValue, error) {
	l, err := n.left.eval(f, row)
	if err != nil {
		return exprValue{}, err
	}
	r, err := n.right.eval(f, row)
	if err != nil {
		return exprValue{}, err
	}
	switch n.op {
	case "and", "&&":
		return boolValue(l.truthy() && r.truthy()), nil
	case "or", "||":
		return boolValue(l.truthy() || r.truthy()), nil
	}
	if !l.valid || !r.valid {
		return exprValue{}, nil
	}
	if l.isNum && r.isNum {
		switch n.op {
		case "+":
			return exprValue{num: l.num + r.num, isNum: true, valid: true}, nil
		case "-":
			return exprValue{num: l.num - r.num, isNum: true, valid: true}, nil
		case "*":
			return exprValue{num: l.num * r.num, isNum: true, valid: true}, nil
		case "/":
			if r.num == 0 {
				return exprValue{}, nil
			}
			return exprValue{num: l.num / r.num, isNum: true, valid: true}, nil
		case "==", "=":
			return boolValue(l.num == r.num), nil
		case "!=":
			return boolValue(l.num != r.num), nil
		case ">":
			return boolValue(l.num > r.num), nil
		case "<":
			return boolValue(l.num < r.num), nil
		case ">=":
			return boolValue(l.num >= r.num), nil
		case "<=":
			return boolValue(l.num <= r.num), nil
		}
	}
	ls, rs := l.render(), r.render()
	switch n.op {
	case "==", "=":
		return boolValue(ls == rs), nil
	case "!=":
		return boolValue(ls != rs), nil
	case ">":
		return boolValue(ls > rs), nil
	case "<":
		return boolValue(ls < rs), nil
	case ">=":
		return boolValue(ls >= rs), nil
	case "<=":
		return boolValue(ls <= rs), nil
	case "+":
		return exprValue{str: ls + rs, valid: true}, nil
	}
	return exprValue{}, fmt.Errorf("operator %q needs numeric operands", n.op)
}

func (v exprValue) render() string {
	if v.isNum {
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	}
	return v.str
}

type exprParser struct {
	toks []token
	pos  int
}

func (p *exprParser) peek() (token, bool) {
	if p.pos < len(p.toks) {
		return p.toks[p.pos], true
	}
	return token{}, false
}

func (p *exprParser) acceptOp(ops ...string) (string, bool) {
	t, ok := p.peek()
	if !ok || t.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *exprParser) parseOr() (exprNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("or", "||")
		if !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *exprParser) parseAnd() (exprNode, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("and", "&&")
		if !ok {
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *exprParser) parseNot() (exprNode, error) {
	if _, ok := p.acceptOp("not", "!"); ok {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notNode{inner: inner}, nil
	}
	return p.parseComparison()
}

func (p *exprParser) parseComparison() (exprNode, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	op, ok := p.acceptOp("==", "!=", ">=", "<=", ">", "<", "=")
	if !ok {
		return left, nil
	}
	right, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	return &binaryNode{op: op, left: left, right: right}, nil
}

func (p *exprParser) parseSum() (exprNode, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *exprParser) parseProduct() (exprNode, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "/")
		if !ok {
			return left, nil
		}
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *exprParser) parseAtom() (exprNode, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	switch t.kind {
	case tokNumber:
		p.pos++
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", t.text, err)
		}
		return &literalNode{val: exprValue{num: v, isNum: true, valid: true}}, nil
	case tokString:
		p.pos++
		return &literalNode{val: exprValue{str: t.text, valid: true}}, nil
	case tokIdent:
		p.pos++
		return &identNode{name: t.text}, nil
	case tokOp:
		if t.text == "(" {
			p.pos++
			inner, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if _, ok := p.acceptOp(")"); !ok {
				return nil, fmt.Errorf("missing closing parenthesis")
			}
			return inner, nil
		}
		if t.text == "-" {
			p.pos++
			inner, err := p.parseAtom()
			if err != nil {
				return nil, err
			}
			return &binaryNode{op: "-", left: &literalNode{val: exprValue{isNum: true, valid: true}}, right: inner}, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %q", t.text)
}

func filterEntry() Transform {
	return Transform{
		Name: "filter",
		Params: []ParamSpec{
			{Name: "expression", Kind: KindString, Default: ""},
			{Name: "column", Kind: KindString, Default: ""},
			{Name: "operator", Kind: KindChoice, Choices: []string{
				"contains", "excludes", "equals", "not-equals", ">", "<",
				"is-empty", "not-empty", "starts-with", "ends-with",
				"has-length", "is-number", "is-lowercase", "is-uppercase",
			}, Default: "contains"},
			{Name: "value", Kind: KindString, Default: ""},
			{Name: "case-insensitive", Kind: KindBool, Default: false},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			opts := FilterOptions{
				Expression:      p.String("expression", ""),
				CaseInsensitive: p.Bool("case-insensitive", false),
			}
			if opts.Expression == "" {
				opts.Clauses = []Clause{{
					Column: p.String("column", ""),
					Op:     p.String("operator", "contains"),
					Value:  p.String("value", ""),
				}}
			}
			return FilterRows(f, opts)
		},
	}
}
