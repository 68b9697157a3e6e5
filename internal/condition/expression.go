package condition

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Expr is a boolean node of a parsed condition.
type Expr interface {
	exprNode()
}

// LogicalExpr represents AND / OR.
type LogicalExpr struct {
	Op    string // "AND" | "OR"
	Left  Expr
	Right Expr
}

func (*LogicalExpr) exprNode() {}

// NotExpr represents NOT <expr>.
type NotExpr struct {
	Expr Expr
}

func (*NotExpr) exprNode() {}

// ComparisonExpr represents <term> <operator> <term>.
type ComparisonExpr struct {
	Left  Term
	Op    Operator
	Right Term
}

func (*ComparisonExpr) exprNode() {}

// Term is a numeric node: a literal, a variable or arithmetic over terms.
type Term interface {
	termNode()
}

// Number is a numeric literal.
type Number struct {
	Value float64
}

func (*Number) termNode() {}

// Variable names a value supplied by the Env at evaluation time.
type Variable struct {
	Name string
}

func (*Variable) termNode() {}

// Arith is one of + - * / over two terms.
type Arith struct {
	Op    byte
	Left  Term
	Right Term
}

func (*Arith) termNode() {}

// Neg is unary minus.
type Neg struct {
	Term Term
}

func (*Neg) termNode() {}

type tokenKind int

const (
	tokWord   tokenKind = iota // identifier or keyword
	tokCmp                     // ==, !=, >=, <=, >, <
	tokArith                   // + - * /
	tokNumber                  // 42 | 3.14
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		ch := expr[i]
		switch {
		case unicode.IsSpace(rune(ch)):
			i++
		case ch == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
		case ch == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
		case ch == '=' || ch == '!' || ch == '<' || ch == '>':
			if i+1 < len(expr) && expr[i+1] == '=' {
				tokens = append(tokens, token{tokCmp, expr[i : i+2], i})
				i += 2
				continue
			}
			if ch == '=' || ch == '!' {
				return nil, fmt.Errorf("unexpected %q at position %d", ch, i)
			}
			tokens = append(tokens, token{tokCmp, string(ch), i})
			i++
		case ch == '+' || ch == '-' || ch == '*' || ch == '/':
			// Minus is always an operator; the parser handles negation.
			tokens = append(tokens, token{tokArith, string(ch), i})
			i++
		case unicode.IsDigit(rune(ch)) || ch == '.':
			j := i
			for j < len(expr) && (unicode.IsDigit(rune(expr[j])) || expr[j] == '.') {
				j++
			}
			tokens = append(tokens, token{tokNumber, expr[i:j], i})
			i = j
		case unicode.IsLetter(rune(ch)) || ch == '_':
			j := i
			for j < len(expr) && (unicode.IsLetter(rune(expr[j])) || unicode.IsDigit(rune(expr[j])) || expr[j] == '_') {
				j++
			}
			tokens = append(tokens, token{tokWord, expr[i:j], i})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", ch, i)
		}
	}
	tokens = append(tokens, token{tokEOF, "", len(expr)})
	return tokens, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) consume() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) keyword(word string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.val, word)
}

// Parse parses a condition string into an AST.
func Parse(expr string) (Expr, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected token %q after expression", p.peek().val)
	}
	return node, nil
}

// or_expr = and_expr ( "OR" and_expr )*
func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		p.consume()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

// and_expr = not_expr ( "AND" not_expr )*
func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		p.consume()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

// not_expr = "NOT" not_expr | comparison | "(" or_expr ")"
//
// A leading parenthesis may open either an arithmetic group, as in
// "(t + 1) > 5", or a boolean group. The comparison is tried first and the
// parser backtracks on failure.
func (p *parser) parseNot() (Expr, error) {
	if p.keyword("NOT") {
		p.consume()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Expr: inner}, nil
	}
	if p.peek().kind != tokLParen {
		return p.parseComparison()
	}
	mark := p.pos
	if cmp, err := p.parseComparison(); err == nil {
		return cmp, nil
	}
	p.pos = mark
	p.consume()
	inner, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokRParen {
		return nil, fmt.Errorf("expected \")\" but got %q", p.peek().val)
	}
	p.consume()
	return inner, nil
}

// comparison = sum operator sum
func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind != tokCmp {
		return nil, fmt.Errorf("expected comparison operator, got %q", t.val)
	}
	p.consume()
	right, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	return &ComparisonExpr{Left: left, Op: Operator(t.val), Right: right}, nil
}

// sum = product ( ("+" | "-") product )*
func (p *parser) parseSum() (Term, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokArith && (t.val == "+" || t.val == "-"); t = p.peek() {
		p.consume()
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = &Arith{Op: t.val[0], Left: left, Right: right}
	}
	return left, nil
}

// product = unary ( ("*" | "/") unary )*
func (p *parser) parseProduct() (Term, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokArith && (t.val == "*" || t.val == "/"); t = p.peek() {
		p.consume()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Arith{Op: t.val[0], Left: left, Right: right}
	}
	return left, nil
}

// unary = "-" unary | atom
func (p *parser) parseUnary() (Term, error) {
	if t := p.peek(); t.kind == tokArith && t.val == "-" {
		p.consume()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Neg{Term: inner}, nil
	}
	return p.parseAtom()
}

// atom = number | variable | "(" sum ")"
func (p *parser) parseAtom() (Term, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.consume()
		f, err := strconv.ParseFloat(t.val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t.val)
		}
		return &Number{Value: f}, nil
	case tokWord:
		if isKeyword(t.val) {
			return nil, fmt.Errorf("expected operand, got keyword %q", t.val)
		}
		p.consume()
		return &Variable{Name: t.val}, nil
	case tokLParen:
		p.consume()
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("expected \")\" but got %q", p.peek().val)
		}
		p.consume()
		return inner, nil
	default:
		return nil, fmt.Errorf("expected operand, got %q", t.val)
	}
}

func isKeyword(w string) bool {
	switch strings.ToUpper(w) {
	case "AND", "OR", "NOT":
		return true
	}
	return false
}

// Variables returns the distinct variable names referenced by expr, in order
// of first appearance.
func Variables(expr Expr) []string {
	var out []string
	seen := map[string]bool{}
	var walkTerm func(Term)
	walkTerm = func(t Term) {
		switch n := t.(type) {
		case *Variable:
			if !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n.Name)
			}
		case *Arith:
			walkTerm(n.Left)
			walkTerm(n.Right)
		case *Neg:
			walkTerm(n.Term)
		}
	}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *LogicalExpr:
			walk(n.Left)
			walk(n.Right)
		case *NotExpr:
			walk(n.Expr)
		case *ComparisonExpr:
			walkTerm(n.Left)
			walkTerm(n.Right)
		}
	}
	walk(expr)
	return out
}
