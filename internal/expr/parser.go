package expr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// MaxLength bounds the source length accepted by Parse.
	MaxLength = 512
	maxDepth  = 64
)

// Expr is a parsed expression over X and Y. It is immutable and safe for
// concurrent use.
type Expr struct {
	source string
	root   node
	vars   []string
}

// Parse compiles src. Errors are *Error and match dynamo.ErrExpression.
func Parse(src string) (*Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &Error{Source: src, Pos: 0, Msg: "empty expression"}
	}
	if len(src) > MaxLength {
		return nil, &Error{Source: src, Pos: MaxLength, Msg: "expression longer than " + strconv.Itoa(MaxLength) + " bytes"}
	}

	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{src: src, tokens: tokens, vars: make(map[string]bool)}
	root, err := p.expression()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %s", describe(tok))
	}

	vars := make([]string, 0, len(p.vars))
	for v := range p.vars {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return &Expr{source: src, root: root, vars: vars}, nil
}

func (e *Expr) Eval(x, y float64) float64 { return e.root.eval(x, y) }

// Source is the text Parse was given.
func (e *Expr) Source() string { return e.source }

// Vars lists the variables the expression reads, sorted.
func (e *Expr) Vars() []string { return e.vars }

// String prints the parse tree fully parenthesized.
func (e *Expr) String() string { return e.root.String() }

type parser struct {
	src    string
	tokens []token
	pos    int
	depth  int
	vars   map[string]bool
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return &Error{Source: p.src, Pos: tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) enter(tok token) error {
	p.depth++
	if p.depth > maxDepth {
		return p.errorf(tok, "expression nested deeper than %d levels", maxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// expression := term (('+' | '-') term)*
func (p *parser) expression() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokPlus && op != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binary{op: op, left: left, right: right}
	}
}

// term := unary (('*' | '/' | '%') unary)*
func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokStar && op != tokSlash && op != tokPercent {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &binary{op: op, left: left, right: right}
	}
}

// unary := ('+' | '-') unary | power
func (p *parser) unary() (node, error) {
	tok := p.peek()
	if tok.kind != tokPlus && tok.kind != tokMinus {
		return p.power()
	}
	if err := p.enter(tok); err != nil {
		return nil, err
	}
	defer p.leave()

	p.next()
	operand, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &unary{op: tok.kind, operand: operand}, nil
}

// power := primary ('**' unary)?
//
// The exponent is parsed as a unary so that 2**-1 works and a**b**c groups
// to the right.
func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokPow {
		return base, nil
	}
	tok := p.next()
	if err := p.enter(tok); err != nil {
		return nil, err
	}
	defer p.leave()

	exponent, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &binary{op: tokPow, left: base, right: exponent}, nil
}

// primary := number | name | name '(' arguments ')' | '(' expression ')'
func (p *parser) primary() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return &num{value: tok.num}, nil

	case tokName:
		if p.peek().kind == tokLParen {
			return p.call(tok)
		}
		return p.name(tok)

	case tokLParen:
		if err := p.enter(tok); err != nil {
			return nil, err
		}
		defer p.leave()

		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')' to close '(' at position %d, found %s", tok.pos, describe(closing))
		}
		return inner, nil

	case tokEOF:
		return nil, p.errorf(tok, "unexpected end of expression")
	}
	return nil, p.errorf(tok, "unexpected %s", describe(tok))
}

func (p *parser) name(tok token) (node, error) {
	switch tok.text {
	case "X", "Y":
		p.vars[tok.text] = true
		return &variable{name: tok.text}, nil
	}

	bare := stripPrefix(tok.text)
	if v, ok := constants[bare]; ok {
		return &constant{name: bare, value: v}, nil
	}
	if _, ok := lookupFunction(bare); ok {
		return nil, p.errorf(tok, "function %s must be called with arguments", bare)
	}
	if tok.text == "x" || tok.text == "y" {
		return nil, p.errorf(tok, "unknown name %q (variables are X and Y)", tok.text)
	}
	return nil, p.errorf(tok, "unknown name %q", tok.text)
}

func (p *parser) call(tok token) (node, error) {
	fn, ok := lookupFunction(stripPrefix(tok.text))
	if !ok {
		return nil, p.errorf(tok, "unknown function %q", tok.text)
	}
	open := p.next()
	if err := p.enter(open); err != nil {
		return nil, err
	}
	defer p.leave()

	var args []node
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if closing := p.next(); closing.kind != tokRParen {
		return nil, p.errorf(closing, "expected ')' or ',' in call to %s, found %s", fn.name, describe(closing))
	}
	if len(args) != fn.arity {
		return nil, p.errorf(tok, "%s takes %d argument%s, got %d", fn.name, fn.arity, plural(fn.arity), len(args))
	}
	return &call{fn: fn, args: args}, nil
}

func stripPrefix(name string) string {
	for _, prefix := range prefixes {
		if strings.HasPrefix(name, prefix) {
			return name[len(prefix):]
		}
	}
	return name
}

func describe(tok token) string {
	switch tok.kind {
	case tokNumber, tokName:
		return tok.kind.String() + " " + strconv.Quote(tok.text)
	}
	return tok.kind.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
