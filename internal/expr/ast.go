package expr

import (
	"math"
	"strconv"
)

type node interface {
	eval(x, y float64) float64
	String() string
}

type num struct{ value float64 }

func (n *num) eval(_, _ float64) float64 { return n.value }
func (n *num) String() string           { return strconv.FormatFloat(n.value, 'g', -1, 64) }

// constant keeps the name it was written with for printing.
type constant struct {
	name  string
	value float64
}

func (c *constant) eval(_, _ float64) float64 { return c.value }
func (c *constant) String() string           { return c.name }

type variable struct{ name string }

func (v *variable) eval(x, y float64) float64 {
	if v.name == "X" {
		return x
	}
	return y
}

func (v *variable) String() string { return v.name }

type unary struct {
	op      tokenKind
	operand node
}

func (u *unary) eval(x, y float64) float64 {
	v := u.operand.eval(x, y)
	if u.op == tokMinus {
		return -v
	}
	return v
}

func (u *unary) String() string {
	if u.op == tokMinus {
		return "(-" + u.operand.String() + ")"
	}
	return "(+" + u.operand.String() + ")"
}

type binary struct {
	op          tokenKind
	left, right node
}

func (b *binary) eval(x, y float64) float64 {
	l, r := b.left.eval(x, y), b.right.eval(x, y)
	switch b.op {
	case tokPlus:
		return l + r
	case tokMinus:
		return l - r
	case tokStar:
		return l * r
	case tokSlash:
		return l / r
	case tokPercent:
		return floorMod(l, r)
	case tokPow:
		return math.Pow(l, r)
	}
	return math.NaN()
}

func (b *binary) String() string {
	op := b.op.String()
	return "(" + b.left.String() + " " + op[1:len(op)-1] + " " + b.right.String() + ")"
}

type call struct {
	fn   *function
	args []node
}

func (c *call) eval(x, y float64) float64 {
	if c.fn.arity == 1 {
		return c.fn.unary(c.args[0].eval(x, y))
	}
	return c.fn.binary(c.args[0].eval(x, y), c.args[1].eval(x, y))
}

func (c *call) String() string {
	s := c.fn.name + "("
	for i, a := range c.args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

// floorMod takes the sign of the divisor, matching Python's %.
func floorMod(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}
