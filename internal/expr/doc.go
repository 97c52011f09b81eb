// Package expr parses and evaluates the arithmetic expressions used to
// describe a planar vector field, such as "Y" and "-X" or
// "np.sin(X) * Y**2".
//
// The grammar is deliberately small. Numbers, the variables X and Y, the
// constants pi and e, the operators + - * / % ** (with ^ as an alias for
// **), parentheses and a fixed whitelist of math functions are the only
// things that resolve. Operator precedence follows Python, so -X**2 is
// -(X**2) and 2**3**2 is 2**(3**2). An optional "np." prefix is accepted on
// function and constant names.
//
// Parsing checks every name and function arity up front; evaluation never
// fails and reports domain errors as NaN or Inf, which callers decide how
// to treat.
//
//	e, err := expr.Parse("Y*(X**2 + Y**2)")
//	if err != nil {
//	    var perr *expr.Error
//	    errors.As(err, &perr) // perr.Pos, perr.Msg
//	}
//	v := e.Eval(1, 2)
package expr
