package expr

import "math"

type function struct {
	name   string
	arity  int
	unary  func(float64) float64
	binary func(a, b float64) float64
}

func fn1(name string, f func(float64) float64) *function {
	return &function{name: name, arity: 1, unary: f}
}

func fn2(name string, f func(a, b float64) float64) *function {
	return &function{name: name, arity: 2, binary: f}
}

var functions = map[string]*function{
	"sin":   fn1("sin", math.Sin),
	"cos":   fn1("cos", math.Cos),
	"tan":   fn1("tan", math.Tan),
	"asin":  fn1("asin", math.Asin),
	"acos":  fn1("acos", math.Acos),
	"atan":  fn1("atan", math.Atan),
	"sinh":  fn1("sinh", math.Sinh),
	"cosh":  fn1("cosh", math.Cosh),
	"tanh":  fn1("tanh", math.Tanh),
	"exp":   fn1("exp", math.Exp),
	"log":   fn1("log", math.Log),
	"log10": fn1("log10", math.Log10),
	"log2":  fn1("log2", math.Log2),
	"sqrt":  fn1("sqrt", math.Sqrt),
	"abs":   fn1("abs", math.Abs),
	"floor": fn1("floor", math.Floor),
	"ceil":  fn1("ceil", math.Ceil),
	"sign":  fn1("sign", sign),

	"atan2": fn2("atan2", math.Atan2),
	"pow":   fn2("pow", math.Pow),
	"hypot": fn2("hypot", math.Hypot),
	"min":   fn2("min", math.Min),
	"max":   fn2("max", math.Max),
}

// aliases maps the numpy spellings onto the canonical names.
var aliases = map[string]string{
	"arcsin":   "asin",
	"arccos":   "acos",
	"arctan":   "atan",
	"arctan2":  "atan2",
	"power":    "pow",
	"absolute": "abs",
	"fabs":     "abs",
	"ln":       "log",
	"minimum":  "min",
	"maximum":  "max",
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// prefixes that may qualify a function or constant name.
var prefixes = []string{"np.", "numpy.", "math."}

func lookupFunction(name string) (*function, bool) {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	f, ok := functions[name]
	return f, ok
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	case v == 0:
		return 0
	}
	return math.NaN()
}
