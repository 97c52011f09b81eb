package expr

import (
	"errors"
	"strconv"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokName
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokPow
	tokLParen
	tokRParen
	tokComma
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of expression"
	case tokNumber:
		return "number"
	case tokName:
		return "name"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokPercent:
		return "'%'"
	case tokPow:
		return "'**'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	}
	return "token"
}

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// lex splits src into tokens, ending with a tokEOF.
func lex(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			tok, next, err := lexNumber(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case isNameStart(c):
			start := i
			for i < len(src) && (isNameStart(src[i]) || isDigit(src[i]) ||
				(src[i] == '.' && i+1 < len(src) && isNameStart(src[i+1]))) {
				i++
			}
			tokens = append(tokens, token{kind: tokName, text: src[start:i], pos: start})
		case c == '*' && i+1 < len(src) && src[i+1] == '*':
			tokens = append(tokens, token{kind: tokPow, text: "**", pos: i})
			i += 2
		default:
			kind, ok := singles[c]
			if !ok {
				r, _ := utf8.DecodeRuneInString(src[i:])
				msg := "unexpected character " + strconv.QuoteRune(r)
				if unicode.IsLetter(r) {
					msg = "unexpected non-ASCII letter " + strconv.QuoteRune(r)
				}
				return nil, &Error{Source: src, Pos: i, Msg: msg}
			}
			tokens = append(tokens, token{kind: kind, text: string(c), pos: i})
			i++
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(src)})
	return tokens, nil
}

var singles = map[byte]tokenKind{
	'+': tokPlus,
	'-': tokMinus,
	'*': tokStar,
	'/': tokSlash,
	'%': tokPercent,
	'^': tokPow,
	'(': tokLParen,
	')': tokRParen,
	',': tokComma,
}

func lexNumber(src string, start int) (token, int, error) {
	i := start
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			i = j
		}
	}

	text := src[start:i]
	v, err := strconv.ParseFloat(text, 64)
	if errors.Is(err, strconv.ErrRange) {
		return token{}, 0, &Error{Source: src, Pos: start, Msg: "number out of range " + strconv.Quote(text)}
	}
	if err != nil {
		return token{}, 0, &Error{Source: src, Pos: start, Msg: "malformed number " + strconv.Quote(text)}
	}
	if i < len(src) && isNameStart(src[i]) {
		return token{}, 0, &Error{Source: src, Pos: i, Msg: "missing operator after number " + strconv.Quote(text)}
	}
	return token{kind: tokNumber, text: text, num: v, pos: start}, i, nil
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isNameStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
