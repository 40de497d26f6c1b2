package logic

import (
	"fmt"
	"strconv"
	"strings"
)

// tokenType is the kind of an expression token.
type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokNumber
	tokString
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokDot
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokEq
	tokNeq
	tokLt
	tokLte
	tokGt
	tokGte
	tokAnd
	tokOr
	tokNot
	tokIn
	tokTrue
	tokFalse
	tokNull
)

type token struct {
	typ  tokenType
	text string
	num  float64
	pos  int
}

// ExpressionError is a lex or parse failure in an expression source string.
type ExpressionError struct {
	Source string
	Pos    int
	Reason string
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("invalid expression %q at offset %d: %s", e.Source, e.Pos, e.Reason)
}

var keywords = map[string]tokenType{
	"and":   tokAnd,
	"or":    tokOr,
	"not":   tokNot,
	"in":    tokIn,
	"true":  tokTrue,
	"false": tokFalse,
	"null":  tokNull,
	"none":  tokNull,
}

// tokenize scans an expression source into tokens. The language is small on
// purpose: names, literals, access, arithmetic, comparison, and boolean
// operators. There are no statements and no side effects.
func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9':
			start := i
			for i < len(src) && (src[i] >= '0' && src[i] <= '9') {
				i++
			}
			if i < len(src) && src[i] == '.' {
				i++
				for i < len(src) && (src[i] >= '0' && src[i] <= '9') {
					i++
				}
			}
			n, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, &ExpressionError{Source: src, Pos: start, Reason: "invalid number"}
			}
			toks = append(toks, token{typ: tokNumber, text: src[start:i], num: n, pos: start})
		case isNameStart(c):
			start := i
			for i < len(src) && isNameChar(src[i]) {
				i++
			}
			word := src[start:i]
			if kw, ok := keywords[strings.ToLower(word)]; ok {
				toks = append(toks, token{typ: kw, text: word, pos: start})
			} else {
				toks = append(toks, token{typ: tokIdent, text: word, pos: start})
			}
		case c == '"' || c == '\'':
			quote := c
			start := i
			i++
			var b strings.Builder
			closed := false
			for i < len(src) {
				if src[i] == '\\' && i+1 < len(src) {
					next := src[i+1]
					switch next {
					case 'n':
						b.WriteByte('\n')
					case 't':
						b.WriteByte('\t')
					default:
						b.WriteByte(next)
					}
					i += 2
					continue
				}
				if src[i] == quote {
					closed = true
					i++
					break
				}
				b.WriteByte(src[i])
				i++
			}
			if !closed {
				return nil, &ExpressionError{Source: src, Pos: start, Reason: "unterminated string"}
			}
			toks = append(toks, token{typ: tokString, text: b.String(), pos: start})
		default:
			start := i
			two := ""
			if i+1 < len(src) {
				two = src[i : i+2]
			}
			switch {
			case two == "==":
				toks = append(toks, token{typ: tokEq, text: two, pos: start})
				i += 2
			case two == "!=":
				toks = append(toks, token{typ: tokNeq, text: two, pos: start})
				i += 2
			case two == "<=":
				toks = append(toks, token{typ: tokLte, text: two, pos: start})
				i += 2
			case two == ">=":
				toks = append(toks, token{typ: tokGte, text: two, pos: start})
				i += 2
			default:
				var typ tokenType
				switch c {
				case '(':
					typ = tokLParen
				case ')':
					typ = tokRParen
				case '[':
					typ = tokLBracket
				case ']':
					typ = tokRBracket
				case ',':
					typ = tokComma
				case '.':
					typ = tokDot
				case '+':
					typ = tokPlus
				case '-':
					typ = tokMinus
				case '*':
					typ = tokStar
				case '/':
					typ = tokSlash
				case '%':
					typ = tokPercent
				case '<':
					typ = tokLt
				case '>':
					typ = tokGt
				default:
					return nil, &ExpressionError{Source: src, Pos: start, Reason: fmt.Sprintf("unexpected character %q", c)}
				}
				toks = append(toks, token{typ: typ, text: string(c), pos: start})
				i++
			}
		}
	}
	toks = append(toks, token{typ: tokEOF, pos: len(src)})
	return toks, nil
}
