package logic

// Expression AST. A closed set of node kinds evaluated by eval.go.

type exprNode interface {
	isNode()
}

type literalNode struct {
	value any
}

type nameNode struct {
	name string
}

type attrNode struct {
	object exprNode
	name   string
}

type indexNode struct {
	object exprNode
	index  exprNode
}

type unaryNode struct {
	op string // "-" or "not"
	x  exprNode
}

type binaryNode struct {
	op   string
	l, r exprNode
}

type boolNode struct {
	op    string // "and" or "or"
	items []exprNode
}

type callNode struct {
	name string
	args []exprNode
}

type listNode struct {
	items []exprNode
}

func (literalNode) isNode() {}
func (nameNode) isNode()    {}
func (attrNode) isNode()    {}
func (indexNode) isNode()   {}
func (unaryNode) isNode()   {}
func (binaryNode) isNode()  {}
func (boolNode) isNode()    {}
func (callNode) isNode()    {}
func (listNode) isNode()    {}

// precedence-climbing parser

type exprParser struct {
	src  string
	toks []token
	pos  int
}

func parseExpression(src string) (exprNode, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &exprParser{src: src, toks: toks}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur().typ != tokEOF {
		return nil, p.fail("unexpected trailing input")
	}
	return node, nil
}

func (p *exprParser) cur() token { return p.toks[p.pos] }

func (p *exprParser) advance() token {
	t := p.toks[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) fail(reason string) error {
	return &ExpressionError{Source: p.src, Pos: p.cur().pos, Reason: reason}
}

func (p *exprParser) expect(typ tokenType, what string) error {
	if p.cur().typ != typ {
		return p.fail("expected " + what)
	}
	p.advance()
	return nil
}

func (p *exprParser) parseOr() (exprNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	if p.cur().typ != tokOr {
		return left, nil
	}
	items := []exprNode{left}
	for p.cur().typ == tokOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		items = append(items, right)
	}
	return boolNode{op: "or", items: items}, nil
}

func (p *exprParser) parseAnd() (exprNode, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	if p.cur().typ != tokAnd {
		return left, nil
	}
	items := []exprNode{left}
	for p.cur().typ == tokAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		items = append(items, right)
	}
	return boolNode{op: "and", items: items}, nil
}

func (p *exprParser) parseNot() (exprNode, error) {
	if p.cur().typ == tokNot {
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: "not", x: x}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[tokenType]string{
	tokEq:  "==",
	tokNeq: "!=",
	tokLt:  "<",
	tokLte: "<=",
	tokGt:  ">",
	tokGte: ">=",
	tokIn:  "in",
}

func (p *exprParser) parseComparison() (exprNode, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := comparisonOps[p.cur().typ]
	if !ok {
		return left, nil
	}
	p.advance()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return binaryNode{op: op, l: left, r: right}, nil
}

func (p *exprParser) parseAdditive() (exprNode, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().typ == tokPlus || p.cur().typ == tokMinus {
		op := p.advance().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, l: left, r: right}
	}
	return left, nil
}

func (p *exprParser) parseMultiplicative() (exprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().typ == tokStar || p.cur().typ == tokSlash || p.cur().typ == tokPercent {
		op := p.advance().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, l: left, r: right}
	}
	return left, nil
}

func (p *exprParser) parseUnary() (exprNode, error) {
	if p.cur().typ == tokMinus {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: "-", x: x}, nil
	}
	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() (exprNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().typ {
		case tokDot:
			p.advance()
			if p.cur().typ != tokIdent {
				return nil, p.fail("expected attribute name after '.'")
			}
			node = attrNode{object: node, name: p.advance().text}
		case tokLBracket:
			p.advance()
			idx, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRBracket, "']'"); err != nil {
				return nil, err
			}
			node = indexNode{object: node, index: idx}
		default:
			return node, nil
		}
	}
}

func (p *exprParser) parsePrimary() (exprNode, error) {
	switch t := p.cur(); t.typ {
	case tokNumber:
		p.advance()
		return literalNode{value: t.num}, nil
	case tokString:
		p.advance()
		return literalNode{value: t.text}, nil
	case tokTrue:
		p.advance()
		return literalNode{value: true}, nil
	case tokFalse:
		p.advance()
		return literalNode{value: false}, nil
	case tokNull:
		p.advance()
		return literalNode{value: nil}, nil
	case tokIdent:
		p.advance()
		if p.cur().typ == tokLParen {
			return p.parseCall(t.text)
		}
		return nameNode{name: t.text}, nil
	case tokLParen:
		p.advance()
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return node, nil
	case tokLBracket:
		p.advance()
		var items []exprNode
		for p.cur().typ != tokRBracket {
			item, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if p.cur().typ == tokComma {
				p.advance()
				continue
			}
			break
		}
		if err := p.expect(tokRBracket, "']'"); err != nil {
			return nil, err
		}
		return listNode{items: items}, nil
	default:
		return nil, p.fail("expected an expression")
	}
}

func (p *exprParser) parseCall(name string) (exprNode, error) {
	p.advance() // '('
	var args []exprNode
	for p.cur().typ != tokRParen {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur().typ == tokComma {
			p.advance()
			continue
		}
		break
	}
	if err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return callNode{name: name, args: args}, nil
}
