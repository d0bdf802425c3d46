package query

import (
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// node is an evaluable piece of a parsed predicate expression.
type node interface {
	evaluate(document string) bool
}

type predicateNode struct {
	predicate predicate
}

func (n *predicateNode) evaluate(document string) bool {
	return n.predicate.evaluate(gjson.Get(document, n.predicate.field()))
}

type andNode struct {
	children []node
}

func (n *andNode) evaluate(document string) bool {
	for _, child := range n.children {
		if !child.evaluate(document) {
			return false
		}
	}
	return true
}

type orNode struct {
	children []node
}

func (n *orNode) evaluate(document string) bool {
	for _, child := range n.children {
		if child.evaluate(document) {
			return true
		}
	}
	return false
}

// parser turns a token list into a node tree. The grammar is:
//
//	or     = and { OR and }
//	and    = factor { [AND] factor }
//	factor = predicate | "(" or ")"
type parser struct {
	tokens   []token
	position int
}

// parse returns the expression of tokens, or nil for an empty list.
func parse(tokens []token) (node, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	p := &parser{tokens: tokens}
	expression, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.position != len(p.tokens) {
		return nil, errors.Errorf("unexpected %s at token %d", p.tokens[p.position].kind, p.position)
	}
	return expression, nil
}

func (p *parser) peek() (tokenKind, bool) {
	if p.position >= len(p.tokens) {
		return 0, false
	}
	return p.tokens[p.position].kind, true
}

func (p *parser) parseOr() (node, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []node{first}
	for {
		kind, ok := p.peek()
		if !ok || kind != tokenOr {
			break
		}
		p.position++
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return first, nil
	}
	return &orNode{children: children}, nil
}

func (p *parser) parseAnd() (node, error) {
	first, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	children := []node{first}
	for {
		kind, ok := p.peek()
		if !ok {
			break
		}
		if kind == tokenAnd {
			p.position++
		} else if kind != tokenPredicate && kind != tokenBeginGroup {
			break
		}
		next, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return first, nil
	}
	return &andNode{children: children}, nil
}

func (p *parser) parseFactor() (node, error) {
	kind, ok := p.peek()
	if !ok {
		return nil, errors.New("unexpected end of expression")
	}
	switch kind {
	case tokenPredicate:
		n := &predicateNode{predicate: p.tokens[p.position].predicate}
		p.position++
		return n, nil
	case tokenBeginGroup:
		p.position++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		kind, ok := p.peek()
		if !ok || kind != tokenEndGroup {
			return nil, errors.New("unclosed group")
		}
		p.position++
		return inner, nil
	}
	return nil, errors.Errorf("unexpected %s at token %d", kind, p.position)
}
