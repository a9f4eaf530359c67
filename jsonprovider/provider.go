// Package jsonprovider implements mustach.Interface over a tree of
// encoding/json-decoded values (map[string]interface{}, []interface{},
// and scalars), playing the role the original C library's mustach-json-c
// backend played for the json-c library.
package jsonprovider

import (
	"encoding/json"

	"github.com/Inkimera/mustach"
	"github.com/Inkimera/mustach/values"
)

// Provider adapts a decoded JSON value (or any Go value shaped like one)
// to mustach.Interface, mustach.Getter, and mustach.Partialer.
type Provider struct {
	ctx            values.Context
	iter           []iterFrame
	partials       mustach.Partialer
	errorOnMissing bool
}

type iterFrame struct {
	items []interface{}
	idx   int
}

// New returns a Provider whose root context is root.
func New(root interface{}) *Provider {
	return &Provider{ctx: values.Context{root}}
}

// Parse decodes JSON bytes and returns a Provider rooted at the result.
func Parse(data []byte) (*Provider, error) {
	var root interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &mustach.Error{Code: mustach.ErrSystem, Cause: err}
	}
	return New(root), nil
}

// WithPartials sets the partial source consulted by Partial.
func (p *Provider) WithPartials(partials mustach.Partialer) *Provider {
	p.partials = partials
	return p
}

// WithErrorOnMissing makes Enter/Get report ErrItemNotFound for an
// unresolved name instead of silently treating it as empty/falsy.
func (p *Provider) WithErrorOnMissing(b bool) *Provider {
	p.errorOnMissing = b
	return p
}

// Enter implements mustach.Interface.
func (p *Provider) Enter(name string) (int, error) {
	v, ok := values.Lookup(p.ctx, name)
	if !ok {
		if p.errorOnMissing {
			return 0, &mustach.Error{Code: mustach.ErrItemNotFound}
		}
		return 0, nil
	}
	if !values.Truthy(v) {
		return 0, nil
	}
	items := values.Iterate(v)
	p.iter = append(p.iter, iterFrame{items: items, idx: 0})
	p.ctx = p.ctx.Push(items[0])
	return 1, nil
}

// Next implements mustach.Interface.
func (p *Provider) Next() (int, error) {
	top := &p.iter[len(p.iter)-1]
	top.idx++
	if top.idx >= len(top.items) {
		return 0, nil
	}
	p.ctx = p.ctx[1:]
	p.ctx = p.ctx.Push(top.items[top.idx])
	return 1, nil
}

// Leave implements mustach.Interface.
func (p *Provider) Leave() error {
	p.iter = p.iter[:len(p.iter)-1]
	p.ctx = p.ctx[1:]
	return nil
}

// Get implements mustach.Getter.
func (p *Provider) Get(name string) (mustach.Value, error) {
	v, ok := values.Lookup(p.ctx, name)
	if !ok {
		if p.errorOnMissing {
			return mustach.Value{}, &mustach.Error{Code: mustach.ErrItemNotFound}
		}
		return mustach.Value{}, nil
	}
	return mustach.Value{Text: values.Format(v)}, nil
}

// Partial implements mustach.Partialer, delegating to the configured
// partial source.
func (p *Provider) Partial(name string) (mustach.Value, error) {
	if p.partials == nil {
		return mustach.Value{}, &mustach.Error{Code: mustach.ErrPartialNotFound}
	}
	return p.partials.Partial(name)
}

var (
	_ mustach.Interface = (*Provider)(nil)
	_ mustach.Getter    = (*Provider)(nil)
	_ mustach.Partialer = (*Provider)(nil)
)
