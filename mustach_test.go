package mustach

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Inkimera/mustach/values"
)

// testProvider is a minimal mustach.Interface+Getter+Partialer built
// directly on the values package, used so the core package's own tests
// don't need to import a provider backend (which would import mustach
// back, an import cycle for an in-package test file).
type testProvider struct {
	ctx          values.Context
	iter         []testIterFrame
	partials     map[string]string
	filePartials Partialer
}

type testIterFrame struct {
	items []interface{}
	idx   int
}

func newTestProvider(root interface{}) *testProvider {
	return &testProvider{ctx: values.Context{root}}
}

func (p *testProvider) withPartials(m map[string]string) *testProvider {
	p.partials = m
	return p
}

func (p *testProvider) Enter(name string) (int, error) {
	v, ok := values.Lookup(p.ctx, name)
	if !ok || !values.Truthy(v) {
		return 0, nil
	}
	items := values.Iterate(v)
	p.iter = append(p.iter, testIterFrame{items: items})
	p.ctx = p.ctx.Push(items[0])
	return 1, nil
}

func (p *testProvider) Next() (int, error) {
	top := &p.iter[len(p.iter)-1]
	top.idx++
	if top.idx >= len(top.items) {
		return 0, nil
	}
	p.ctx = p.ctx[1:]
	p.ctx = p.ctx.Push(top.items[top.idx])
	return 1, nil
}

func (p *testProvider) Leave() error {
	p.iter = p.iter[:len(p.iter)-1]
	p.ctx = p.ctx[1:]
	return nil
}

func (p *testProvider) Get(name string) (Value, error) {
	v, ok := values.Lookup(p.ctx, name)
	if !ok {
		return Value{}, nil
	}
	return Value{Text: values.Format(v)}, nil
}

func (p *testProvider) Partial(name string) (Value, error) {
	if text, ok := p.partials[name]; ok {
		return Value{Text: text}, nil
	}
	if p.filePartials != nil {
		return p.filePartials.Partial(name)
	}
	return Value{}, newError(ErrPartialNotFound)
}

var (
	_ Interface = (*testProvider)(nil)
	_ Getter    = (*testProvider)(nil)
	_ Partialer = (*testProvider)(nil)
)

// render is a small helper used throughout this file so each test case
// reads as template+data+expected.
func render(t *testing.T, tmpl string, data interface{}, flags Flags) (string, error) {
	t.Helper()
	return Render(tmpl, newTestProvider(data), flags)
}

func TestEndToEndScenarios(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		data     interface{}
		expected string
	}{
		{
			name:     "simple interpolation",
			tmpl:     `Hello {{name}}!`,
			data:     map[string]interface{}{"name": "Jo"},
			expected: "Hello Jo!",
		},
		{
			name: "section over array",
			tmpl: `{{#a}}-{{v}}-{{/a}}`,
			data: map[string]interface{}{"a": []interface{}{
				map[string]interface{}{"v": 1},
				map[string]interface{}{"v": 2},
				map[string]interface{}{"v": 3},
			}},
			expected: "-1--2--3-",
		},
		{
			name:     "inverted section over missing",
			tmpl:     `{{^missing}}none{{/missing}}`,
			data:     map[string]interface{}{},
			expected: "none",
		},
		{
			name:     "delimiter change is scoped",
			tmpl:     `{{=<% %>=}}<% x %> and <%={{ }}=%>{{x}}`,
			data:     map[string]interface{}{"x": "Z"},
			expected: "Z and Z",
		},
		{
			name:     "escaped vs unescaped",
			tmpl:     `<{{a}}><{{{a}}}>`,
			data:     map[string]interface{}{"a": "<b>"},
			expected: "<&lt;b&gt;><<b>>",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := render(t, tc.tmpl, tc.data, 0)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestPartialScenario(t *testing.T) {
	p := newTestProvider(map[string]interface{}{"v": 42}).
		withPartials(map[string]string{"inner": "[{{v}}]"})
	got, err := Render(`{{>inner}}`, p, 0)
	assert.NoError(t, err)
	assert.Equal(t, "[42]", got)
}

func TestNoTagsPassThrough(t *testing.T) {
	got, err := render(t, "hello world", nil, 0)
	assert.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestSectionDepthInvariant(t *testing.T) {
	open := strings.Repeat("{{#a}}", 256)
	closeTags := strings.Repeat("{{/a}}", 256)

	_, err := render(t, open+closeTags, nestedSections(256), 0)
	assert.NoError(t, err)

	tooDeep := strings.Repeat("{{#a}}", 257) + strings.Repeat("{{/a}}", 257)
	_, err = render(t, tooDeep, nestedSections(257), 0)
	assert.True(t, ErrorAs(err, ErrTooDeep))
}

// nestedSections builds {"a": {"a": {"a": ... true}}} n levels deep so a
// template nesting n "a" sections has something truthy to enter at each
// level.
func nestedSections(n int) interface{} {
	var v interface{} = true
	for i := 0; i < n; i++ {
		v = map[string]interface{}{"a": v}
	}
	return v
}

func TestTripleBraceRoundTrip(t *testing.T) {
	raw := `<tag attr="x & y"> 'quoted' </tag>`
	got, err := render(t, `{{{x}}}`, map[string]interface{}{"x": raw}, 0)
	assert.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestBoundaryZeroLengthTemplate(t *testing.T) {
	got, err := render(t, "", nil, 0)
	assert.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestBoundaryUnterminatedTag(t *testing.T) {
	_, err := render(t, "{{foo", nil, 0)
	assert.True(t, ErrorAs(err, ErrUnexpectedEnd))
}

func TestBoundaryUnmatchedClose(t *testing.T) {
	_, err := render(t, "{{/x}}", nil, 0)
	assert.True(t, ErrorAs(err, ErrClosing))
}

func TestBoundaryEmptyTagForbiddenByDefault(t *testing.T) {
	_, err := render(t, "{{ }}", nil, 0)
	assert.True(t, ErrorAs(err, ErrEmptyTag))
}

func TestBoundaryEmptyTagAllowed(t *testing.T) {
	got, err := render(t, "{{ }}", nil, FlagAllowEmptyTag)
	assert.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestBoundaryTagTooLong(t *testing.T) {
	name := strings.Repeat("a", maxNameLength+1)
	_, err := render(t, "{{"+name+"}}", nil, 0)
	assert.True(t, ErrorAs(err, ErrTagTooLong))
}

func TestBoundaryBadSeparators(t *testing.T) {
	_, err := render(t, "{{=  =}}", nil, 0)
	assert.True(t, ErrorAs(err, ErrBadSeparators))
}

func TestEmitErrorsAsPlaceholders(t *testing.T) {
	got, err := render(t, "{{missing}}{{>missing}}", map[string]interface{}{}, FlagEmitErrorsAsPlaceholders)
	assert.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestColonExtension(t *testing.T) {
	got, err := render(t, "{{:name}}", map[string]interface{}{"name": "Jo"}, FlagColonExtension)
	assert.NoError(t, err)
	assert.Equal(t, "Jo", got)
}

func TestComment(t *testing.T) {
	got, err := render(t, "hello {{! a comment }}world", nil, 0)
	assert.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestDottedName(t *testing.T) {
	got, err := render(t, `{{a.b.c}}`, map[string]interface{}{
		"a": map[string]interface{}{"b": map[string]interface{}{"c": "deep"}},
	}, 0)
	assert.NoError(t, err)
	assert.Equal(t, "deep", got)
}

func TestRenderBytesAndWriteTo(t *testing.T) {
	p := newTestProvider(map[string]interface{}{"name": "Jo"})
	raw, err := RenderBytes(`Hello {{name}}!`, p, 0)
	assert.NoError(t, err)
	assert.Equal(t, "Hello Jo!", string(raw))

	var buf strings.Builder
	p2 := newTestProvider(map[string]interface{}{"name": "Jo"})
	err = WriteTo(`Hello {{name}}!`, p2, func(b []byte) (int, error) {
		return buf.Write(b)
	}, 0)
	assert.NoError(t, err)
	assert.Equal(t, "Hello Jo!", buf.String())
}
