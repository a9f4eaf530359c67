// Package mustach implements the core of a Mustache template rendering
// engine: a streaming processor that interleaves literal template text
// with data resolved through a pluggable provider interface (Interface
// and its optional capability extensions in provider.go).
//
// The processor never precompiles a template; every call re-scans the
// template string from the start. This mirrors the original C mustach
// library (https://gitlab.com/jobol/mustach) this package is a port of.
package mustach

const (
	maxNameLength = 1024
	maxDepth      = 256
)

// Flags is an OR-composed bit-set recognised by the driver entry points.
type Flags uint

const (
	// FlagEmitErrorsAsPlaceholders makes the processor skip an
	// interpolation or partial tag whose resolution reports
	// ErrItemNotFound or ErrPartialNotFound, emitting nothing in its
	// place, instead of aborting. Every other error is still returned.
	FlagEmitErrorsAsPlaceholders Flags = 1 << iota
	// FlagAllowEmptyTag permits a tag whose trimmed name is empty.
	// Without it, an empty name reports ErrEmptyTag.
	FlagAllowEmptyTag
	// FlagColonExtension recognises ':' as a sigil equivalent to a
	// bare (escaped-interpolation) name-bearing tag. Without it, ':'
	// is just an ordinary leading character of the tag's name.
	FlagColonExtension
	// FlagSingleDotLookup is accepted for API compatibility but is a
	// pure provider concern: the core passes every name through to the
	// provider unchanged regardless of this bit.
	FlagSingleDotLookup
)

// sectionFrame is one entry of the section stack.
type sectionFrame struct {
	name     string
	again    int // cursor position just past the opening tag
	enabled  bool // enabled flag saved from the enclosing frame
	entered  int  // provider-returned truthiness at entry; 0 = not entered
	inverted bool
}

// Process renders tmpl using provider p, writing output to sink, under
// the default "{{"/"}}" delimiters. It calls p's Start/Stop capabilities,
// if present, once around the whole invocation.
func Process(tmpl string, p Interface, sink Sink, flags Flags) error {
	if starter, ok := p.(Starter); ok {
		if err := starter.Start(); err != nil {
			return err
		}
	}
	code, err := process(tmpl, p, sink, "{{", "}}", flags)
	if stopper, ok := p.(Stopper); ok {
		stopper.Stop(code)
	}
	return err
}

// process is the recursive-descent tag scanner and section-stack state
// machine, mirroring the original C mustach's process(). It is invoked once
// per partial inclusion, each with its own section stack, inheriting the
// delimiters current at the point of inclusion.
func process(tmpl string, p Interface, sink Sink, open, close string, flags Flags) (Code, error) {
	var stack [maxDepth]sectionFrame
	depth := 0
	enabled := true
	pos := 0

	for {
		idx := indexFrom(tmpl, pos, open)
		if idx < 0 {
			if enabled && pos < len(tmpl) {
				if err := emit(p, sink, tmpl[pos:], false); err != nil {
					return CodeOf(err), err
				}
			}
			if depth != 0 {
				return ErrUnexpectedEnd, newError(ErrUnexpectedEnd)
			}
			return OK, nil
		}
		beg := idx
		if enabled && beg > pos {
			if err := emit(p, sink, tmpl[pos:beg], false); err != nil {
				return CodeOf(err), err
			}
		}
		beg += len(open)
		term := indexFrom(tmpl, beg, close)
		if term < 0 {
			return ErrUnexpectedEnd, newError(ErrUnexpectedEnd)
		}
		next := term + len(close)

		raw := tmpl[beg:term]
		var c byte
		if len(raw) > 0 {
			c = raw[0]
		}

		if c == '{' {
			// Triple-brace unescape is supported only when the
			// effective close delimiter starts with '}'; under any
			// other close delimiter the literal "{{{...}}}" form is
			// rejected outright.
			if len(close) == 0 || close[0] != '}' {
				return ErrBadUnescapeTag, newError(ErrBadUnescapeTag)
			}
			l := 0
			for l < len(close) && close[l] == '}' {
				l++
			}
			if l == len(close) {
				// close is made entirely of '}': the name region
				// needs one more trailing brace past the close tag.
				if next >= len(tmpl) || tmpl[next] != '}' {
					return ErrBadUnescapeTag, newError(ErrBadUnescapeTag)
				}
				next++
			} else {
				// close starts with '}' but has a non-brace suffix:
				// the extra brace is the last byte of the name region.
				if len(raw) == 0 || raw[len(raw)-1] != '}' {
					return ErrBadUnescapeTag, newError(ErrBadUnescapeTag)
				}
				raw = raw[:len(raw)-1]
			}
			c = '&'
		}

		switch c {
		case '!':
			// comment; nothing to do

		case '=':
			newOpen, newClose, ok := parseSeparators(raw)
			if !ok {
				return ErrBadSeparators, newError(ErrBadSeparators)
			}
			open, close = newOpen, newClose

		case '^', '#', '/', '&', '>':
			name, code, err := extractName(raw[1:], flags)
			if err != nil {
				return code, err
			}
			switch c {
			case '^', '#':
				if depth == maxDepth {
					return ErrTooDeep, newError(ErrTooDeep)
				}
				rc := 0
				if enabled {
					var err error
					rc, err = p.Enter(name)
					if err != nil {
						return CodeOf(err), err
					}
				}
				stack[depth] = sectionFrame{
					name:     name,
					again:    next,
					enabled:  enabled,
					entered:  rc,
					inverted: c == '^',
				}
				if (c == '#') == (rc == 0) {
					enabled = false
				}
				depth++

			case '/':
				if depth == 0 {
					return ErrClosing, newError(ErrClosing)
				}
				depth--
				top := stack[depth]
				if top.name != name {
					return ErrClosing, newError(ErrClosing)
				}
				rc := 0
				if enabled && top.entered != 0 {
					var err error
					rc, err = p.Next()
					if err != nil {
						return CodeOf(err), err
					}
				}
				if rc != 0 {
					pos = top.again
					depth++
					continue
				}
				enabled = top.enabled
				if enabled && top.entered != 0 {
					if err := p.Leave(); err != nil {
						return CodeOf(err), err
					}
				}

			case '>':
				if enabled {
					v, err := resolvePartial(p, name)
					if err != nil {
						if isPlaceholderable(err, flags) {
							break
						}
						return CodeOf(err), err
					}
					code, err := process(v.Text, p, sink, open, close, flags)
					v.release()
					if err != nil {
						return code, err
					}
				}

			case '&':
				if enabled {
					if err := put(p, name, false, sink); err != nil && !isPlaceholderable(err, flags) {
						return CodeOf(err), err
					}
				}
			}

		default:
			escaped := true
			if flags&FlagColonExtension != 0 && c == ':' {
				raw = raw[1:]
			}
			name, code, err := extractName(raw, flags)
			if err != nil {
				return code, err
			}
			if enabled {
				if err := put(p, name, escaped, sink); err != nil && !isPlaceholderable(err, flags) {
					return CodeOf(err), err
				}
			}
		}

		pos = next
	}
}

// extractName trims ASCII whitespace from both ends of raw and validates
// it against the empty-tag and too-long rules.
func extractName(raw string, flags Flags) (string, Code, error) {
	name := trimASCIISpace(raw)
	if name == "" && flags&FlagAllowEmptyTag == 0 {
		return "", ErrEmptyTag, newError(ErrEmptyTag)
	}
	if len(name) > maxNameLength {
		return "", ErrTagTooLong, newError(ErrTagTooLong)
	}
	return name, OK, nil
}

// parseSeparators parses the body of a "=...=" delimiter-change tag (raw
// is the tag's full content, including the leading/trailing '=') into a
// new (open, close) pair.
func parseSeparators(raw string) (string, string, bool) {
	if len(raw) < 5 || raw[len(raw)-1] != '=' {
		return "", "", false
	}
	body := trimASCIISpace(raw[1 : len(raw)-1])
	l := 0
	for l < len(body) && !isASCIISpace(body[l]) {
		l++
	}
	if l == len(body) {
		return "", "", false
	}
	newOpen := body[:l]
	for l < len(body) && isASCIISpace(body[l]) {
		l++
	}
	if l == len(body) {
		return "", "", false
	}
	newClose := body[l:]
	return newOpen, newClose, true
}

func isASCIISpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func trimASCIISpace(s string) string {
	i, j := 0, len(s)
	for i < j && isASCIISpace(s[i]) {
		i++
	}
	for j > i && isASCIISpace(s[j-1]) {
		j--
	}
	return s[i:j]
}

// indexFrom returns the byte offset of the first occurrence of sub in
// s[from:], translated back to an offset into s, or -1 if absent.
func indexFrom(s string, from int, sub string) int {
	idx := indexSub(s[from:], sub)
	if idx < 0 {
		return -1
	}
	return from + idx
}

func indexSub(s, sub string) int {
	n := len(sub)
	if n == 0 {
		return 0
	}
	for i := 0; i+n <= len(s); i++ {
		if s[i:i+n] == sub {
			return i
		}
	}
	return -1
}

// emit writes text (a literal template span, or a resolved value from
// put), HTML-escaped when escape is true, through the provider's Emitter
// capability if present, otherwise directly to sink.
func emit(p Interface, sink Sink, text string, escape bool) error {
	if em, ok := p.(Emitter); ok {
		return em.EmitValue([]byte(text), escape, sink)
	}
	return sink.Emit([]byte(text), escape)
}

// put resolves name and writes its value to sink, honoring escape. It
// prefers the provider's Putter capability; falling back to Getter plus
// emit.
func put(p Interface, name string, escape bool, sink Sink) error {
	if putter, ok := p.(Putter); ok {
		return putter.Put(name, escape, sink)
	}
	getter, ok := p.(Getter)
	if !ok {
		return newError(ErrInvalidInterface)
	}
	v, err := getter.Get(name)
	if err != nil {
		return err
	}
	defer v.release()
	return emit(p, sink, v.Text, escape)
}

// resolvePartial resolves name to a partial template string, following
// the documented fallback chain: Partialer, then Getter, then rendering
// the name's own value through a private buffered sink.
func resolvePartial(p Interface, name string) (Value, error) {
	if pp, ok := p.(Partialer); ok {
		return pp.Partial(name)
	}
	if g, ok := p.(Getter); ok {
		return g.Get(name)
	}
	return divertPartial(p, name)
}

// divertPartial renders name's own value into a private buffered sink and
// treats the result as the partial's template text. This is the generic
// partial fallback used when neither Partialer nor Getter is available.
func divertPartial(p Interface, name string) (Value, error) {
	buf := newBufferSink()
	if err := put(p, name, false, buf); err != nil {
		return Value{}, err
	}
	return Value{Text: buf.String()}, nil
}

// isPlaceholderable reports whether err is a resolution failure (item or
// partial not found) that FlagEmitErrorsAsPlaceholders allows the
// processor to treat as an empty placeholder rather than abort on.
// Structural errors (depth, closing, separators, ...) are never
// placeholderable: the core is always authoritative on those.
func isPlaceholderable(err error, flags Flags) bool {
	if flags&FlagEmitErrorsAsPlaceholders == 0 {
		return false
	}
	switch CodeOf(err) {
	case ErrItemNotFound, ErrPartialNotFound:
		return true
	default:
		return false
	}
}
