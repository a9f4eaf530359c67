package mustach

import (
	"bytes"
	"io"
)

// FProcess renders tmpl using provider p, writing output to w.
func FProcess(tmpl string, p Interface, w io.Writer, flags Flags) error {
	return Process(tmpl, p, NewWriterSink(w), flags)
}

// Render renders tmpl using provider p, buffering the output in memory and
// returning it as a string.
func Render(tmpl string, p Interface, flags Flags) (string, error) {
	buf := newBufferSink()
	if err := Process(tmpl, p, buf, flags); err != nil {
		return buf.String(), err
	}
	return buf.String(), nil
}

// RenderBytes is like Render but returns the raw bytes of the buffer the
// caller now owns.
func RenderBytes(tmpl string, p Interface, flags Flags) ([]byte, error) {
	buf := newBufferSink()
	if err := Process(tmpl, p, buf, flags); err != nil {
		return buf.Bytes(), err
	}
	return buf.Bytes(), nil
}

// WriteTo renders tmpl to a caller-supplied byte-sink callback, escaping
// with the built-in HTML emitter.
func WriteTo(tmpl string, p Interface, write func(p []byte) (int, error), flags Flags) error {
	return FProcess(tmpl, p, writeFunc(write), flags)
}

// EmitTo renders tmpl to a caller-supplied emit callback, bypassing the
// built-in HTML emitter entirely; the callback receives the escape flag
// and is responsible for honoring it.
func EmitTo(tmpl string, p Interface, emit func(p []byte, escape bool) error, flags Flags) error {
	return Process(tmpl, p, NewCallbackSink(emit), flags)
}

// writeFunc adapts a func([]byte) (int, error) to io.Writer.
type writeFunc func(p []byte) (int, error)

func (f writeFunc) Write(p []byte) (int, error) {
	return f(p)
}

// RenderInto renders tmpl into an existing *bytes.Buffer, appending to
// whatever it already contains.
func RenderInto(tmpl string, p Interface, buf *bytes.Buffer, flags Flags) error {
	return FProcess(tmpl, p, buf, flags)
}
