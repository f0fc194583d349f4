package bind

import (
	"bytes"

	"github.com/valyala/quicktemplate"
)

// Buffer is a Sink that keeps the latest rendered fragment.
type Buffer struct {
	escape  bool
	buf     bytes.Buffer
	updates int
}

// NewTextBuffer escapes every update for inclusion in HTML.
func NewTextBuffer() *Buffer {
	return &Buffer{escape: true}
}

// NewHTMLBuffer keeps every update as is.
func NewHTMLBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Update(value string) error {
	b.buf.Reset()
	qw := quicktemplate.AcquireWriter(&b.buf)
	if b.escape {
		qw.E().S(value)
	} else {
		qw.N().S(value)
	}
	quicktemplate.ReleaseWriter(qw)
	b.updates++
	return nil
}

func (b *Buffer) String() string {
	return b.buf.String()
}

// Updates counts the renders received, the initial one included.
func (b *Buffer) Updates() int {
	return b.updates
}
