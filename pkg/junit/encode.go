package junit

import (
	"bytes"
	"encoding/xml"
	"io"
)

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo serializes the document as UTF-8 XML with a declaration and
// two-space indentation. Any error is a *WriteError.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if _, err := io.WriteString(cw, xml.Header); err != nil {
		return cw.n, &WriteError{Err: err}
	}

	enc := xml.NewEncoder(cw)
	enc.Indent("", "  ")
	if err := enc.Encode(d.root()); err != nil {
		return cw.n, &WriteError{Err: err}
	}
	if _, err := io.WriteString(cw, "\n"); err != nil {
		return cw.n, &WriteError{Err: err}
	}
	return cw.n, nil
}

// Write serializes doc to w.
func Write(w io.Writer, doc *Document) error {
	_, err := doc.WriteTo(w)
	return err
}

// Marshal returns the serialized document.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
