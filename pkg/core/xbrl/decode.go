package xbrl

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/net/html/charset"
)

// Decode reads an XML stream and feeds it to h. Namespace prefixes are
// resolved here so the handler receives the namespace URI, local name and
// qualified name of every element, as a SAX parser would report them.
func Decode(ctx context.Context, r io.Reader, h Handler) error {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	// declared encodings other than UTF-8, e.g. ISO-8859-1 or windows-1252
	dec.CharsetReader = charset.NewReaderLabel

	var scopes []map[string]string
	resolve := func(prefix string) string {
		for i := len(scopes) - 1; i >= 0; i-- {
			if uri, ok := scopes[i][prefix]; ok {
				return uri
			}
		}
		return ""
	}

	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read xml token: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			scope := map[string]string{}
			attrs := make([]Attr, 0, len(t.Attr))
			for _, a := range t.Attr {
				switch {
				case a.Name.Space == "xmlns":
					scope[a.Name.Local] = a.Value
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					scope[""] = a.Value
				default:
					attrs = append(attrs, Attr{Name: a.Name.Local, Value: a.Value})
				}
			}
			scopes = append(scopes, scope)
			h.StartElement(resolve(t.Name.Space), t.Name.Local, qualified(t.Name), attrs)
		case xml.EndElement:
			h.EndElement(resolve(t.Name.Space), t.Name.Local, qualified(t.Name))
			if len(scopes) > 0 {
				scopes = scopes[:len(scopes)-1]
			}
		case xml.CharData:
			h.CharData(string(t))
		}
	}
	h.EndDocument()
	return nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// Parse builds a document from r.
func Parse(ctx context.Context, r io.Reader, filing Filing, opts Options) (*Document, error) {
	doc := NewDocument(filing)
	if err := Decode(ctx, r, NewBuilder(doc, opts)); err != nil {
		return nil, err
	}
	fillFilingInfo(doc)
	return doc, nil
}

// ParseFile builds a document from a file on disk.
func ParseFile(ctx context.Context, path string, opts Options) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Parse(ctx, f, Filing{File: filepath.Base(path)}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}
