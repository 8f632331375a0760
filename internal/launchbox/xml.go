// Package launchbox reads and writes LaunchBox XML platform and playlist
// files.
//
// Decoding is an explicit field-by-field coercion pass: every modeled field
// of the resulting record is present, absent elements become "", and
// booleans accept the spellings LaunchBox and hand edits produce. Elements
// the backend does not model are kept verbatim and written back on save.
package launchbox

import (
	"bytes"
	"encoding/xml"
	"io"
)

// xmlHeader matches what LaunchBox writes.
const xmlHeader = `<?xml version="1.0" standalone="yes"?>` + "\n"

// document is the <LaunchBox> root of both file kinds.
type document struct {
	XMLName xml.Name `xml:"LaunchBox"`
	Items   []node   `xml:",any"`
}

// node is a root-level record such as <Game> or <PlaylistGame>.
type node struct {
	XMLName  xml.Name
	Inner    string `xml:",innerxml"`
	Children []leaf `xml:",any"`
}

// leaf is a field of a record. Text is the unescaped character data,
// Inner the raw markup used to preserve unmodeled fields.
type leaf struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
	Inner   string `xml:",innerxml"`
}

func decodeDocument(raw []byte) (*document, error) {
	var doc document
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// isBlank reports whether raw holds nothing but whitespace.
func isBlank(raw []byte) bool {
	return len(bytes.TrimSpace(raw)) == 0
}

// outDocument mirrors document for encoding.
type outDocument struct {
	XMLName xml.Name  `xml:"LaunchBox"`
	Items   []outNode `xml:",any"`
}

type outNode struct {
	XMLName  xml.Name
	Inner    string    `xml:",innerxml"`
	Children []outLeaf `xml:",any"`
}

type outLeaf struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
	Inner   string `xml:",innerxml"`
}

func textLeaf(name, value string) outLeaf {
	return outLeaf{XMLName: xml.Name{Local: name}, Text: value}
}

func rawLeaf(name, inner string) outLeaf {
	return outLeaf{XMLName: xml.Name{Local: name}, Inner: inner}
}

func encodeDocument(doc *outDocument) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	if err := writeIndented(&buf, doc); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeIndented(w io.Writer, v any) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
