package scan

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/morozRed/toolbelt/internal/reader"
	"golang.org/x/net/html/charset"
)

var (
	errNoElement   = errors.New("no element found")
	errJunkAfterEl = errors.New("junk after document element")
	errExtraData   = errors.New("extra data")
)

// decodeJSON parses one complete JSON document. Numbers stay json.Number so
// integers and floats can be told apart.
func decodeJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, jsonError(text, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: %s", errExtraData, jsonPosition(text, dec.InputOffset()))
	}
	return v, nil
}

// jsonError adds a line and column to syntax errors.
func jsonError(text string, err error) error {
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		return fmt.Errorf("%s: %s", syntax.Error(), jsonPosition(text, syntax.Offset))
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("unexpected end of JSON input: %s", jsonPosition(text, int64(len(text))))
	}
	return err
}

func jsonPosition(text string, offset int64) string {
	if offset > int64(len(text)) {
		offset = int64(len(text))
	}
	head := text[:offset]
	line := strings.Count(head, "\n") + 1
	col := len(head) - strings.LastIndex(head, "\n")
	return fmt.Sprintf("line %d column %d (char %d)", line, col, offset)
}

// jsonTypeName names a decoded JSON value the way Python would.
func jsonTypeName(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return "dict"
	case []any:
		return "list"
	case string:
		return "str"
	case bool:
		return "bool"
	case json.Number:
		if strings.ContainsAny(string(val), ".eE") {
			return "float"
		}
		return "int"
	case nil:
		return "NoneType"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// parseXML checks that data is one well-formed document and returns its
// root element.
func parseXML(data []byte) (xml.StartElement, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root   xml.StartElement
		seen   bool
		closed bool
		depth  int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return xml.StartElement{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if closed {
				return xml.StartElement{}, errJunkAfterEl
			}
			if !seen {
				root, seen = t.Copy(), true
			}
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				closed = true
			}
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				if closed {
					return xml.StartElement{}, errJunkAfterEl
				}
				return xml.StartElement{}, errors.New("syntax error: text outside the root element")
			}
		}
	}
	if !seen {
		return xml.StartElement{}, errNoElement
	}
	return root, nil
}

func parseXMLFile(path string) (xml.StartElement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return xml.StartElement{}, err
	}
	return parseXML(data)
}

// attr returns the value of the root attribute with local name name.
func attr(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// readCSV parses the file at path. Rows may have differing lengths. When
// limit > 0 at most limit rows are read.
func readCSV(path string, limit int) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(strings.NewReader(reader.DecodeUTF8(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for limit <= 0 || len(rows) < limit {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
