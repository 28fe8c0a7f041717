package ngff

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OMEImage is one Image element of an OME-XML document
type OMEImage struct {
	Name           string
	ID             string
	Path           string
	DimensionOrder string
}

// OMEXML is the part of METADATA.ome.xml used for series discovery
type OMEXML struct {
	Images []OMEImage
}

// ValidationError lists the problems found while parsing a document. It is
// reported for diagnostics rather than aborting resolution.
type ValidationError struct {
	Document string
	Errors   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %d parse error(s): %v", e.Document, len(e.Errors), strings.Join(e.Errors, "; "))
}

// ParseOMEXML reads the images declared directly under the root element, in
// document order, numbering their series paths from 0. Parse problems are
// returned as a *ValidationError alongside whatever images were read before
// the problem.
func ParseOMEXML(data []byte) (*OMEXML, error) {
	result := &OMEXML{}
	var problems []string

	dec := xml.NewDecoder(bytes.NewReader(data))
	depth := 0
	var current *OMEImage
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			problems = append(problems, err.Error())
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				sawRoot = true
			}
			switch {
			case depth == 2 && t.Name.Local == "Image":
				current = &OMEImage{
					Name: attr(t, "Name"),
					ID:   attr(t, "ID"),
					Path: strconv.Itoa(len(result.Images)),
				}
			case current != nil && t.Name.Local == "Pixels" && current.DimensionOrder == "":
				current.DimensionOrder = attr(t, "DimensionOrder")
			}
		case xml.EndElement:
			if depth == 2 && current != nil && t.Name.Local == "Image" {
				result.Images = append(result.Images, *current)
				current = nil
			}
			depth--
		}
	}

	if !sawRoot && len(problems) == 0 {
		problems = append(problems, "document has no root element")
	}
	if len(problems) > 0 {
		return result, &ValidationError{Document: "OME/METADATA.ome.xml", Errors: problems}
	}
	return result, nil
}

// SeriesPaths returns the series path of every declared image
func (x *OMEXML) SeriesPaths() []string {
	paths := make([]string, len(x.Images))
	for i, img := range x.Images {
		paths[i] = img.Path
	}
	return paths
}

func attr(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
