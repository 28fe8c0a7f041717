// Package ngff models the OME-NGFF attributes found on zarr groups and the
// side documents (consolidated metadata, OME-XML) that bioformats2raw
// containers carry.
//
// Group attributes come in several shapes depending on the format version:
// NGFF keys at the top level of a v2 group, NGFF keys nested under "ome" in
// a v3 group, or no NGFF keys at all. ResolveAttrs normalizes all of them
// into one Attrs value once, so callers never probe optional keys directly.
package ngff

import (
	"encoding/json"
	"fmt"

	"ngffviewer/pkg/zarr"
)

// AttrsKind tags which shape the attributes were found in
type AttrsKind int

const (
	// PlainGroupAttrs carry no NGFF keys
	PlainGroupAttrs AttrsKind = iota
	// V2Attrs carry NGFF keys at the top level of the group attributes
	V2Attrs
	// V3WithOme nest every NGFF key under "ome"
	V3WithOme
)

func (k AttrsKind) String() string {
	switch k {
	case V2Attrs:
		return "v2"
	case V3WithOme:
		return "v3-ome"
	}
	return "plain"
}

// Axis is one entry of a multiscale axes list
type Axis struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Unit string `json:"unit,omitempty"`
}

// UnmarshalJSON accepts both axis objects and the bare names used by NGFF 0.3
func (a *Axis) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*a = Axis{Name: name}
		return nil
	}
	type plain Axis
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Axis(p)
	return nil
}

// CoordinateTransformation is a scale or translation entry
type CoordinateTransformation struct {
	Type        string    `json:"type"`
	Scale       []float64 `json:"scale,omitempty"`
	Translation []float64 `json:"translation,omitempty"`
}

// Dataset is one resolution level of a multiscale image
type Dataset struct {
	Path                      string                     `json:"path"`
	CoordinateTransformations []CoordinateTransformation `json:"coordinateTransformations,omitempty"`
}

// Multiscale describes one pyramid
type Multiscale struct {
	Name                      string                     `json:"name,omitempty"`
	Version                   string                     `json:"version,omitempty"`
	Axes                      []Axis                     `json:"axes,omitempty"`
	Datasets                  []Dataset                  `json:"datasets"`
	CoordinateTransformations []CoordinateTransformation `json:"coordinateTransformations,omitempty"`
}

// OmeroWindow is the rendering window of a channel
type OmeroWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// OmeroChannel holds the display settings of one channel
type OmeroChannel struct {
	Active *bool        `json:"active,omitempty"`
	Color  string       `json:"color,omitempty"`
	Label  string       `json:"label,omitempty"`
	Window *OmeroWindow `json:"window,omitempty"`
}

// OmeroRdefs holds the default plane
type OmeroRdefs struct {
	DefaultT *int   `json:"defaultT,omitempty"`
	DefaultZ *int   `json:"defaultZ,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Omero is the transitional "omero" rendering block
type Omero struct {
	Name     string         `json:"name,omitempty"`
	Channels []OmeroChannel `json:"channels"`
	Rdefs    *OmeroRdefs    `json:"rdefs,omitempty"`
}

// Named is a row or column entry of a plate
type Named struct {
	Name string `json:"name"`
}

// PlateWell locates one well of a plate
type PlateWell struct {
	Path        string `json:"path"`
	RowIndex    *int   `json:"rowIndex,omitempty"`
	ColumnIndex *int   `json:"columnIndex,omitempty"`
}

// Plate describes a high content screening plate
type Plate struct {
	Name    string      `json:"name,omitempty"`
	Rows    []Named     `json:"rows"`
	Columns []Named     `json:"columns"`
	Wells   []PlateWell `json:"wells"`
}

// WellImage is one field of view inside a well
type WellImage struct {
	Path        string `json:"path"`
	Acquisition *int   `json:"acquisition,omitempty"`
}

// Well lists the images of one well
type Well struct {
	Images []WellImage `json:"images"`
}

// LabelColor assigns a colour to a label value
type LabelColor struct {
	LabelValue int   `json:"label-value"`
	RGBA       []int `json:"rgba"`
}

// ImageLabel marks a group as a label image
type ImageLabel struct {
	Version string       `json:"version,omitempty"`
	Colors  []LabelColor `json:"colors,omitempty"`
}

// Attrs is the normalized view of a group's NGFF attributes
type Attrs struct {
	Kind AttrsKind
	// Version is the NGFF version, from "ome.version" or the first multiscale
	Version string

	Multiscales          []Multiscale
	Omero                *Omero
	Plate                *Plate
	Well                 *Well
	ImageLabel           *ImageLabel
	Labels               []string
	Series               []string
	Bioformats2rawLayout *int

	// Raw is the resolved attribute map the fields were decoded from
	Raw zarr.Attributes
}

// document mirrors the NGFF keys we read
type document struct {
	Version              string       `json:"version,omitempty"`
	Multiscales          []Multiscale `json:"multiscales,omitempty"`
	Omero                *Omero       `json:"omero,omitempty"`
	Plate                *Plate       `json:"plate,omitempty"`
	Well                 *Well        `json:"well,omitempty"`
	ImageLabel           *ImageLabel  `json:"image-label,omitempty"`
	Labels               []string     `json:"labels,omitempty"`
	Series               []string     `json:"series,omitempty"`
	Bioformats2rawLayout *int         `json:"bioformats2raw.layout,omitempty"`
}

// ResolveAttrs normalizes the raw group attributes. When an "ome" object is
// present it is used in place of the root attributes for every lookup.
func ResolveAttrs(raw zarr.Attributes) (*Attrs, error) {
	resolved := raw
	kind := V2Attrs

	if nested, ok := raw["ome"]; ok {
		var inner zarr.Attributes
		if err := json.Unmarshal(nested, &inner); err != nil {
			return nil, fmt.Errorf("invalid \"ome\" attributes: %w", err)
		}
		resolved = inner
		kind = V3WithOme
	}

	// Re-encode so one decode handles both shapes
	data, err := json.Marshal(resolved)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid NGFF attributes: %w", err)
	}

	attrs := &Attrs{
		Kind:                 kind,
		Version:              doc.Version,
		Multiscales:          doc.Multiscales,
		Omero:                doc.Omero,
		Plate:                doc.Plate,
		Well:                 doc.Well,
		ImageLabel:           doc.ImageLabel,
		Labels:               doc.Labels,
		Series:               doc.Series,
		Bioformats2rawLayout: doc.Bioformats2rawLayout,
		Raw:                  resolved,
	}
	if attrs.Version == "" && len(doc.Multiscales) > 0 {
		attrs.Version = doc.Multiscales[0].Version
	}
	if kind == V2Attrs && !attrs.hasNGFFKeys() {
		attrs.Kind = PlainGroupAttrs
	}
	return attrs, nil
}

func (a *Attrs) hasNGFFKeys() bool {
	return a.Multiscales != nil || a.Omero != nil || a.Plate != nil || a.Well != nil ||
		a.ImageLabel != nil || a.Labels != nil || a.Series != nil || a.Bioformats2rawLayout != nil
}

// IsPlate reports an OME plate container
func (a *Attrs) IsPlate() bool { return a.Plate != nil }

// IsWell reports an OME well group
func (a *Attrs) IsWell() bool { return a.Well != nil }

// IsMultiscales reports a group holding at least one pyramid
func (a *Attrs) IsMultiscales() bool { return len(a.Multiscales) > 0 }

// IsBioformats2raw reports a bioformats2raw container
func (a *Attrs) IsBioformats2raw() bool { return a.Bioformats2rawLayout != nil }

// IsImageLabel reports a label image group
func (a *Attrs) IsImageLabel() bool { return a.ImageLabel != nil && a.IsMultiscales() }

// HasOmero reports whether rendering settings are available
func (a *Attrs) HasOmero() bool { return a.Omero != nil && len(a.Omero.Channels) > 0 }

// Axes returns the axes of the first multiscale, or nil
func (a *Attrs) Axes() []Axis {
	if len(a.Multiscales) == 0 {
		return nil
	}
	return a.Multiscales[0].Axes
}
