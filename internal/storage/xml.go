package storage

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/planets/internal/universe"
)

const rootElement = "planets-3d-universe"

type xmlUniverse struct {
	XMLName xml.Name    `xml:"planets-3d-universe"`
	Planets []xmlPlanet `xml:"planet"`
}

type xmlPlanet struct {
	Mass     float64 `xml:"mass,attr"`
	Position xmlVec  `xml:"position"`
	Velocity xmlVec  `xml:"velocity"`
}

type xmlVec struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
	Z float64 `xml:"z,attr"`
}

func (v xmlVec) vec() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

func toXMLVec(v mgl64.Vec3) xmlVec { return xmlVec{X: v.X(), Y: v.Y(), Z: v.Z()} }

// LoadXML replaces the bodies of u with the ones in r. Velocities in the file
// are in UI units. On any error u is left untouched.
func LoadXML(r io.Reader, u *universe.Universe) (int, error) {
	dec := xml.NewDecoder(r)

	var start xml.StartElement
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, ErrNotUniverse
			}
			return 0, fmt.Errorf("%w: %v", ErrNotUniverse, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			start = se
			break
		}
	}
	if start.Name.Local != rootElement {
		return 0, fmt.Errorf("%w: root element is <%s>", ErrNotUniverse, start.Name.Local)
	}

	var doc xmlUniverse
	if err := dec.DecodeElement(&doc, &start); err != nil {
		return 0, fmt.Errorf("storage: parse universe: %w", err)
	}

	bodies := make([]universe.Body, 0, len(doc.Planets))
	for i, p := range doc.Planets {
		b := universe.Body{Position: p.Position.vec(), Mass: p.Mass}
		b.SetUIVelocity(p.Velocity.vec())
		if err := checkPlanet(b); err != nil {
			return 0, fmt.Errorf("storage: planet %d: %w", i, err)
		}
		bodies = append(bodies, b)
	}

	u.RemoveAll()
	for _, b := range bodies {
		if _, err := u.AddBody(b); err != nil {
			return 0, err
		}
	}
	return len(bodies), nil
}

// checkPlanet rejects non-positive masses and vectors whose squared length
// is not finite.
func checkPlanet(b universe.Body) error {
	switch {
	case !(b.Mass > 0) || math.IsInf(b.Mass, 0):
		return &universe.RangeError{Field: "mass", Value: b.Mass}
	case math.IsInf(b.Position.LenSqr(), 0) || math.IsNaN(b.Position.LenSqr()):
		return &universe.RangeError{Field: "position", Value: b.Position.Len()}
	case math.IsInf(b.Velocity.LenSqr(), 0) || math.IsNaN(b.Velocity.LenSqr()):
		return &universe.RangeError{Field: "velocity", Value: b.Velocity.Len()}
	}
	return nil
}

// SaveXML writes every body of u in ascending id order.
func SaveXML(w io.Writer, u *universe.Universe) error {
	doc := xmlUniverse{Planets: make([]xmlPlanet, 0, u.Len())}
	for _, b := range u.All() {
		doc.Planets = append(doc.Planets, xmlPlanet{
			Mass:     b.Mass,
			Position: toXMLVec(b.Position),
			Velocity: toXMLVec(b.UIVelocity()),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func LoadFile(path string, u *universe.Universe) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return LoadXML(f, u)
}

func SaveFile(path string, u *universe.Universe) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := SaveXML(f, u); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
