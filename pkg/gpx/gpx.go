// Package gpx renders recorded tracks as GPX 1.1 documents and writes them
// durably to the ride export directory.
package gpx

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/LukaGrunt/nabajk/pkg/ride"
)

const (
	creator = "NaBajk"
	xmlns   = "http://www.topografix.com/GPX/1/1"
)

var nameEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Render produces a GPX 1.1 document with one track and one segment holding
// the given points. Coordinates are written with 6 decimal places, elevation
// with 1 when present, and times in UTC. Deterministic for the same input.
func Render(points []ride.RecordedPoint, name string) []byte {
	var b bytes.Buffer

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<gpx version="1.1" creator="%s" xmlns="%s">`+"\n", creator, xmlns)
	b.WriteString("  <trk>\n")
	fmt.Fprintf(&b, "    <name>%s</name>\n", nameEscaper.Replace(name))
	b.WriteString("    <trkseg>\n")

	for _, p := range points {
		fmt.Fprintf(&b, "      <trkpt lat=\"%.6f\" lon=\"%.6f\">\n", p.Latitude, p.Longitude)
		if p.Altitude != nil {
			fmt.Fprintf(&b, "        <ele>%.1f</ele>\n", *p.Altitude)
		}
		fmt.Fprintf(&b, "        <time>%s</time>\n", p.Timestamp.UTC().Format(time.RFC3339))
		b.WriteString("      </trkpt>\n")
	}

	b.WriteString("    </trkseg>\n")
	b.WriteString("  </trk>\n")
	b.WriteString("</gpx>\n")

	return b.Bytes()
}
