package manifest

import (
	"fmt"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Diff renders a unified diff of the file lists of a and b. Only names are
// compared, so manifests resolved against different overlays diff cleanly.
// Identical lists produce an empty string.
func Diff(a, b *Manifest) string {
	from, to := listing(a), listing(b)
	if from == to {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(a.Label()), from, to)
	return fmt.Sprint(gotextdiff.ToUnified(a.Label(), b.Label(), from, edits))
}

func listing(m *Manifest) string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	writeEntry(&b, "system", m.SystemFile)
	for _, file := range m.Sources {
		writeEntry(&b, "source", file)
	}
	for _, file := range m.LinkerScripts {
		writeEntry(&b, "linker", file)
	}
	return b.String()
}

func writeEntry(b *strings.Builder, kind string, file File) {
	if file.Name == "" {
		return
	}
	b.WriteString(kind)
	b.WriteByte(' ')
	b.WriteString(file.Name)
	b.WriteByte('\n')
}
