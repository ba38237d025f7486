package kicad

import "github.com/chazu/fission/pkg/sexp"

// The file format drifts across design-suite releases. Rather than
// branching on the version throughout the projection code, a chain of
// adapters rewrites one release's quirks into the current shape
// before projection runs. Each adapter is keyed by the detected
// format version and edits the generic tree in place.
type adapter struct {
	name      string
	applies   func(version int) bool
	normalize func(root *sexp.Node)
}

var adapters = []adapter{
	{
		// Releases before 2020-08 call footprints "module".
		name:      "module-to-footprint",
		applies:   func(v int) bool { return v > 0 && v < 20200829 },
		normalize: renameModules,
	},
	{
		// Releases before the 6.x format carry the reference as
		// (fp_text reference "J1" ...) instead of a property node.
		name:      "fp_text-reference-to-property",
		applies:   func(v int) bool { return v > 0 && v < 20211014 },
		normalize: liftReferenceProperties,
	},
}

// normalizeTree runs every applicable adapter for the detected
// version, in declaration order.
func normalizeTree(root *sexp.Node, version int) {
	for _, a := range adapters {
		if a.applies(version) {
			a.normalize(root)
		}
	}
}

func renameModules(root *sexp.Node) {
	for _, n := range root.FindAll("module") {
		n.Children[0].Text = "footprint"
	}
}

func liftReferenceProperties(root *sexp.Node) {
	for _, fp := range root.FindAll("footprint") {
		if propertyValue(fp, "Reference") != "" {
			continue
		}
		for _, ft := range fp.FindAll("fp_text") {
			if ft.Str(0) != "reference" || ft.Str(1) == "" {
				continue
			}
			fp.Children = append(fp.Children, &sexp.Node{
				Kind: sexp.KindList,
				Pos:  ft.Pos,
				Children: []*sexp.Node{
					{Kind: sexp.KindAtom, Pos: ft.Pos, Text: "property"},
					{Kind: sexp.KindString, Pos: ft.Pos, Text: "Reference"},
					{Kind: sexp.KindString, Pos: ft.Pos, Text: ft.Str(1)},
				},
			})
			break
		}
	}
}
