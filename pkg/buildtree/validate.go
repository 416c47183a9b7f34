package buildtree

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/burl/pkg/space"
)

// Severity indicates whether a finding makes a document invalid or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // document is invalid
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding describes a single validation finding.
type Finding struct {
	Path     string // node path, empty for document-level findings
	Record   string // geometry record id, if any
	Message  string
	Severity Severity
}

func (f Finding) Error() string {
	switch {
	case f.Record != "":
		return fmt.Sprintf("[%s] %s record %s: %s", f.Severity, f.Path, f.Record, f.Message)
	case f.Path != "":
		return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Path, f.Message)
	}
	return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
}

// Report separates blocking findings from advisory ones.
type Report struct {
	Errors   []Finding
	Warnings []Finding
}

// OK reports whether the document has no errors.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs the structural checks on doc. It is read-only.
func Validate(doc *Document) Report {
	var findings []Finding
	if doc == nil || doc.Root == nil {
		return Report{Errors: []Finding{{Message: "document has no root", Severity: SeverityError}}}
	}
	findings = append(findings, validateIdentity(doc)...)
	findings = append(findings, validatePaths(doc)...)
	findings = append(findings, validateGeometry(doc)...)
	findings = append(findings, validateExtents(doc)...)

	var r Report
	for _, f := range findings {
		if f.Severity == SeverityWarning {
			r.Warnings = append(r.Warnings, f)
		} else {
			r.Errors = append(r.Errors, f)
		}
	}
	return r
}

// validateIdentity checks that node and record ids are unique across the
// document and that no record still lists a superseded record.
func validateIdentity(doc *Document) []Finding {
	var out []Finding
	nodes := make(map[string]string)
	records := make(map[string]string)
	_ = doc.Walk(func(n *NodeDoc) error {
		if n.ID == "" {
			out = append(out, Finding{Path: n.Path, Message: "node has no id", Severity: SeverityError})
		} else if prev, dup := nodes[n.ID]; dup {
			out = append(out, Finding{Path: n.Path,
				Message: fmt.Sprintf("node id %s already used by %s", n.ID, prev), Severity: SeverityError})
		}
		nodes[n.ID] = n.Path
		for _, g := range n.Geometry {
			if prev, dup := records[g.ID]; dup {
				out = append(out, Finding{Path: n.Path, Record: g.ID,
					Message: "record id already used under " + prev, Severity: SeverityError})
			}
			records[g.ID] = n.Path
		}
		return nil
	})
	_ = doc.Walk(func(n *NodeDoc) error {
		for _, g := range n.Geometry {
			if g.Replaces == "" {
				continue
			}
			if _, live := records[g.Replaces]; live {
				out = append(out, Finding{Path: n.Path, Record: g.ID,
					Message: "replaced record " + g.Replaces + " is still present", Severity: SeverityError})
			}
		}
		return nil
	})
	return out
}

// validatePaths checks the hierarchy: child paths extend their parent's,
// depths increase by one and the root sits at depth zero.
func validatePaths(doc *Document) []Finding {
	var out []Finding
	if doc.Root.Depth != 0 {
		out = append(out, Finding{Path: doc.Root.Path, Message: "root depth is not zero", Severity: SeverityError})
	}
	_ = doc.Walk(func(n *NodeDoc) error {
		for _, c := range n.Children {
			if !strings.HasPrefix(c.Path, n.Path+"/") {
				out = append(out, Finding{Path: c.Path,
					Message: "path does not extend parent path " + n.Path, Severity: SeverityError})
			}
			if c.Depth != n.Depth+1 {
				out = append(out, Finding{Path: c.Path,
					Message: fmt.Sprintf("depth %d under parent depth %d", c.Depth, n.Depth), Severity: SeverityError})
			}
		}
		if len(n.Geometry) == 0 && len(n.Children) == 0 {
			out = append(out, Finding{Path: n.Path, Message: "node produced nothing", Severity: SeverityWarning})
		}
		return nil
	})
	return out
}

// validateGeometry checks ownership and box sanity of every record.
func validateGeometry(doc *Document) []Finding {
	var out []Finding
	_ = doc.Walk(func(n *NodeDoc) error {
		for _, g := range n.Geometry {
			if g.Owner != n.ID {
				out = append(out, Finding{Path: n.Path, Record: g.ID,
					Message: "listed under a node that does not own it", Severity: SeverityError})
			}
			if err := checkBox(g.BBox); err != "" {
				out = append(out, Finding{Path: n.Path, Record: g.ID, Message: err, Severity: SeverityError})
				continue
			}
			if g.Volume <= space.Epsilon && g.Visible {
				out = append(out, Finding{Path: n.Path, Record: g.ID,
					Message: "visible record has no volume", Severity: SeverityWarning})
			}
		}
		return nil
	})
	return out
}

// validateExtents checks that every node extent covers its own geometry
// and, advisory only, its children. A child's extent can outgrow its parent
// when a later node replaces the child's geometry with a larger solid.
func validateExtents(doc *Document) []Finding {
	var out []Finding
	_ = doc.Walk(func(n *NodeDoc) error {
		if err := checkBox(n.BBox); err != "" {
			out = append(out, Finding{Path: n.Path, Message: "extent " + err, Severity: SeverityError})
			return nil
		}
		ext := n.BBox.Box()
		for _, g := range n.Geometry {
			if checkBox(g.BBox) == "" && !ext.Contains(g.BBox.Box()) {
				out = append(out, Finding{Path: n.Path, Record: g.ID,
					Message: "record lies outside its node extent", Severity: SeverityError})
			}
		}
		for _, c := range n.Children {
			if checkBox(c.BBox) == "" && !ext.Contains(c.BBox.Box()) {
				out = append(out, Finding{Path: c.Path,
					Message: "extent is not covered by parent " + n.Path, Severity: SeverityWarning})
			}
		}
		return nil
	})
	return out
}

func checkBox(b BoxDoc) string {
	for i := range 3 {
		lo, hi := b.Min[i], b.Max[i]
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return "box is not finite"
		}
		if lo > hi+space.Epsilon {
			return "box is inverted"
		}
	}
	return ""
}
