package testutil

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/cs-au-dk/golisa/analysis/checks"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/go/expect"
	"golang.org/x/tools/go/packages"
)

// Expectation is a warning announced in the source by a note of the form
// //@ warn("check").
type Expectation struct {
	Check string
	File  string
	Line  int
}

func (e Expectation) String() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Check)
}

func (e Expectation) less(o Expectation) bool {
	switch {
	case e.File != o.File:
		return e.File < o.File
	case e.Line != o.Line:
		return e.Line < o.Line
	}
	return e.Check < o.Check
}

func sortExpectations(es []Expectation) {
	sort.Slice(es, func(i, j int) bool { return es[i].less(es[j]) })
}

// Expectations extracts the notes of the syntax trees of the packages.
func Expectations(t *testing.T, pkgs []*packages.Package) (res []Expectation) {
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			notes, err := expect.ExtractGo(pkg.Fset, file)
			if err != nil {
				t.Fatal(err)
			}

			for _, note := range notes {
				pos := pkg.Fset.Position(note.Pos)
				if note.Name != "warn" {
					t.Fatalf("Unknown note %s at %s", note.Name, pos)
				}

				for _, arg := range note.Args {
					check, ok := arg.(string)
					if !ok {
						t.Fatalf("Expected a check name at %s, got %v", pos, arg)
					}
					res = append(res, Expectation{check, filepath.Base(pos.Filename), pos.Line})
				}
			}
		}
	}
	sortExpectations(res)
	return
}

// expectationOf locates a warning. Warnings on nodes without a source
// position keep their location as file name, with line 0.
func expectationOf(w checks.Warning) Expectation {
	parts := strings.Split(w.Location, ":")
	if len(parts) >= 3 {
		if line, err := strconv.Atoi(parts[len(parts)-2]); err == nil {
			file := strings.Join(parts[:len(parts)-2], ":")
			return Expectation{w.Check, filepath.Base(file), line}
		}
	}
	return Expectation{w.Check, w.Location, 0}
}

// CheckWarnings compares the warnings with the notes of the packages, line
// by line.
func CheckWarnings(t *testing.T, pkgs []*packages.Package, warnings []checks.Warning) {
	exp := Expectations(t, pkgs)

	got := []Expectation{}
	seen := map[Expectation]bool{}
	for _, w := range warnings {
		if e := expectationOf(w); !seen[e] {
			seen[e] = true
			got = append(got, e)
		}
	}
	sortExpectations(got)

	if exp == nil {
		exp = []Expectation{}
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("Unexpected warnings (-want +got):\n%s", diff)
		for _, w := range warnings {
			t.Log(w)
		}
	}
}
