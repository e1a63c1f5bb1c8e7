package history

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/crypto/blake2b"
)

// contextLines is the number of unchanged lines around each hunk.
const contextLines = 3

// FileDiff is the unified diff of one changed file.
type FileDiff struct {
	Name    string
	Unified string
}

// Result is the comparison of two snapshots.
type Result struct {
	// From and To are the labels of the older and newer snapshot.
	From string
	To   string

	Added   []string
	Removed []string
	Changed []FileDiff
}

// Empty reports whether the snapshots are equivalent.
func (r *Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Diff compares two sets of output files. Files present in both are
// scrubbed before comparison.
func Diff(older, newer map[string][]byte) (*Result, error) {
	names := make(map[string]struct{}, len(older)+len(newer))
	for n := range older {
		names[n] = struct{}{}
	}
	for n := range newer {
		names[n] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	res := &Result{}
	for _, name := range sorted {
		a, inOld := older[name]
		b, inNew := newer[name]
		switch {
		case !inOld:
			res.Added = append(res.Added, name)
		case !inNew:
			res.Removed = append(res.Removed, name)
		default:
			aText, bText := Scrub(a), Scrub(b)
			if aText == bText {
				continue
			}
			unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(aText),
				B:        difflib.SplitLines(bText),
				FromFile: "a/" + name,
				ToFile:   "b/" + name,
				Context:  contextLines,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to diff %s: %w", name, err)
			}
			res.Changed = append(res.Changed, FileDiff{Name: name, Unified: unified})
		}
	}
	return res, nil
}

// Digest returns a BLAKE2b-256 digest of a set of files. It depends on
// file names and raw contents only, not on map order.
func Digest(files map[string][]byte) string {
	h, err := blake2b.New256(nil)
	if err != nil {
		// New256 only fails for keys longer than 64 bytes.
		panic(err)
	}

	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		fmt.Fprintf(h, "%s\x00%d\x00", n, len(files[n]))
		h.Write(files[n])
	}
	return hex.EncodeToString(h.Sum(nil))
}
