package schema

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a stable hash of the type structure. Two graphs with
// the same types, fields, arguments and possible types share a fingerprint
// regardless of the order the server listed the types in.
func (g *Graph) Fingerprint() string {
	names := g.Names()
	sort.Strings(names)

	d := xxhash.New()
	for _, name := range names {
		t := g.types[name]
		_, _ = fmt.Fprintf(d, "%s %s\n", t.Kind, t.Name)
		for _, f := range t.Fields {
			_, _ = fmt.Fprintf(d, "\t%s: %s\n", f.Name, f.Type)
			for _, arg := range f.Args {
				_, _ = fmt.Fprintf(d, "\t\t%s: %s", arg.Name, arg.Type)
				if arg.DefaultValue != nil {
					_, _ = fmt.Fprintf(d, " = %s", *arg.DefaultValue)
				}
				_, _ = d.WriteString("\n")
			}
		}
		possible := make([]string, 0, len(t.PossibleTypes))
		for _, p := range t.PossibleTypes {
			possible = append(possible, p.Name)
		}
		sort.Strings(possible)
		for _, p := range possible {
			_, _ = fmt.Fprintf(d, "\t| %s\n", p)
		}
	}
	return fmt.Sprintf("%016x", d.Sum64())
}
