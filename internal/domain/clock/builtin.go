package clock

import (
	_ "embed"
	"fmt"
	"path/filepath"

	"github.com/okian/epiclock/internal/domain/coefficient"
)

// Keys of the built-in models.
const (
	KeyHorvath  = "horvath"
	KeyPhenoAge = "phenoage"
)

// Probe counts of the published clocks.
const (
	HorvathProbes  = 353
	PhenoAgeProbes = 513
)

var (
	//go:embed coefficients/horvath.csv
	horvathCoefficients []byte

	//go:embed coefficients/phenoage.csv
	phenoAgeCoefficients []byte
)

type builtin struct {
	key       string
	name      string
	resource  []byte
	adj       Adjustment
	published int
}

func builtins() []builtin {
	return []builtin{
		{key: KeyHorvath, name: "Horvath Clock", resource: horvathCoefficients, adj: AdjustHorvath, published: HorvathProbes},
		{key: KeyPhenoAge, name: "DNAm PhenoAge", resource: phenoAgeCoefficients, adj: AdjustIdentity, published: PhenoAgeProbes},
	}
}

// Horvath returns the pan-tissue clock of Horvath (2013).
func Horvath() (*Model, error) {
	return load(builtins()[0])
}

// PhenoAge returns the DNAm PhenoAge clock of Levine et al. (2018).
func PhenoAge() (*Model, error) {
	return load(builtins()[1])
}

// Builtin loads every built-in model from its embedded table.
func Builtin() (Set, error) {
	return BuiltinFrom("")
}

// BuiltinFrom loads the built-in models. When dir is non-empty each table is
// read from <dir>/<key>.csv instead of the embedded copy. The embedded tables
// hold a subset of the published probes and load as Partial models.
func BuiltinFrom(dir string) (Set, error) {
	defs := builtins()
	set := make(Set, 0, len(defs))
	for _, d := range defs {
		if dir != "" {
			table, err := coefficient.LoadFile(filepath.Join(dir, d.key+".csv"))
			if err != nil {
				return nil, fmt.Errorf("loading %s: %w", d.name, err)
			}
			m := New(d.key, d.name, table, d.adj)
			m.Published = d.published
			set = append(set, m)
			continue
		}
		m, err := load(d)
		if err != nil {
			return nil, err
		}
		set = append(set, m)
	}
	return set, nil
}

func load(d builtin) (*Model, error) {
	table, err := coefficient.Load(d.resource)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", d.name, err)
	}
	m := New(d.key, d.name, table, d.adj)
	m.Published = d.published
	return m, nil
}
