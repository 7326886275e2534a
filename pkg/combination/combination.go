package combination

// Combination is one point of the parameter space. It only holds identities and parameters, never document content.
type Combination struct {
	Base               Pipeline
	Perturb            Pipeline
	Step               MergeStep
	ConnectivityMethod string
	NuisanceCorrection bool
}

// IsSelfMerge reports whether base and perturbation resolve to the same pipeline.
func (c Combination) IsSelfMerge() bool {
	return c.Base.ID == c.Perturb.ID
}

// Indexed pairs a combination with its sequence number.
type Indexed struct {
	Index       int
	Combination Combination
}

// Enumerate returns the full Cartesian product of the catalog, in nested order:
// base pipeline, perturbation pipeline, step, connectivity method, nuisance flag.
func Enumerate(c Catalog) []Combination {
	total := len(c.Pipelines) * len(c.Pipelines) * len(c.Steps) * len(c.ConnectivityMethods) * len(c.NuisanceFlags)
	out := make([]Combination, 0, total)
	for _, base := range c.Pipelines {
		for _, perturb := range c.Pipelines {
			for _, step := range c.Steps {
				for _, method := range c.ConnectivityMethods {
					for _, nuisance := range c.NuisanceFlags {
						out = append(out, Combination{
							Base:               base,
							Perturb:            perturb,
							Step:               step,
							ConnectivityMethod: method,
							NuisanceCorrection: nuisance,
						})
					}
				}
			}
		}
	}

	return out
}

// Distinct drops the combinations merging a pipeline into itself, keeping the order of the others.
// The comparison is on identifiers, so two labels sharing an identifier are self merges too.
func Distinct(combis []Combination) []Combination {
	out := make([]Combination, 0, len(combis))
	for _, combi := range combis {
		if combi.IsSelfMerge() {
			continue
		}
		out = append(out, combi)
	}

	return out
}

// EnumerateDistinct is Enumerate followed by Distinct.
func EnumerateDistinct(c Catalog) []Combination {
	return Distinct(Enumerate(c))
}

// Number assigns sequence indices, starting at 0, in slice order.
func Number(combis []Combination) []Indexed {
	out := make([]Indexed, len(combis))
	for i, combi := range combis {
		out[i] = Indexed{Index: i, Combination: combi}
	}

	return out
}
