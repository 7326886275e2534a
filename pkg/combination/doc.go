// Package combination enumerates the parameter space of generated pipelines and names each point of it.
//
// A Catalog holds the static tables: the pipelines (label to identifier), the merge steps and the sweep values.
// Enumerate walks their Cartesian product in a fixed nested order (base, perturbation, step, connectivity method,
// nuisance flag) so that the position of a combination in the result is stable for a given catalog. Distinct drops
// the combinations whose base and perturbation resolve to the same pipeline identifier.
//
// A Namer turns a combination and its position into an identifier such as
//
//	p007_base-abcd_perturb-rbc_step-functional-masking_conn-nilearn_nuisance-false
//
// and a filename carrying the serialization extension.
package combination
