package combination

import (
	stderrors "errors"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/gen192/pkg/tree"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// Pipeline is an entry of the pipeline table.
type Pipeline struct {
	// Label is the short human name used in generated identifiers.
	Label string `yaml:"label"`
	// ID is the pipeline name declared inside the source document.
	ID string `yaml:"id"`
}

// MergeStep is a processing stage whose subtrees are transplanted from the perturbation pipeline.
type MergeStep struct {
	Name  string      `yaml:"name"`
	Paths []tree.Path `yaml:"-"`
}

type mergeStepFile struct {
	Name  string     `yaml:"name"`
	Paths []pathSpec `yaml:"paths"`
}

// pathSpec accepts either a dot separated string or a list of keys.
type pathSpec tree.Path

func (p *pathSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*p = pathSpec(tree.ParsePath(value.Value))

		return nil
	case yaml.SequenceNode:
		var keys []string
		err := value.Decode(&keys)
		if err != nil {
			return errors.Wrapf(err, "line %d", value.Line)
		}
		*p = pathSpec(keys)

		return nil
	default:
		return errors.Errorf("line %d: path must be a string or a list of keys", value.Line)
	}
}

// UnmarshalYAML decodes a step whose paths are written as strings or key lists.
func (s *MergeStep) UnmarshalYAML(value *yaml.Node) error {
	var raw mergeStepFile
	err := value.Decode(&raw)
	if err != nil {
		return err
	}
	s.Name = raw.Name
	s.Paths = make([]tree.Path, len(raw.Paths))
	for i, p := range raw.Paths {
		s.Paths[i] = tree.Path(p)
	}

	return nil
}

// MarshalYAML renders paths as dot separated strings.
func (s MergeStep) MarshalYAML() (any, error) {
	paths := make([]string, len(s.Paths))
	for i, p := range s.Paths {
		paths[i] = p.String()
	}

	return struct {
		Name  string   `yaml:"name"`
		Paths []string `yaml:"paths"`
	}{Name: s.Name, Paths: paths}, nil
}

// Catalog holds the static tables driving the enumeration. Order matters: it defines the sequence indices.
type Catalog struct {
	Pipelines           []Pipeline  `yaml:"pipelines"`
	Steps               []MergeStep `yaml:"steps"`
	ConnectivityMethods []string    `yaml:"connectivity_methods"`
	NuisanceFlags       []bool      `yaml:"nuisance_flags"`
}

// DefaultCatalog returns the built-in tables for the C-PAC perturbation study.
func DefaultCatalog() Catalog {
	return Catalog{
		Pipelines: []Pipeline{
			{Label: "ABCD", ID: "cpac_abcd-options"},
			{Label: "CCS", ID: "cpac_ccs-options"},
			{Label: "RBC", ID: "RBCv0"},
			{Label: "fMRIPrep", ID: "cpac_fmriprep-options"},
		},
		Steps: []MergeStep{
			{Name: "Structural Masking", Paths: []tree.Path{{"anatomical_preproc"}}},
			{Name: "Structural Registration", Paths: []tree.Path{{"registration_workflows", "anatomical_registration"}}},
			{Name: "Functional Masking", Paths: []tree.Path{{"functional_preproc", "func_masking"}}},
			{Name: "Functional Registration", Paths: []tree.Path{{"registration_workflows", "functional_registration", "coregistration"}}},
		},
		ConnectivityMethods: []string{"AFNI", "Nilearn"},
		NuisanceFlags:       []bool{true, false},
	}
}

// LoadCatalog decodes a YAML catalog and validates it.
func LoadCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&c)
	if err != nil {
		return Catalog{}, errors.Wrap(err, "unable to decode catalog")
	}

	err = c.Validate()
	if err != nil {
		return Catalog{}, err
	}

	return c, nil
}

// Validate reports every problem of the catalog at once.
func (c Catalog) Validate() error {
	var errs []error
	if len(c.Pipelines) == 0 {
		errs = append(errs, errors.Wrap(ErrInvalidCatalog, "no pipelines"))
	}
	labels := make(map[string]struct{}, len(c.Pipelines))
	for i, p := range c.Pipelines {
		if p.Label == "" || p.ID == "" {
			errs = append(errs, errors.Wrapf(ErrInvalidCatalog, "pipeline %d: label and id are required", i))
		}
		if _, ok := labels[p.Label]; ok {
			errs = append(errs, errors.Wrapf(ErrInvalidCatalog, "pipeline %d: duplicate label %q", i, p.Label))
		}
		labels[p.Label] = struct{}{}
	}

	if len(c.Steps) == 0 {
		errs = append(errs, errors.Wrap(ErrInvalidCatalog, "no steps"))
	}
	for i, s := range c.Steps {
		if s.Name == "" {
			errs = append(errs, errors.Wrapf(ErrInvalidCatalog, "step %d: name is required", i))
		}
		if len(s.Paths) == 0 {
			errs = append(errs, errors.Wrapf(ErrInvalidCatalog, "step %q: at least one path is required", s.Name))
		}
		for j, p := range s.Paths {
			if len(p) == 0 {
				errs = append(errs, errors.Wrapf(ErrInvalidCatalog, "step %q: path %d is empty", s.Name, j))
			}
		}
	}

	if len(c.ConnectivityMethods) == 0 {
		errs = append(errs, errors.Wrap(ErrInvalidCatalog, "no connectivity methods"))
	}
	if len(c.NuisanceFlags) == 0 {
		errs = append(errs, errors.Wrap(ErrInvalidCatalog, "no nuisance flags"))
	}

	return stderrors.Join(errs...)
}

// PipelineIDs returns the distinct pipeline identifiers in table order.
func (c Catalog) PipelineIDs() []string {
	seen := make(map[string]struct{}, len(c.Pipelines))
	ids := make([]string, 0, len(c.Pipelines))
	for _, p := range c.Pipelines {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}

	return ids
}
