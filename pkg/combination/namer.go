package combination

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const (
	DefaultReplacement = "-"
	DefaultExtension   = ".yml"
)

// Namer derives identifiers and filenames from combinations.
type Namer struct {
	// Replacement substitutes every rune that is not a letter, a digit or a hyphen.
	Replacement string
	// Extension is appended to identifiers to build filenames.
	Extension string
}

// DefaultNamer replaces unsafe runes with a hyphen and writes YAML files.
func DefaultNamer() Namer {
	return Namer{Replacement: DefaultReplacement, Extension: DefaultExtension}
}

// FileSafe replaces unsafe runes and lowercases the result.
func (n Namer) FileSafe(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)

			continue
		}
		b.WriteString(n.Replacement)
	}

	return strings.ToLower(b.String())
}

// Name returns the identifier of combi at sequence position index.
func (n Namer) Name(index int, combi Combination) string {
	return fmt.Sprintf("p%03d_base-%s_perturb-%s_step-%s_conn-%s_nuisance-%s",
		index,
		n.FileSafe(combi.Base.Label),
		n.FileSafe(combi.Perturb.Label),
		n.FileSafe(combi.Step.Name),
		n.FileSafe(combi.ConnectivityMethod),
		n.FileSafe(strconv.FormatBool(combi.NuisanceCorrection)),
	)
}

// Filename returns Name followed by the extension.
func (n Namer) Filename(index int, combi Combination) string {
	return n.Name(index, combi) + n.Extension
}
