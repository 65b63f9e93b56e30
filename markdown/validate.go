package markdown

import "regexp"

var denylist = []struct {
	name string
	re   *regexp.Regexp
}{
	{"script tag", regexp.MustCompile(`(?i)<\s*script`)},
	{"javascript url", regexp.MustCompile(`(?i)javascript\s*:`)},
	{"event handler attribute", regexp.MustCompile(`(?i)<[a-z!/][^>]*[\s/"']on[a-z]+\s*=`)},
}

// Validate rejects input matching the denylist with a *SecurityError.
func Validate(src string) error {
	for _, d := range denylist {
		if loc := d.re.FindStringIndex(src); loc != nil {
			return &SecurityError{Pattern: d.name, Offset: loc[0]}
		}
	}
	return nil
}
