package dialogue

import "regexp"

// \w is widened to Unicode letters and digits so that addresses such as
// "олена@пошта.укр" are accepted as word characters.
var emailRe = regexp.MustCompile(`^[\p{L}\p{N}_.-]+@[\p{L}\p{N}_.-]+\.[\p{L}\p{N}_]+$`)

// ValidEmail is a purely syntactic check. No normalization is applied.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}
