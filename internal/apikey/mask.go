package apikey

const (
	// MaskPrefix and MaskSuffix are the number of characters left visible
	// at each end of a masked key.
	MaskPrefix = 4
	MaskSuffix = 4

	// Redaction replaces the hidden middle regardless of how long it is.
	Redaction = "****"
)

// Masked is a display-safe projection of a secret.
type Masked string

func (m Masked) String() string { return string(m) }

// Mask returns secret with everything but the first and last four
// characters replaced by Redaction. Secrets shorter than eight characters
// are replaced entirely.
func Mask(secret string) Masked {
	r := []rune(secret)
	if len(r) < MaskPrefix+MaskSuffix {
		return Masked(Redaction)
	}
	return Masked(string(r[:MaskPrefix]) + Redaction + string(r[len(r)-MaskSuffix:]))
}
