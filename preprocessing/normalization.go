package preprocessing

import (
	"strings"

	"github.com/YuminosukeSato/robout/pkg/errors"
)

// Normalization selects the affine step applied after the sigmoid.
type Normalization int

const (
	// Standardize subtracts the mean and divides by the sample standard
	// deviation of the sigmoid output over the fitted rows.
	Standardize Normalization = iota
	// UnitInterval keeps the sigmoid output in [0, 1].
	UnitInterval
	// SignedUnitInterval maps the sigmoid output from [0, 1] to [-1, 1].
	SignedUnitInterval
)

var normalizationNames = [...]string{
	Standardize:        "standardize",
	UnitInterval:       "unit_interval",
	SignedUnitInterval: "signed_unit_interval",
}

// String returns the configuration name of the mode.
func (n Normalization) String() string {
	if n.Valid() {
		return normalizationNames[n]
	}
	return "unknown"
}

// Valid reports whether n is one of the three modes.
func (n Normalization) Valid() bool {
	return n >= Standardize && n <= SignedUnitInterval
}

// ParseNormalization accepts the mode names and the numeric codes "0", "1" and "2".
func ParseNormalization(s string) (Normalization, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range normalizationNames {
		if key == name {
			return Normalization(i), nil
		}
	}
	switch key {
	case "0":
		return Standardize, nil
	case "1":
		return UnitInterval, nil
	case "2":
		return SignedUnitInterval, nil
	}
	return 0, errors.NewInvalidConfigError("normalization",
		"must be one of standardize, unit_interval, signed_unit_interval (or 0, 1, 2)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (n Normalization) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, errors.NewInvalidConfigError("normalization", "unknown mode", int(n))
	}
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Normalization) UnmarshalText(text []byte) error {
	parsed, err := ParseNormalization(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// fixedAffine returns the post-normalization mean and scale of the modes that
// do not depend on the data.
func (n Normalization) fixedAffine() (mean, scale float64, ok bool) {
	switch n {
	case UnitInterval:
		return 0, 1, true
	case SignedUnitInterval:
		return 0.5, 0.5, true
	default:
		return 0, 0, false
	}
}
