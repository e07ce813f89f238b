package paludis

import "fmt"

// VersionOperator is the comparison used by a VersionRequirement
type VersionOperator string

const (
	VersionOperatorEqual          VersionOperator = "="
	VersionOperatorGreaterOrEqual VersionOperator = ">="
	VersionOperatorGreater        VersionOperator = ">"
	VersionOperatorLessOrEqual    VersionOperator = "<="
	VersionOperatorLess           VersionOperator = "<"
	// VersionOperatorTilde matches any revision of the given version
	VersionOperatorTilde VersionOperator = "~"
)

// versionOperators is ordered so that two-character operators are tried first
var versionOperators = []VersionOperator{
	VersionOperatorGreaterOrEqual,
	VersionOperatorLessOrEqual,
	VersionOperatorEqual,
	VersionOperatorGreater,
	VersionOperatorLess,
	VersionOperatorTilde,
}

// VersionRequirement represents an operator and a version, such as ">= 1.2"
type VersionRequirement struct {
	Operator VersionOperator
	Version  *Version
}

// NewVersionRequirement creates a requirement from an operator and a version string
func NewVersionRequirement(op VersionOperator, v string) (*VersionRequirement, error) {
	if !op.valid() {
		return nil, fmt.Errorf("invalid version operator %q", op)
	}
	version, err := NewVersion(v)
	if err != nil {
		return nil, err
	}
	return &VersionRequirement{Operator: op, Version: version}, nil
}

// MustVersionRequirement creates a requirement and panics on error
func MustVersionRequirement(op VersionOperator, v string) *VersionRequirement {
	r, err := NewVersionRequirement(op, v)
	if err != nil {
		panic(err)
	}
	return r
}

// Check verifies if a version satisfies the requirement
func (r *VersionRequirement) Check(v *Version) bool {
	if r == nil {
		return true
	}
	if v == nil || v.Version == nil || r.Version == nil {
		return false
	}

	switch r.Operator {
	case VersionOperatorEqual:
		return v.Compare(r.Version) == 0
	case VersionOperatorGreaterOrEqual:
		return v.Compare(r.Version) >= 0
	case VersionOperatorGreater:
		return v.Compare(r.Version) > 0
	case VersionOperatorLessOrEqual:
		return v.Compare(r.Version) <= 0
	case VersionOperatorLess:
		return v.Compare(r.Version) < 0
	case VersionOperatorTilde:
		return v.CompareIgnoringRevision(r.Version) == 0
	}
	return false
}

// String returns the requirement in "op version" form
func (r *VersionRequirement) String() string {
	if r == nil {
		return ""
	}
	return string(r.Operator) + " " + r.Version.String()
}

func (op VersionOperator) valid() bool {
	for _, o := range versionOperators {
		if o == op {
			return true
		}
	}
	return false
}
