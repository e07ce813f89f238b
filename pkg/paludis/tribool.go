package paludis

import "fmt"

// Tribool is true, false or indeterminate
type Tribool int8

const (
	Indeterminate Tribool = iota
	True
	False
)

// TriboolOf converts a bool
func TriboolOf(b bool) Tribool {
	if b {
		return True
	}
	return False
}

// IsTrue reports whether the value is definitely true
func (t Tribool) IsTrue() bool { return t == True }

// IsFalse reports whether the value is definitely false
func (t Tribool) IsFalse() bool { return t == False }

// IsIndeterminate reports whether the value is neither true nor false
func (t Tribool) IsIndeterminate() bool { return t == Indeterminate }

func (t Tribool) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "indeterminate"
}

// ParseTribool is the inverse of String
func ParseTribool(s string) (Tribool, error) {
	switch s {
	case "true":
		return True, nil
	case "false":
		return False, nil
	case "indeterminate", "":
		return Indeterminate, nil
	}
	return Indeterminate, fmt.Errorf("invalid tribool %q", s)
}
