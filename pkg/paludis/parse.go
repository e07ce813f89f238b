package paludis

import (
	"fmt"
	"regexp"
	"strings"

	perrors "github.com/bdwyertech/go-paludis/pkg/errors"
)

// nameVersionRegex splits "cat/pkg-1.2_rc1-r3" into name and version
var nameVersionRegex = regexp.MustCompile(`^([^/]+/[^/]+?)-([0-9][0-9.]*(?:_(?:alpha|beta|pre|rc)[0-9]*)*(?:-r[0-9]+)?)$`)

// ParsePackageDepSpec parses the user form of a package spec:
//
//	[op]cat/pkg[-version][:slot][::repo][[flag,-flag]]
func ParsePackageDepSpec(s string) (PackageDepSpec, error) {
	var spec PackageDepSpec
	text := strings.TrimSpace(s)
	if text == "" {
		return spec, perrors.NewParsingError("empty package spec", nil)
	}

	if strings.HasSuffix(text, "]") {
		open := strings.LastIndex(text, "[")
		if open < 0 {
			return spec, specError(s, "unbalanced '['", nil)
		}
		for _, flag := range strings.Split(text[open+1:len(text)-1], ",") {
			flag = strings.TrimSpace(flag)
			if flag == "" {
				return spec, specError(s, "empty choice requirement", nil)
			}
			req := ChoiceRequirement{Flag: flag, Enabled: true}
			if strings.HasPrefix(flag, "-") {
				req = ChoiceRequirement{Flag: flag[1:], Enabled: false}
			}
			spec.Choices = append(spec.Choices, req)
		}
		text = text[:open]
	}

	if i := strings.Index(text, "::"); i >= 0 {
		spec.InRepository = RepositoryName(text[i+2:])
		if spec.InRepository == "" {
			return spec, specError(s, "empty repository", nil)
		}
		text = text[:i]
	}

	if i := strings.Index(text, ":"); i >= 0 {
		slot := SlotName(text[i+1:])
		if slot == "" {
			return spec, specError(s, "empty slot", nil)
		}
		spec.Slot = &slot
		text = text[:i]
	}

	var op VersionOperator
	for _, o := range versionOperators {
		if strings.HasPrefix(text, string(o)) {
			op = o
			text = text[len(o):]
			break
		}
	}

	if op != "" {
		match := nameVersionRegex.FindStringSubmatch(text)
		if match == nil {
			return spec, specError(s, fmt.Sprintf("operator %q needs a version", op), nil)
		}
		req, err := NewVersionRequirement(op, match[2])
		if err != nil {
			return spec, specError(s, "bad version", err)
		}
		spec.Version = req
		text = match[1]
	}

	name, err := NewQualifiedPackageName(text)
	if err != nil {
		return spec, specError(s, "bad package name", err)
	}
	spec.Name = name
	return spec, nil
}

func specError(s, problem string, cause error) error {
	return perrors.NewParsingError(fmt.Sprintf("invalid package spec %q: %s", s, problem), cause).
		WithContext("spec", s)
}

// MustParsePackageDepSpec parses a spec and panics on error
func MustParsePackageDepSpec(s string) PackageDepSpec {
	spec, err := ParsePackageDepSpec(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// ParsePackageOrBlockDepSpec parses a package spec optionally prefixed by "!" or "!!"
func ParsePackageOrBlockDepSpec(s string) (PackageOrBlockDepSpec, error) {
	text := strings.TrimSpace(s)
	strong := strings.HasPrefix(text, "!!")
	switch {
	case strong:
		text = text[2:]
	case strings.HasPrefix(text, "!"):
		text = text[1:]
	default:
		spec, err := ParsePackageDepSpec(text)
		if err != nil {
			return PackageOrBlockDepSpec{}, err
		}
		return PackageSpec(spec), nil
	}

	spec, err := ParsePackageDepSpec(text)
	if err != nil {
		return PackageOrBlockDepSpec{}, perrors.NewParsingError(fmt.Sprintf("invalid block %q", s), err).
			WithContext("spec", s)
	}
	return BlockSpec(BlockDepSpec{Blocking: spec, Strong: strong}), nil
}

// MustParsePackageOrBlockDepSpec parses a spec and panics on error
func MustParsePackageOrBlockDepSpec(s string) PackageOrBlockDepSpec {
	spec, err := ParsePackageOrBlockDepSpec(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// IsSetName reports whether a target string names a set rather than a package
func IsSetName(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.ContainsAny(s, "/!<>=~[") && namePartRegex.MatchString(strings.SplitN(s, "::", 2)[0])
}
