// Package paludis holds the value types shared by the repository layer and the resolver:
// package names, versions, package IDs, dependency specs, dependency trees and sets.
package paludis

import (
	"fmt"
	"regexp"
	"strings"
)

// QualifiedPackageName is a category/package pair such as "app-misc/foo"
type QualifiedPackageName struct {
	Category string
	Package  string
}

// SlotName names a slot. The empty slot is not valid for a real package.
type SlotName string

// SetName names a package set such as "world" or "system"
type SetName string

// RepositoryName names a repository
type RepositoryName string

var namePartRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9+_.-]*$`)

// NewQualifiedPackageName parses "cat/pkg"
func NewQualifiedPackageName(s string) (QualifiedPackageName, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return QualifiedPackageName{}, fmt.Errorf("invalid package name %q: expected category/package", s)
	}
	if !namePartRegex.MatchString(parts[0]) {
		return QualifiedPackageName{}, fmt.Errorf("invalid category %q in %q", parts[0], s)
	}
	if !namePartRegex.MatchString(parts[1]) {
		return QualifiedPackageName{}, fmt.Errorf("invalid package %q in %q", parts[1], s)
	}
	return QualifiedPackageName{Category: parts[0], Package: parts[1]}, nil
}

// MustQualifiedPackageName parses a name and panics on error
func MustQualifiedPackageName(s string) QualifiedPackageName {
	name, err := NewQualifiedPackageName(s)
	if err != nil {
		panic(err)
	}
	return name
}

// String returns "cat/pkg"
func (n QualifiedPackageName) String() string {
	return n.Category + "/" + n.Package
}

// IsZero reports whether the name is unset
func (n QualifiedPackageName) IsZero() bool {
	return n.Category == "" && n.Package == ""
}

// Compare orders names by category then package
func (n QualifiedPackageName) Compare(other QualifiedPackageName) int {
	if c := strings.Compare(n.Category, other.Category); c != 0 {
		return c
	}
	return strings.Compare(n.Package, other.Package)
}
