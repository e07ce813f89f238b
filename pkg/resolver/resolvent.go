package resolver

import (
	"fmt"
	"strings"

	"github.com/bdwyertech/go-paludis/pkg/paludis"
)

// DestinationType says where a resolvent's package ends up
type DestinationType string

const (
	DestinationInstallToSlash  DestinationType = "install_to_slash"
	DestinationCreateBinary    DestinationType = "create_binary"
	DestinationInstallToChroot DestinationType = "install_to_chroot"
)

var destinationTypes = []DestinationType{
	DestinationInstallToSlash,
	DestinationCreateBinary,
	DestinationInstallToChroot,
}

// ParseDestinationType validates a destination type name
func ParseDestinationType(s string) (DestinationType, error) {
	for _, t := range destinationTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown destination type %q", s)
}

// SlotNameOrNull is a slot, or no slot. A null slot either means the package has
// no slot at all, or (NullMeansUnknown) that we could not work out which slot was meant.
type SlotNameOrNull struct {
	Name             paludis.SlotName
	NullMeansUnknown bool
}

// Known reports whether a real slot name is held
func (s SlotNameOrNull) Known() bool {
	return s.Name != ""
}

func (s SlotNameOrNull) String() string {
	switch {
	case s.Name != "":
		return string(s.Name)
	case s.NullMeansUnknown:
		return "(unknown slot)"
	}
	return "(no slot)"
}

// Resolvent identifies one package name in one slot for one destination. It is the
// key every Resolution is filed under.
type Resolvent struct {
	Package         paludis.QualifiedPackageName
	Slot            SlotNameOrNull
	DestinationType DestinationType
}

// NewResolvent creates a resolvent for a known slot
func NewResolvent(name paludis.QualifiedPackageName, slot paludis.SlotName, dt DestinationType) Resolvent {
	return Resolvent{Package: name, Slot: SlotNameOrNull{Name: slot}, DestinationType: dt}
}

// ResolventForID creates the resolvent an ID would be installed as
func ResolventForID(id *paludis.PackageID, dt DestinationType) Resolvent {
	return NewResolvent(id.Name, id.Slot, dt)
}

// errorResolvent is used when no sensible slot can be found for a spec
func (r Resolvent) withDestination(dt DestinationType) Resolvent {
	r.DestinationType = dt
	return r
}

func errorResolvent(name paludis.QualifiedPackageName, dt DestinationType) Resolvent {
	return Resolvent{Package: name, Slot: SlotNameOrNull{NullMeansUnknown: true}, DestinationType: dt}
}

func (r Resolvent) String() string {
	return fmt.Sprintf("%s:%s::%s", r.Package, r.Slot, r.DestinationType)
}

// Compare orders resolvents by package, slot then destination type
func (r Resolvent) Compare(other Resolvent) int {
	if c := r.Package.Compare(other.Package); c != 0 {
		return c
	}
	if c := strings.Compare(string(r.Slot.Name), string(other.Slot.Name)); c != 0 {
		return c
	}
	if r.Slot.NullMeansUnknown != other.Slot.NullMeansUnknown {
		if r.Slot.NullMeansUnknown {
			return 1
		}
		return -1
	}
	return strings.Compare(string(r.DestinationType), string(other.DestinationType))
}

// matchesSlot reports whether an ID lives in the resolvent's slot. Unknown slots
// match nothing.
func (r Resolvent) matchesSlot(id *paludis.PackageID) bool {
	if r.Slot.NullMeansUnknown {
		return false
	}
	return id.Name == r.Package && id.Slot == r.Slot.Name
}
