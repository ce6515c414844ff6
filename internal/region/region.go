package region

import "sort"

// ID identifies one named region of the spatial domain on a single axis.
type ID int64

// Invalid is returned by resolvers for names that match nothing. It never
// appears in a valid mesh table.
const Invalid ID = -1

// Axis selects one of the two independent restriction dimensions.
type Axis int

const (
	Boundary Axis = iota // sidesets / surface regions
	Block                // subdomains / interior blocks
)

func (a Axis) String() string {
	switch a {
	case Boundary:
		return "boundary"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// Set is a restriction scope on one axis: either Universal (applies to every
// region) or a concrete set of IDs. The two states are exclusive; a concrete
// set never contains a sentinel value.
type Set struct {
	universal bool
	ids       map[ID]struct{}
}

// Universal returns the set that matches every region on its axis.
func Universal() Set {
	return Set{universal: true}
}

// Of builds a concrete set from the given IDs. With no IDs the result is the
// empty concrete set (which contains nothing), not Universal; defaulting an
// unconfigured restriction to Universal is the scope's job, not the set's.
func Of(ids ...ID) Set {
	m := make(map[ID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return Set{ids: m}
}

// IsUniversal reports whether the set matches everything.
func (s Set) IsUniversal() bool { return s.universal }

// IsEmpty reports whether the set is concrete and contains no IDs.
func (s Set) IsEmpty() bool { return !s.universal && len(s.ids) == 0 }

// Len returns the number of concrete IDs; 0 for a Universal set.
func (s Set) Len() int { return len(s.ids) }

// Contains reports membership. A Universal set contains every ID.
func (s Set) Contains(id ID) bool {
	if s.universal {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// ContainsAll reports whether every ID of other is in s. A Universal s
// contains anything; a Universal other is contained only by a Universal s.
func (s Set) ContainsAll(other Set) bool {
	if s.universal {
		return true
	}
	if other.universal {
		return false
	}
	for id := range other.ids {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

// ContainsAny reports whether at least one ID of other is in s. Either side
// being Universal matches.
func (s Set) ContainsAny(other Set) bool {
	if s.universal || other.universal {
		return true
	}
	for id := range other.ids {
		if _, ok := s.ids[id]; ok {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every ID of s is in other.
func (s Set) SubsetOf(other Set) bool {
	return other.ContainsAll(s)
}

// Union merges two sets. Universal absorbs everything.
func (s Set) Union(other Set) Set {
	if s.universal || other.universal {
		return Universal()
	}
	m := make(map[ID]struct{}, len(s.ids)+len(other.ids))
	for id := range s.ids {
		m[id] = struct{}{}
	}
	for id := range other.ids {
		m[id] = struct{}{}
	}
	return Set{ids: m}
}

// IDs returns the concrete IDs in ascending order; nil for a Universal set.
// Used for stable diagnostics and serialization.
func (s Set) IDs() []ID {
	if s.universal || len(s.ids) == 0 {
		return nil
	}
	out := make([]ID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
