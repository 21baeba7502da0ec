// Package skeleton implements the Pair-Keyed ID Tree, the Subdivision
// Skeleton, and the Triangle Skeleton: a reference-counted DAG of
// vertices produced by pair-subdivision, plus the triangle groups built
// on top of it. Translated from
// original_source/src/planet-a/SubdivSkeleton.h (SubdivIdTree,
// SubdivSkeleton, SubdivTriangleSkeleton).
package skeleton

import "github.com/stellarforge/spacesim/internal/simcore"

// IdTree is a multitree DAG of reusable ids where a new id can be
// created from two other parent ids, keyed by the unordered pair
// (a, b). It extends simcore.Registry with parent back-references and a
// per-node child count.
//
// Unlike the original C++ SubdivIdTree, Remove is a hard
// LivenessViolation while a node's child count is non-zero: the source
// permitted orphaning an in-use node, but that breaks the ref-count
// invariants spec.md §3 describes, so this is the intentional behavioral
// tightening spec.md §9 calls out.
type IdTree struct {
	*simcore.Registry

	pairToChild map[uint64]uint32
	hasParents  []bool
	parentKey   []uint64 // canonical pair key, valid only where hasParents[id]
	childCount  []uint8
}

// NewIdTree constructs an empty tree.
func NewIdTree(noAutoResize bool) *IdTree {
	return &IdTree{
		Registry:    simcore.NewRegistry(noAutoResize),
		pairToChild: make(map[uint64]uint32),
	}
}

// canonicalKey packs the unordered pair (a, b) into a 64-bit key: the
// larger index in the low half, the smaller in the high half, per
// spec.md §4.2.
func canonicalKey(a, b uint32) uint64 {
	hi, lo := a, b
	if b > a {
		hi, lo = b, a
	}
	return uint64(hi) | (uint64(lo) << 32)
}

func (t *IdTree) grow() {
	n := int(t.Registry.SizeRequired())
	for len(t.hasParents) < n {
		t.hasParents = append(t.hasParents, false)
		t.parentKey = append(t.parentKey, 0)
		t.childCount = append(t.childCount, 0)
	}
}

// CreateRoot allocates an id with no parents.
func (t *IdTree) CreateRoot() (uint32, error) {
	id, err := t.Registry.Create()
	if err != nil {
		return 0, err
	}
	t.grow()
	return id, nil
}

// CreateOrGet canonicalizes (a, b) and returns the existing child id for
// that pair, or allocates one. fresh is true exactly once per unordered
// pair: the first call that creates it.
func (t *IdTree) CreateOrGet(a, b uint32) (id uint32, fresh bool, err error) {
	key := canonicalKey(a, b)
	if existing, ok := t.pairToChild[key]; ok {
		return existing, false, nil
	}

	id, err = t.CreateRoot()
	if err != nil {
		return 0, false, err
	}

	t.pairToChild[key] = id
	t.hasParents[id] = true
	t.parentKey[id] = key

	if err := t.bumpChildCount(a); err != nil {
		return 0, false, err
	}
	if err := t.bumpChildCount(b); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (t *IdTree) bumpChildCount(id uint32) error {
	if t.childCount[id] == 255 {
		return simcore.New(simcore.RefCountOverflow, "child count overflow for id %d", id)
	}
	t.childCount[id]++
	return nil
}

// Get looks up the child of (a, b) without creating it.
func (t *IdTree) Get(a, b uint32) (uint32, bool) {
	id, ok := t.pairToChild[canonicalKey(a, b)]
	return id, ok
}

// GetParents returns id's two parents. ok is false for root ids.
func (t *IdTree) GetParents(id uint32) (a, b uint32, ok bool) {
	if int(id) >= len(t.hasParents) || !t.hasParents[id] {
		return 0, 0, false
	}
	key := t.parentKey[id]
	hi := uint32(key & 0xFFFFFFFF)
	lo := uint32(key >> 32)
	return hi, lo, true
}

// ChildCount returns how many times id has been used as a parent.
func (t *IdTree) ChildCount(id uint32) uint8 {
	if int(id) >= len(t.childCount) {
		return 0
	}
	return t.childCount[id]
}

// Remove deletes id, provided its child count is zero (see the
// LivenessViolation tightening noted on IdTree). If id itself was
// produced from a pair, its former parents' child counts are
// decremented, and the pair→child mapping is forgotten so the pair can
// be recreated afresh later.
func (t *IdTree) Remove(id uint32) error {
	if t.ChildCount(id) > 0 {
		return simcore.New(simcore.LivenessViolation, "cannot remove id %d: child count is %d", id, t.ChildCount(id))
	}
	if err := t.Registry.Remove(id); err != nil {
		return err
	}
	if t.hasParents[id] {
		key := t.parentKey[id]
		delete(t.pairToChild, key)
		a := uint32(key & 0xFFFFFFFF)
		b := uint32(key >> 32)
		if t.childCount[a] > 0 {
			t.childCount[a]--
		}
		if a != b && t.childCount[b] > 0 {
			t.childCount[b]--
		}
		t.hasParents[id] = false
	}
	return nil
}
