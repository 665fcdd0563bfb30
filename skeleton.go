package arbor

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// frameStamps hands out unique frame stamps. Stamps are unique across
// collectors so a skeleton stamped by one collector is never mistaken as
// current by another.
var frameStamps atomic.Uint64

func nextFrameStamp() uint64 {
	return frameStamps.Add(1)
}

var skeletonIDCounter uint32

// Skeleton drives skinned meshes from a list of bone nodes. BoneMatrices
// holds boneWorld * boneInverse per bone after Update.
type Skeleton struct {
	ID           uint32
	Bones        []*Node
	BoneInverses []mgl32.Mat4
	BoneMatrices []mgl32.Mat4

	// UpdateCount counts bone matrix recomputations.
	UpdateCount int

	frame uint64
}

// NewSkeleton creates a skeleton over bones. When inverses is nil they are
// computed from the bones' current world matrices.
func NewSkeleton(bones []*Node, inverses []mgl32.Mat4) *Skeleton {
	skeletonIDCounter++
	s := &Skeleton{
		ID:           skeletonIDCounter,
		Bones:        bones,
		BoneMatrices: make([]mgl32.Mat4, len(bones)),
	}
	if len(inverses) == len(bones) {
		s.BoneInverses = inverses
	} else {
		if inverses != nil {
			Logger().Warn("arbor: bone inverse count mismatch, recomputing",
				"bones", len(bones), "inverses", len(inverses))
		}
		s.CalculateInverses()
	}
	return s
}

// CalculateInverses sets each bone inverse to the inverse of the bone's
// current world matrix.
func (s *Skeleton) CalculateInverses() {
	s.BoneInverses = make([]mgl32.Mat4, len(s.Bones))
	for i, b := range s.Bones {
		if b == nil {
			s.BoneInverses[i] = mgl32.Ident4()
			continue
		}
		b.UpdateWorldMatrix()
		s.BoneInverses[i] = invertOrIdentity(b.worldMatrix, "Skeleton.CalculateInverses")
	}
}

// Update recomputes BoneMatrices from the bones' world matrices.
func (s *Skeleton) Update() {
	for i, b := range s.Bones {
		if b == nil {
			s.BoneMatrices[i] = mgl32.Ident4()
			continue
		}
		s.BoneMatrices[i] = b.worldMatrix.Mul4(s.BoneInverses[i])
	}
	s.UpdateCount++
}

// updateForFrame recomputes the bone matrices unless they were already
// computed for stamp.
func (s *Skeleton) updateForFrame(stamp uint64) bool {
	if s.frame == stamp {
		return false
	}
	s.Update()
	s.frame = stamp
	return true
}

// Bone returns the bone named name, or nil.
func (s *Skeleton) Bone(name string) *Node {
	for _, b := range s.Bones {
		if b != nil && b.Name == name {
			return b
		}
	}
	return nil
}
