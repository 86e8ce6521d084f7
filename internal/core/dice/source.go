package dice

import "math/rand"

// FaceSource yields die faces. Implementations return values in [1, 6].
type FaceSource interface {
	Face() int
}

// FaceSourceFunc adapts a function to the FaceSource interface.
type FaceSourceFunc func() int

// Face implements FaceSource.
func (fn FaceSourceFunc) Face() int {
	return fn()
}

// RandSource draws uniform faces from a math/rand generator.
//
// RandSource is not safe for concurrent use; callers serialize access.
type RandSource struct {
	rng *rand.Rand
}

// NewRandSource returns a RandSource seeded with seed. The same seed yields the
// same face sequence.
func NewRandSource(seed int64) *RandSource {
	return &RandSource{rng: rand.New(rand.NewSource(seed))}
}

// NewRandSourceWithRng wraps an existing generator.
func NewRandSourceWithRng(rng *rand.Rand) *RandSource {
	return &RandSource{rng: rng}
}

// Face implements FaceSource.
func (s *RandSource) Face() int {
	return s.rng.Intn(MaxFace) + MinFace
}

// SequenceSource replays a fixed list of faces, cycling when exhausted.
// An empty sequence always yields MinFace.
type SequenceSource struct {
	faces []int
	next  int
}

// NewSequenceSource returns a SequenceSource over faces.
func NewSequenceSource(faces ...int) *SequenceSource {
	return &SequenceSource{faces: append([]int(nil), faces...)}
}

// Face implements FaceSource.
func (s *SequenceSource) Face() int {
	if len(s.faces) == 0 {
		return MinFace
	}
	face := s.faces[s.next%len(s.faces)]
	s.next++
	return face
}

// Drawn reports how many faces have been consumed.
func (s *SequenceSource) Drawn() int {
	return s.next
}
