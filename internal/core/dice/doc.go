// Package dice resolves dice pools into sun and skull symbols.
//
// A pool holds three counters: hero dice, red dice and black dice. Every unit
// rolls one six-sided face and the face maps to a symbol through a fixed table
// per die kind:
//
//	kind   5-6           3-4    1-2
//	hero   sun (+1 sun)  blank  skull (+1 skull)
//	red    skull (+1)    blank  skull (+1)
//	black  skull x2 (+2) blank  skull (+1)
//
// Faces come from a FaceSource so callers control randomness. Roll is the only
// entry point that draws faces.
package dice
