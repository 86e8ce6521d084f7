// Package check resolves opposed sun/skull tallies into a success verdict.
package check

// Succeeds reports whether suns hold off skulls. Ties favor the hero.
func Succeeds(suns, skulls int) bool {
	return skulls <= suns
}

// Margin returns suns minus skulls. Negative values indicate failure.
func Margin(suns, skulls int) int {
	return suns - skulls
}

// Result represents the verdict of a forced roll.
type Result struct {
	Success bool `json:"success"`
	Margin  int  `json:"margin"`
}

// Resolve compares the tallies of a roll and returns the verdict.
func Resolve(suns, skulls int) Result {
	return Result{
		Success: Succeeds(suns, skulls),
		Margin:  Margin(suns, skulls),
	}
}
