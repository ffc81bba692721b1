// Package captcha implements the step-up challenge issued before destructive
// operations. A caller must solve a small arithmetic problem in a second
// round trip before the guarded operation proceeds.
//
// The protocol deliberately has no attempt counting or lockout; a wrong
// answer simply rotates the challenge. Known hardening gap, kept as-is.
package captcha

import (
	"fmt"
	"math/rand/v2"
)

// Problem is one arithmetic challenge. The answer is always an integer in
// [1, 1000]; division problems never leave a remainder.
type Problem struct {
	Question string
	Answer   int
}

var operators = []string{"+", "-", "*", "/"}

// NewProblem generates a random problem over two operands in [1, 1000].
// Candidates whose result falls outside [1, 1000], or divisions with a
// remainder, are discarded and redrawn.
func NewProblem() Problem {
	for {
		a := rand.IntN(1000) + 1
		b := rand.IntN(1000) + 1
		op := operators[rand.IntN(len(operators))]

		var result int
		switch op {
		case "+":
			result = a + b
		case "-":
			result = a - b
		case "*":
			result = a * b
		case "/":
			if a%b != 0 {
				continue
			}
			result = a / b
		}

		if result < 1 || result > 1000 {
			continue
		}
		return Problem{
			Question: fmt.Sprintf("%d %s %d = ", a, op, b),
			Answer:   result,
		}
	}
}
