// Package crc32poly implements arithmetic over GF(2) polynomials reduced
// modulo the CRC-32 generator polynomial.
//
// Polynomials are represented as unsigned integers where bit i is the
// coefficient of x^i. All mod operations reduce by [Generator], the 33-bit
// form of the CRC-32 polynomial including the leading x^32 term. This is the
// algebra that lets a 4-byte patch force a string's CRC-32 to an arbitrary
// target in closed form instead of by search.
package crc32poly

import (
	"errors"
	"math/bits"
)

// Generator is the CRC-32 generator polynomial, including the leading term.
const Generator uint64 = 0x104C11DB7

// Sentinel errors for polynomial operations.
var (
	// ErrDivideByZero is returned when dividing by the zero polynomial.
	ErrDivideByZero = errors.New("crc32poly: division by zero polynomial")

	// ErrNoReciprocal is returned when an operand has no multiplicative
	// inverse modulo the generator. This cannot happen for powers of x
	// under a valid CRC-32 generator; callers should treat it as an
	// invariant violation.
	ErrNoReciprocal = errors.New("crc32poly: reciprocal does not exist")
)

// MulMod returns x*y reduced modulo the generator polynomial.
//
// Russian peasant multiplication: each step shifts x left, folds the
// generator back in when the product would exceed 32 bits, and accumulates
// into the result when the low bit of y is set. Both operands must already
// be reduced (degree < 33).
func MulMod(x, y uint64) uint64 {
	var z uint64
	for y != 0 {
		if y&1 != 0 {
			z ^= x
		}
		y >>= 1
		x <<= 1
		if (x>>32)&1 != 0 {
			x ^= Generator
		}
	}
	return z
}

// DivMod computes x divided by y over GF(2), returning the quotient and a
// remainder of degree less than the degree of y.
func DivMod(x, y uint64) (quotient, remainder uint64, err error) {
	if y == 0 {
		return 0, 0, ErrDivideByZero
	}
	if x == 0 {
		return 0, 0, nil
	}
	ydeg := bits.Len64(y) - 1
	var q uint64
	for i := bits.Len64(x) - 1 - ydeg; i >= 0; i-- {
		if (x>>(i+ydeg))&1 != 0 {
			x ^= y << i
			q |= 1 << i
		}
	}
	return q, x, nil
}

// PowMod returns base raised to exp, reduced modulo the generator
// polynomial, by square-and-multiply. exp must be non-negative.
func PowMod(base uint64, exp int) uint64 {
	z := uint64(1)
	for exp != 0 {
		if exp&1 != 0 {
			z = MulMod(z, base)
		}
		base = MulMod(base, base)
		exp >>= 1
	}
	return z
}

// ReciprocalMod returns the multiplicative inverse of x^exp modulo the
// generator polynomial, via the extended Euclidean algorithm specialized to
// GF(2) polynomials.
func ReciprocalMod(exp int) (uint64, error) {
	y := PowMod(2, exp)
	x := Generator
	var a, b uint64 = 0, 1
	for y != 0 {
		q, r, err := DivMod(x, y)
		if err != nil {
			return 0, err
		}
		c := a ^ MulMod(q, b)
		x, y = y, r
		a, b = b, c
	}
	if x != 1 {
		return 0, ErrNoReciprocal
	}
	return a, nil
}
