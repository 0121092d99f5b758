// Package lsh hashes integer vectors into bit signatures with random
// hyperplanes.
//
// Each hyperplane passes through the origin. Bit i of a signature is set
// when the vector lies strictly on the positive side of hyperplane i; a
// zero scalar product yields 0. Hyperplane components are drawn from a
// standard normal distribution, clamped to [-3, 3], scaled by 100 and
// rounded to integers.
package lsh
