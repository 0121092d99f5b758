// Package vector defines the integer input vectors accepted by lshdb.
//
// Every vector carries a caller-assigned int32 id that must be unique within
// one database. Vectors expose both a dense view and an ordered sparse view;
// hashing always goes through the sparse view so that mostly-zero inputs are
// cheap.
//
//	v := vector.NewDense(7, []int32{0, 3, 0, 1})
//	s, _ := vector.NewSparse(8, 4, []int32{1, 3}, []int32{3, 1})
package vector
