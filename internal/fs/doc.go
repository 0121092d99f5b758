// Package fs abstracts the file system so that storage code can be pointed
// at fault-injecting implementations in tests.
//
// Production code uses [Default], a [LocalFS]. Tests wrap it in a
// [FaultyFS] to make writes, syncs, closes or opens fail for files whose
// path contains a pattern:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("blockIndex", fs.Fault{FailOnSync: true})
package fs
