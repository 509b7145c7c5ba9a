package vm

// Globals are the VM's imported globals, module `yara_x` per spec: filesize
// is mutable and rebound every scan, MatchingPatternsBitmapBase is fixed at
// construction time from the compiled rule set's bitmap layout.
type Globals struct {
	Filesize                   int64
	MatchingPatternsBitmapBase int32
}
