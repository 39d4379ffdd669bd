package loom

// noCopy prevents copying of values that embed it by implementing
// sync.Locker with no-op methods, so `go vet`'s copylocks check flags
// accidental copies. Same trick as sync.Mutex's own embedded noCopy
// field.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
