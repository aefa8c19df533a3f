package system

import "fmt"

// SaveStateVersionMismatchError reports that a save-state blob was produced
// by a different System version than this build expects, per spec
// section 7's error taxonomy.
type SaveStateVersionMismatchError struct {
	Found, Expected int
}

func (e *SaveStateVersionMismatchError) Error() string {
	return fmt.Sprintf("save state version mismatch: found %d, expected %d", e.Found, e.Expected)
}

// SaveStateCorruptError reports that a save-state blob failed to
// deserialize.
type SaveStateCorruptError struct {
	Reason string
}

func (e *SaveStateCorruptError) Error() string {
	return fmt.Sprintf("save state corrupt: %s", e.Reason)
}
