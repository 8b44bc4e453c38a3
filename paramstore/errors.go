package paramstore

import "fmt"

// InvalidParameterShape is returned by Sample.Set when a replacement value's
// shape does not match the group's declared schema (spec.md §4.1).
type InvalidParameterShape struct {
	Group  Group
	Reason string
}

func (e *InvalidParameterShape) Error() string {
	return fmt.Sprintf("invalid parameter shape for group %s: %s", e.Group, e.Reason)
}
