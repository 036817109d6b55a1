package sqlstore

import "fmt"

// wrapDBError adds operation context to a driver error. Sentinel kinds from
// the storage package are attached at the call sites where the condition is
// known (missing row, duplicate id); everything wrapped here is a backend
// error.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
