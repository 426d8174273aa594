package helpers

import (
	"strings"

	"github.com/juju/errors"
)

// FoldErrors joins non-nil errors into one, nil if nothing left.
func FoldErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	ss := make([]string, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			ss = append(ss, e.Error())
		}
	}
	switch len(ss) {
	case 0:
		return nil
	case 1:
		for _, e := range errs {
			if e != nil {
				return e
			}
		}
	}
	return errors.New(strings.Join(ss, "\n"))
}

// Recovered converts recover() result into error, nil stays nil.
func Recovered(x interface{}) error {
	switch v := x.(type) {
	case nil:
		return nil
	case error:
		return errors.Annotate(v, "panic")
	default:
		return errors.Errorf("panic: %v", v)
	}
}
