package runtime

import (
	"errors"

	werrors "github.com/vango-go/weft/internal/errors"
)

// Setup errors are returned before any render, wrapped in a coded
// *errors.Error. Match them with errors.Is.
var (
	// ErrMountNotFound is returned by Mount when no element matches the
	// selector.
	ErrMountNotFound = errors.New("runtime: mount target not found")

	// ErrDuplicateComponent is returned by Registry.Define for a name
	// that is already defined.
	ErrDuplicateComponent = errors.New("runtime: component already defined")

	// ErrInvalidComponentName is returned by Registry.Define for a name
	// that is not a valid custom element name.
	ErrInvalidComponentName = errors.New("runtime: invalid component name")

	// ErrNilApp is returned by New when Init, Update or View is nil.
	ErrNilApp = errors.New("runtime: app is missing init, update or view")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("runtime: already started")

	// ErrUnknownComponent is returned by Registry.Upgrade for a host
	// whose tag was never defined.
	ErrUnknownComponent = errors.New("runtime: unknown component")
)

// Assert panics with a coded error when cond is false. The panic value
// is an *errors.Error (E020) locating the caller and carrying value. The
// runtime does not recover it.
func Assert(cond bool, value any, msg string) {
	if cond {
		return
	}
	panic(werrors.New("E020").
		WithCaller(1).
		WithValue(value).
		WithDetail(msg))
}
