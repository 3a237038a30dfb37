package anvil

import "errors"

var (
	ErrInvalidKey    = errors.New("spec: key must be an integer index or a name")
	ErrNotFound      = errors.New("spec: no element for this key")
	ErrDuplicateName = errors.New("spec: an element with this name already exists")

	// ErrInternalDuplicate is returned by batch insertions when the batch
	// itself contains the same element or the same name twice. The target
	// collection is left untouched.
	ErrInternalDuplicate = errors.New("spec: batch contains duplicate elements or names")

	ErrInvalidField  = errors.New("spec: field value out of domain")
	ErrTypeMismatch  = errors.New("spec: value has the wrong type")
	ErrEmptyPoolList = errors.New("spec: scheduler must have at least one pool")
	ErrMissingPool   = errors.New("spec: designated pool is not set")

	// ErrDanglingPool means a pool object is referenced somewhere in the
	// tree but was never registered in the owning execution spec.
	ErrDanglingPool = errors.New("spec: pool not registered in the execution spec")

	// ErrUnresolvedReference means a name or index in a document does not
	// resolve against the registry it is decoded with.
	ErrUnresolvedReference = errors.New("spec: reference does not resolve")

	ErrMalformedDocument = errors.New("spec: malformed document")

	ErrLaunchConfig = errors.New("launch: invalid options")
	ErrLaunchFailed = errors.New("launch: could not start the runtime process")
	ErrStopped      = errors.New("launch: deployment already stopped")

	ErrClientConfig = errors.New("client: invalid options")
	ErrNoEngine     = errors.New("client: an engine handle or a dialer is required")
)
