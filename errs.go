package sdrgnss

import "errors"

/* errs.go : ambient — error kinds
*
* Kind-tagged sentinel errors, matching spec.md §7: not an exception
* hierarchy, just a small set of errors.Is-compatible sentinels that
* callers wrap with errors.Join / fmt.Errorf("%w", ...) as needed.
 */

var (
	ErrInsufficientObservables = errors.New("insufficient observables")
	ErrEphemerisUnavailable    = errors.New("ephemeris unavailable")
	ErrConvergenceFailure      = errors.New("pvt convergence failure")
	ErrLossOfLock              = errors.New("loss of lock")
	ErrConfigurationInvalid    = errors.New("configuration invalid")
	ErrIoFailure               = errors.New("io failure")
)
