package classify

import (
	"errors"
	"fmt"
)

var (
	// ErrNoText text extraction produced nothing to classify
	ErrNoText = errors.New("no extracted text")
	// ErrNoEntities the entity detector found nothing to build a profile from
	ErrNoEntities = errors.New("no entities detected")
	// ErrProviderUnavailable a stage was enabled without a configured provider
	ErrProviderUnavailable = errors.New("provider not configured")
)

// StageError is a fatal failure of a mandatory stage
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage of a StageError anywhere in err's chain
func FailedStage(err error) (State, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
