package db

import (
	"errors"

	"github.com/CleanExpo/LocalLift-sub000/pkg/errutil"

	"gorm.io/gorm"
)

// Classify maps a gorm failure to the error taxonomy. Missing rows become
// NotFound, everything else is a transient store failure.
func Classify(msg string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errutil.NotFound(msg, err)
	}
	var be errutil.BaseError
	if errors.As(err, &be) {
		return err
	}
	return errutil.StoreUnavailable(msg, err)
}
