package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldErrors picks the specific sentinel for a failing request field.
var fieldErrors = map[string]error{
	"RiderID":       ErrInvalidRiderID,
	"DriverID":      ErrInvalidDriverID,
	"RideID":        ErrInvalidRideID,
	"OriginID":      ErrInvalidLocation,
	"DestinationID": ErrInvalidLocation,
	"LocationID":    ErrInvalidLocation,
	"CategoryID":    ErrInvalidCategory,
	"Method":        ErrInvalidPaymentMethod,
}

// validateRequest runs struct tag validation and reports the first failing
// field as a validation error.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}

	sentinel, ok := fieldErrors[verrs[0].Field()]
	if !ok {
		sentinel = ErrValidation
	}
	return fmt.Errorf("%w: %s", sentinel, strings.Join(msgs, ", "))
}
