package errors

import "errors"

var (
	ErrDatesUnavailable = errors.New("dates unavailable")

	ErrOwnPet = errors.New("cannot book own pet")

	ErrPetNotBookable = errors.New("pet is not accepting bookings")

	ErrInvalidTimeRange = errors.New("end date must be after start date")
)
