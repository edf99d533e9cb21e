package database

import "errors"

var (
	// ErrNotFound означает что студия, позиция или бронь не найдены
	ErrNotFound = errors.New("record not found")

	// ErrSlotUnavailable is returned when at least one requested slot is
	// already held or booked; no partial holds are ever created.
	ErrSlotUnavailable = errors.New("one or more time slots are not available")

	// ErrConcurrentModification is returned when a versioned or
	// compare-and-swap update lost the race.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrReservationExpired is returned when confirming a pending
	// reservation past its hold deadline.
	ErrReservationExpired = errors.New("reservation hold has expired")

	// ErrInvalidStatus is returned on a state transition the reservation
	// lifecycle does not allow.
	ErrInvalidStatus = errors.New("invalid reservation status for this operation")

	// ErrPastDate нельзя бронировать на прошедшую дату
	ErrPastDate = errors.New("booking date is in the past")

	// ErrDateTooFar дата превышает горизонт бронирования
	ErrDateTooFar = errors.New("booking date is too far in the future")

	// ErrInvalidInput covers malformed request payloads.
	ErrInvalidInput = errors.New("invalid input")
)
