package lending

import "errors"

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrBookNotFound        = errors.New("book not found")
	ErrBookUnavailable     = errors.New("book is already borrowed")
	ErrBookNotBorrowed     = errors.New("book is not currently borrowed")
	ErrBorrowLimitExceeded = errors.New("member has reached the maximum borrowing limit")
	ErrOutstandingFines    = errors.New("member has outstanding fines")
	ErrInvalidAmount       = errors.New("payment amount must be a finite number")
)
