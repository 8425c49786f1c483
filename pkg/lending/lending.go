// Package lending implements the borrow, return and fine rules on top of the
// catalog.
//
// A book moves between two states only: available and borrowed. Borrowing
// checks, in order, that the member exists, the book exists, the book is
// available, the member holds fewer than MaxBorrowedBooks books and the member
// owes nothing. The first failing check is reported and nothing is changed.
// Fines are charged when an overdue book comes back, at DailyFine per day.
package lending

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"library_catalog/pkg/catalog"
	"library_catalog/pkg/models"
)

const (
	LoanPeriodDays   = 14
	DailyFine        = 0.50
	MaxBorrowedBooks = 5
)

// Service applies the lending rules. It keeps no state of its own between
// calls; every record lives in the catalog.
type Service struct {
	catalog *catalog.Catalog
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger. Rejected operations are logged at debug level.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService returns a Service over c that reads the wall clock and discards
// its logs unless told otherwise.
func NewService(c *catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		catalog: c,
		now:     time.Now,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Loan describes a completed borrow.
type Loan struct {
	BookID     string
	Title      string
	MemberID   string
	MemberName string
	Due        time.Time
}

// Return describes a completed return.
type Return struct {
	BookID      string
	Title       string
	MemberID    string
	MemberName  string
	DaysOverdue int
	Fine        float64
	TotalFines  float64
}

// Overdue is a borrowed book past its due date with the fine it would incur
// if returned today.
type Overdue struct {
	Book          models.Book
	Member        models.Member
	DaysOverdue   int
	ProjectedFine float64
}

// BorrowBook lends bookID to memberID. The returned loan carries the due date.
func (s *Service) BorrowBook(memberID, bookID string) (Loan, error) {
	due := today(s.now()).AddDate(0, 0, LoanPeriodDays)
	var loan Loan

	err := s.catalog.Update(func(tx catalog.Store) error {
		member, ok, err := tx.GetMember(memberID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("borrow %s: %w", memberID, ErrMemberNotFound)
		}
		book, ok, err := tx.GetBook(bookID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("borrow %s: %w", bookID, ErrBookNotFound)
		}
		if !book.Available {
			return fmt.Errorf("borrow %s: %w", bookID, ErrBookUnavailable)
		}
		if member.BorrowedCount() >= MaxBorrowedBooks {
			return fmt.Errorf("borrow %s for %s: %w (%d books)", bookID, memberID, ErrBorrowLimitExceeded, MaxBorrowedBooks)
		}
		if member.Fines > 0 {
			return fmt.Errorf("borrow %s for %s: %w", bookID, memberID, ErrOutstandingFines)
		}

		book.Available = false
		book.DueDate = &due
		book.BorrowerID = memberID
		member.AddBorrowed(bookID)
		loan = Loan{BookID: bookID, Title: book.Title, MemberID: memberID, MemberName: member.Name, Due: due}

		if err := tx.PutBook(book); err != nil {
			return err
		}
		return tx.PutMember(member)
	})
	if err != nil {
		s.log.Debug("Borrow rejected", "member_id", memberID, "book_id", bookID, "error", err)
		return Loan{}, err
	}

	s.log.Info("Book borrowed", "member_id", memberID, "book_id", bookID, "due", due.Format(time.DateOnly))
	return loan, nil
}

// ReturnBook takes bookID back and charges the borrower for every day it is
// late.
func (s *Service) ReturnBook(bookID string) (Return, error) {
	var result Return
	day := today(s.now())

	err := s.catalog.Update(func(tx catalog.Store) error {
		book, ok, err := tx.GetBook(bookID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("return %s: %w", bookID, ErrBookNotFound)
		}
		if book.Available {
			return fmt.Errorf("return %s: %w", bookID, ErrBookNotBorrowed)
		}
		member, ok, err := tx.GetMember(book.BorrowerID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("return %s borrowed by %s: %w", bookID, book.BorrowerID, ErrMemberNotFound)
		}

		result = Return{BookID: bookID, Title: book.Title, MemberID: member.ID, MemberName: member.Name}
		if book.DueDate != nil {
			result.DaysOverdue = max(0, daysBetween(*book.DueDate, day))
		}
		if result.DaysOverdue > 0 {
			result.Fine = float64(result.DaysOverdue) * DailyFine
			member.Fines += result.Fine
		}
		result.TotalFines = member.Fines

		book.Available = true
		book.DueDate = nil
		book.BorrowerID = ""
		member.RemoveBorrowed(bookID)

		if err := tx.PutBook(book); err != nil {
			return err
		}
		return tx.PutMember(member)
	})
	if err != nil {
		s.log.Debug("Return rejected", "book_id", bookID, "error", err)
		return Return{}, err
	}

	s.log.Info("Book returned", "member_id", result.MemberID, "book_id", bookID,
		"days_overdue", result.DaysOverdue, "fine", result.Fine)
	return result, nil
}

// PayFine reduces the member's balance by amount and returns the balance
// before and after. Paying more than is owed leaves a zero balance; the excess
// is not refunded or reported. NaN and infinite amounts are rejected with
// ErrInvalidAmount.
func (s *Service) PayFine(memberID string, amount float64) (float64, float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		s.log.Debug("Payment rejected", "member_id", memberID, "amount", amount)
		return 0, 0, fmt.Errorf("pay fine %s: %w: %v", memberID, ErrInvalidAmount, amount)
	}

	var previous, remaining float64
	err := s.catalog.Update(func(tx catalog.Store) error {
		member, ok, err := tx.GetMember(memberID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("pay fine %s: %w", memberID, ErrMemberNotFound)
		}
		previous = member.Fines
		member.Fines = max(0, member.Fines-amount)
		remaining = member.Fines
		return tx.PutMember(member)
	})
	if err != nil {
		s.log.Debug("Payment rejected", "member_id", memberID, "error", err)
		return 0, 0, err
	}

	s.log.Info("Fine paid", "member_id", memberID, "amount", amount, "remaining", remaining)
	return previous, remaining, nil
}

// ListOverdueBooks reports every borrowed book whose due date is strictly
// before today. Nothing is charged.
func (s *Service) ListOverdueBooks() ([]Overdue, error) {
	day := today(s.now())

	books, err := s.catalog.ListBooks()
	if err != nil {
		return nil, err
	}

	var overdue []Overdue
	for _, book := range books {
		if book.Available || book.DueDate == nil {
			continue
		}
		days := daysBetween(*book.DueDate, day)
		if days <= 0 {
			continue
		}
		member, ok, err := s.catalog.Member(book.BorrowerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("overdue %s borrowed by %s: %w", book.ID, book.BorrowerID, ErrMemberNotFound)
		}
		overdue = append(overdue, Overdue{
			Book:          book,
			Member:        member,
			DaysOverdue:   days,
			ProjectedFine: float64(days) * DailyFine,
		})
	}
	return overdue, nil
}
