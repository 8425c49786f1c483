package models

import (
	"slices"
	"time"
)

// Book is a catalog entry. DueDate and BorrowerID are set only while the book
// is lent out.
type Book struct {
	ID         string `gorm:"primaryKey;size:16"`
	Title      string `gorm:"not null"`
	Author     string
	ISBN       string `gorm:"column:isbn;size:32"`
	Available  bool   `gorm:"not null"`
	DueDate    *time.Time
	BorrowerID string `gorm:"size:16"`
}

// IsBorrowed reports whether the book is currently lent out.
func (b Book) IsBorrowed() bool {
	return !b.Available
}

// Consistent checks that the due date and borrower are set exactly when the
// book is not available.
func (b Book) Consistent() bool {
	hasDue := b.DueDate != nil
	hasBorrower := b.BorrowerID != ""
	return hasDue == hasBorrower && hasDue == !b.Available
}

// Member is a registered borrower with the ids of the books they hold and
// their unpaid fines.
type Member struct {
	ID              string   `gorm:"primaryKey;size:16"`
	Name            string   `gorm:"not null"`
	Email           string
	Phone           string
	BorrowedBookIDs []string `gorm:"serializer:json"`
	Fines           float64  `gorm:"not null;check:fines >= 0"`
}

// BorrowedCount is the number of books the member currently holds.
func (m Member) BorrowedCount() int {
	return len(m.BorrowedBookIDs)
}

// HasBorrowed reports whether bookID is in the member's borrowed set.
func (m Member) HasBorrowed(bookID string) bool {
	return slices.Contains(m.BorrowedBookIDs, bookID)
}

// AddBorrowed appends bookID unless it is already in the set.
func (m *Member) AddBorrowed(bookID string) {
	if m.HasBorrowed(bookID) {
		return
	}
	m.BorrowedBookIDs = append(slices.Clone(m.BorrowedBookIDs), bookID)
}

// RemoveBorrowed drops bookID and keeps the order of the remaining ids.
func (m *Member) RemoveBorrowed(bookID string) {
	m.BorrowedBookIDs = slices.DeleteFunc(slices.Clone(m.BorrowedBookIDs), func(id string) bool {
		return id == bookID
	})
}

// Clone returns a copy that shares no memory with m.
func (m Member) Clone() Member {
	m.BorrowedBookIDs = slices.Clone(m.BorrowedBookIDs)
	return m
}

// Clone returns a copy that shares no memory with b.
func (b Book) Clone() Book {
	if b.DueDate != nil {
		due := *b.DueDate
		b.DueDate = &due
	}
	return b
}
