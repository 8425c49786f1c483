package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"library_catalog/pkg/catalog"
	"library_catalog/pkg/lending"
	"library_catalog/pkg/models"
)

type menu struct {
	catalog *catalog.Catalog
	lending *lending.Service
	in      *bufio.Scanner
	out     io.Writer
}

func newMenu(c *catalog.Catalog, s *lending.Service, in io.Reader, out io.Writer) *menu {
	return &menu{
		catalog: c,
		lending: s,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

func (m *menu) run() error {
	m.println("=========================================")
	m.println("    LIBRARY MANAGEMENT SYSTEM")
	m.println("=========================================")

	for {
		m.printMenu()
		line, ok := m.prompt("\nEnter your choice (0-10): ")
		if !ok {
			m.goodbye()
			return m.in.Err()
		}
		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			m.println("Invalid input! Please enter a number.")
			continue
		}

		switch choice {
		case 0:
			m.goodbye()
			return nil
		case 1:
			m.listBooks()
		case 2:
			m.listAvailableBooks()
		case 3:
			m.addBook()
		case 4:
			m.registerMember()
		case 5:
			m.borrowBook()
		case 6:
			m.returnBook()
		case 7:
			m.searchBooks()
		case 8:
			m.listOverdueBooks()
		case 9:
			m.payFine()
		case 10:
			m.listMembers()
		default:
			m.println("Invalid choice! Please enter a number between 0-10.")
		}
	}
}

func (m *menu) printMenu() {
	m.println("\n========== MAIN MENU ==========")
	m.println("1. View All Books")
	m.println("2. View Available Books")
	m.println("3. Add New Book")
	m.println("4. Register New Member")
	m.println("5. Borrow a Book")
	m.println("6. Return a Book")
	m.println("7. Search Books")
	m.println("8. View Overdue Books")
	m.println("9. Pay Fines")
	m.println("10. View All Members")
	m.println("0. Exit")
	m.println("================================")
}

func (m *menu) goodbye() {
	m.println("\nThank you for using Library Management System!")
	m.println("Goodbye!")
}

func (m *menu) listBooks() {
	m.println("\n=== ALL BOOKS IN LIBRARY ===")
	books, err := m.catalog.ListBooks()
	if err != nil {
		m.fail(err)
		return
	}
	if len(books) == 0 {
		m.println("No books available in the library.")
	}
	for _, b := range sortBooks(books) {
		m.println(formatBook(b))
	}
	m.printf("Total Books: %d\n", len(books))
}

func (m *menu) listAvailableBooks() {
	m.println("\n=== AVAILABLE BOOKS ===")
	books, err := m.catalog.ListAvailableBooks()
	if err != nil {
		m.fail(err)
		return
	}
	if len(books) == 0 {
		m.println("No books available at the moment.")
	}
	for _, b := range sortBooks(books) {
		m.println(formatBook(b))
	}
}

func (m *menu) addBook() {
	title, _ := m.prompt("\nEnter book title: ")
	author, _ := m.prompt("Enter author: ")
	isbn, _ := m.prompt("Enter ISBN: ")

	book, err := m.catalog.AddBook(title, author, isbn)
	if err != nil {
		m.fail(err)
		return
	}
	m.printf("✓ Book added successfully: %s (ID: %s)\n", book.Title, book.ID)
}

func (m *menu) registerMember() {
	name, _ := m.prompt("\nEnter member name: ")
	email, _ := m.prompt("Enter email: ")
	phone, _ := m.prompt("Enter phone: ")

	member, err := m.catalog.RegisterMember(name, email, phone)
	if err != nil {
		m.fail(err)
		return
	}
	m.printf("✓ Member registered successfully: %s (ID: %s)\n", member.Name, member.ID)
}

func (m *menu) borrowBook() {
	memberID, _ := m.prompt("\nEnter member ID: ")
	bookID, _ := m.prompt("Enter book ID: ")

	loan, err := m.lending.BorrowBook(memberID, bookID)
	if err != nil {
		m.fail(err)
		return
	}

	m.println("\n✓ Book borrowed successfully!")
	m.printf("Book: %s\n", loan.Title)
	m.printf("Borrower: %s\n", loan.MemberName)
	m.printf("Due Date: %s\n", loan.Due.Format(time.DateOnly))
}

func (m *menu) returnBook() {
	bookID, _ := m.prompt("\nEnter book ID to return: ")

	result, err := m.lending.ReturnBook(bookID)
	if err != nil {
		m.fail(err)
		return
	}

	if result.Fine > 0 {
		m.printf("⚠ Book is overdue by %d days!\n", result.DaysOverdue)
		m.printf("Fine imposed: $%.2f\n", result.Fine)
	}
	m.println("\n✓ Book returned successfully!")
	m.printf("Book: %s\n", result.Title)
	m.printf("Returned by: %s\n", result.MemberName)
	if result.Fine > 0 {
		m.printf("Current total fines for member: $%.2f\n", result.TotalFines)
	}
}

func (m *menu) searchBooks() {
	query, _ := m.prompt("\nEnter search term (title/author/ISBN): ")

	m.printf("\n=== SEARCH RESULTS FOR: '%s' ===\n", query)
	books, err := m.catalog.SearchBooks(query)
	if err != nil {
		m.fail(err)
		return
	}
	if len(books) == 0 {
		m.println("No books found matching your search.")
	}
	for _, b := range sortBooks(books) {
		m.println(formatBook(b))
	}
}

func (m *menu) listOverdueBooks() {
	m.println("\n=== OVERDUE BOOKS ===")
	overdue, err := m.lending.ListOverdueBooks()
	if err != nil {
		m.fail(err)
		return
	}
	if len(overdue) == 0 {
		m.println("No overdue books at the moment.")
	}
	slices.SortFunc(overdue, func(a, b lending.Overdue) int {
		return strings.Compare(a.Book.ID, b.Book.ID)
	})
	for _, o := range overdue {
		m.printf("Book: %s\n", o.Book.Title)
		m.printf("  Borrower: %s\n", o.Member.Name)
		m.printf("  Due Date: %s\n", o.Book.DueDate.UTC().Format(time.DateOnly))
		m.printf("  Days Overdue: %d\n", o.DaysOverdue)
		m.printf("  Fine Amount: $%.2f\n", o.ProjectedFine)
		m.println("-----------------------------------")
	}
}

func (m *menu) payFine() {
	memberID, _ := m.prompt("\nEnter member ID: ")
	raw, _ := m.prompt("Enter payment amount: $")
	amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		m.println("Invalid input! Please enter a number.")
		return
	}

	previous, remaining, err := m.lending.PayFine(memberID, amount)
	if err != nil {
		m.fail(err)
		return
	}
	m.println("✓ Payment processed successfully!")
	m.printf("Amount paid: $%.2f\n", amount)
	m.printf("Previous fine: $%.2f\n", previous)
	m.printf("Remaining fine: $%.2f\n", remaining)
}

func (m *menu) listMembers() {
	m.println("\n=== ALL MEMBERS ===")
	members, err := m.catalog.ListMembers()
	if err != nil {
		m.fail(err)
		return
	}
	if len(members) == 0 {
		m.println("No members registered.")
	}
	slices.SortFunc(members, func(a, b models.Member) int {
		return strings.Compare(a.ID, b.ID)
	})
	for _, member := range members {
		m.println(formatMember(member))
	}
	m.printf("Total Members: %d\n", len(members))
}

func (m *menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return m.in.Text(), true
}

func (m *menu) fail(err error) {
	m.printf("✗ Error: %s\n", describe(err))
}

func (m *menu) println(line string) {
	fmt.Fprintln(m.out, line)
}

func (m *menu) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

func describe(err error) string {
	switch {
	case errors.Is(err, lending.ErrMemberNotFound):
		return "Member not found!"
	case errors.Is(err, lending.ErrBookNotFound):
		return "Book not found!"
	case errors.Is(err, lending.ErrBookUnavailable):
		return "Book is already borrowed!"
	case errors.Is(err, lending.ErrBookNotBorrowed):
		return "This book is not currently borrowed!"
	case errors.Is(err, lending.ErrBorrowLimitExceeded):
		return fmt.Sprintf("Member has reached the maximum borrowing limit (%d books)!", lending.MaxBorrowedBooks)
	case errors.Is(err, lending.ErrOutstandingFines):
		return "Member has outstanding fines! Please pay fines first."
	case errors.Is(err, lending.ErrInvalidAmount):
		return "Invalid payment amount!"
	default:
		return err.Error()
	}
}

func formatBook(b models.Book) string {
	available := "Yes"
	due := ""
	if !b.Available {
		available = "No"
		if b.DueDate != nil {
			due = " (Due: " + b.DueDate.UTC().Format(time.DateOnly) + ")"
		}
	}
	return fmt.Sprintf("ID: %s | Title: %-25s | Author: %-20s | ISBN: %s | Available: %s%s",
		b.ID, b.Title, b.Author, b.ISBN, available, due)
}

func formatMember(member models.Member) string {
	return fmt.Sprintf("ID: %s | Name: %-20s | Email: %-25s | Phone: %s | Books Borrowed: %d | Fines: $%.2f",
		member.ID, member.Name, member.Email, member.Phone, member.BorrowedCount(), member.Fines)
}

func sortBooks(books []models.Book) []models.Book {
	slices.SortFunc(books, func(a, b models.Book) int {
		return strings.Compare(a.ID, b.ID)
	})
	return books
}
