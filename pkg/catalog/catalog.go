// Package catalog owns the book and member registries: id allocation,
// lookup, listing and search.
package catalog

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"library_catalog/pkg/models"
)

// Catalog hands out sequential ids and answers lookups over a Store.
type Catalog struct {
	store         Store
	log           *slog.Logger
	bookCounter   int
	memberCounter int
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used for additions and registrations.
func WithLogger(log *slog.Logger) Option {
	return func(c *Catalog) {
		if log != nil {
			c.log = log
		}
	}
}

// New returns a Catalog over store with both id counters at 1.
func New(store Store, opts ...Option) *Catalog {
	c := &Catalog{
		store:         store,
		log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		bookCounter:   1,
		memberCounter: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddBook stores a new available book under the next free "B###" id. Ids
// already present in the store are skipped, never overwritten.
func (c *Catalog) AddBook(title, author, isbn string) (models.Book, error) {
	book := models.Book{
		Title:     title,
		Author:    author,
		ISBN:      isbn,
		Available: true,
	}
	err := c.Update(func(tx Store) error {
		for {
			book.ID = fmt.Sprintf("B%03d", c.bookCounter)
			_, taken, err := tx.GetBook(book.ID)
			if err != nil {
				return err
			}
			if !taken {
				break
			}
			c.bookCounter++
		}
		return tx.PutBook(book)
	})
	if err != nil {
		return models.Book{}, err
	}
	c.bookCounter++
	c.log.Info("Book added", "book_id", book.ID, "title", title)
	return book, nil
}

// RegisterMember stores a new member under the next free "M###" id.
func (c *Catalog) RegisterMember(name, email, phone string) (models.Member, error) {
	member := models.Member{
		Name:  name,
		Email: email,
		Phone: phone,
	}
	err := c.Update(func(tx Store) error {
		for {
			member.ID = fmt.Sprintf("M%03d", c.memberCounter)
			_, taken, err := tx.GetMember(member.ID)
			if err != nil {
				return err
			}
			if !taken {
				break
			}
			c.memberCounter++
		}
		return tx.PutMember(member)
	})
	if err != nil {
		return models.Member{}, err
	}
	c.memberCounter++
	c.log.Info("Member registered", "member_id", member.ID, "name", name)
	return member, nil
}

// Book looks a book up by its exact id.
func (c *Catalog) Book(id string) (models.Book, bool, error) {
	return c.store.GetBook(id)
}

// Member looks a member up by its exact id.
func (c *Catalog) Member(id string) (models.Member, bool, error) {
	return c.store.GetMember(id)
}

// FindBook returns the first book whose id or title equals term ignoring
// case, or whose ISBN equals term exactly.
func (c *Catalog) FindBook(term string) (models.Book, bool, error) {
	books, err := c.store.ListBooks()
	if err != nil {
		return models.Book{}, false, err
	}
	for _, book := range books {
		if strings.EqualFold(book.ID, term) ||
			strings.EqualFold(book.Title, term) ||
			book.ISBN == term {
			return book, true, nil
		}
	}
	return models.Book{}, false, nil
}

// FindMember returns the first member whose id, name or email equals term
// ignoring case.
func (c *Catalog) FindMember(term string) (models.Member, bool, error) {
	members, err := c.store.ListMembers()
	if err != nil {
		return models.Member{}, false, err
	}
	for _, member := range members {
		if strings.EqualFold(member.ID, term) ||
			strings.EqualFold(member.Name, term) ||
			strings.EqualFold(member.Email, term) {
			return member, true, nil
		}
	}
	return models.Member{}, false, nil
}

// ListBooks returns every book in store order.
func (c *Catalog) ListBooks() ([]models.Book, error) {
	return c.store.ListBooks()
}

// ListAvailableBooks returns the books not currently lent out.
func (c *Catalog) ListAvailableBooks() ([]models.Book, error) {
	books, err := c.store.ListBooks()
	if err != nil {
		return nil, err
	}
	available := make([]models.Book, 0, len(books))
	for _, book := range books {
		if book.Available {
			available = append(available, book)
		}
	}
	return available, nil
}

// ListMembers returns every member in store order.
func (c *Catalog) ListMembers() ([]models.Member, error) {
	return c.store.ListMembers()
}

// SearchBooks matches query as a case-insensitive substring of the title or
// author, or as a plain substring of the ISBN.
func (c *Catalog) SearchBooks(query string) ([]models.Book, error) {
	books, err := c.store.ListBooks()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	var matches []models.Book
	for _, book := range books {
		if strings.Contains(strings.ToLower(book.Title), needle) ||
			strings.Contains(strings.ToLower(book.Author), needle) ||
			strings.Contains(book.ISBN, query) {
			matches = append(matches, book)
		}
	}
	return matches, nil
}

// Update runs fn against a transactional view of the registries. Nothing fn
// writes is kept unless it returns nil.
func (c *Catalog) Update(fn func(tx Store) error) error {
	return c.store.Atomically(fn)
}
