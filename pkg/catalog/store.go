package catalog

import "library_catalog/pkg/models"

// Store holds the id-keyed book and member registries. Records go in and come
// out by value; callers write changes back with PutBook or PutMember.
type Store interface {
	GetBook(id string) (models.Book, bool, error)
	GetMember(id string) (models.Member, bool, error)
	ListBooks() ([]models.Book, error)
	ListMembers() ([]models.Member, error)
	PutBook(book models.Book) error
	PutMember(member models.Member) error

	// Atomically runs fn against a view of the store. Writes made through the
	// view are kept only when fn returns nil.
	Atomically(fn func(tx Store) error) error
}
