package catalog

import (
	"sync"

	"library_catalog/pkg/models"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps books and members in two maps. Iteration order of the
// list methods follows map order and is therefore unspecified.
type MemoryStore struct {
	txMu    sync.Mutex
	mu      sync.Mutex
	books   map[string]models.Book
	members map[string]models.Member
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:   make(map[string]models.Book),
		members: make(map[string]models.Member),
	}
}

func (s *MemoryStore) GetBook(id string) (models.Book, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.books[id]
	return book.Clone(), ok, nil
}

func (s *MemoryStore) GetMember(id string) (models.Member, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.members[id]
	return member.Clone(), ok, nil
}

func (s *MemoryStore) ListBooks() ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.Book, 0, len(s.books))
	for _, book := range s.books {
		result = append(result, book.Clone())
	}
	return result, nil
}

func (s *MemoryStore) ListMembers() ([]models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]models.Member, 0, len(s.members))
	for _, member := range s.members {
		result = append(result, member.Clone())
	}
	return result, nil
}

func (s *MemoryStore) PutBook(book models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[book.ID] = book.Clone()
	return nil
}

func (s *MemoryStore) PutMember(member models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[member.ID] = member.Clone()
	return nil
}

// Atomically stages every write of fn and applies them together once fn
// succeeds. Only one transaction runs at a time.
func (s *MemoryStore) Atomically(fn func(tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memoryTx{
		parent:  s,
		books:   make(map[string]models.Book),
		members: make(map[string]models.Member),
	}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, book := range tx.books {
		s.books[id] = book
	}
	for id, member := range tx.members {
		s.members[id] = member
	}
	return nil
}

// memoryTx overlays staged writes on top of the parent store.
type memoryTx struct {
	parent  *MemoryStore
	books   map[string]models.Book
	members map[string]models.Member
}

func (tx *memoryTx) GetBook(id string) (models.Book, bool, error) {
	if book, ok := tx.books[id]; ok {
		return book.Clone(), true, nil
	}
	return tx.parent.GetBook(id)
}

func (tx *memoryTx) GetMember(id string) (models.Member, bool, error) {
	if member, ok := tx.members[id]; ok {
		return member.Clone(), true, nil
	}
	return tx.parent.GetMember(id)
}

func (tx *memoryTx) ListBooks() ([]models.Book, error) {
	books, err := tx.parent.ListBooks()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(books))
	for i, book := range books {
		seen[book.ID] = true
		if staged, ok := tx.books[book.ID]; ok {
			books[i] = staged.Clone()
		}
	}
	for id, staged := range tx.books {
		if !seen[id] {
			books = append(books, staged.Clone())
		}
	}
	return books, nil
}

func (tx *memoryTx) ListMembers() ([]models.Member, error) {
	members, err := tx.parent.ListMembers()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(members))
	for i, member := range members {
		seen[member.ID] = true
		if staged, ok := tx.members[member.ID]; ok {
			members[i] = staged.Clone()
		}
	}
	for id, staged := range tx.members {
		if !seen[id] {
			members = append(members, staged.Clone())
		}
	}
	return members, nil
}

func (tx *memoryTx) PutBook(book models.Book) error {
	tx.books[book.ID] = book.Clone()
	return nil
}

func (tx *memoryTx) PutMember(member models.Member) error {
	tx.members[member.ID] = member.Clone()
	return nil
}

// Atomically joins the enclosing transaction.
func (tx *memoryTx) Atomically(fn func(tx Store) error) error {
	return fn(tx)
}
