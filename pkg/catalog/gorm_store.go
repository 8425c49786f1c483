package catalog

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"library_catalog/pkg/models"
)

var _ Store = (*GormStore)(nil)

// GormStore keeps the registries in the books and members tables of a gorm
// database. The tables must already be migrated.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetBook(id string) (models.Book, bool, error) {
	var book models.Book
	err := s.db.Where("id = ?", id).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Book{}, false, nil
	}
	if err != nil {
		return models.Book{}, false, fmt.Errorf("failed to load book %s: %w", id, err)
	}
	return book, true, nil
}

func (s *GormStore) GetMember(id string) (models.Member, bool, error) {
	var member models.Member
	err := s.db.Where("id = ?", id).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Member{}, false, nil
	}
	if err != nil {
		return models.Member{}, false, fmt.Errorf("failed to load member %s: %w", id, err)
	}
	return member, true, nil
}

func (s *GormStore) ListBooks() ([]models.Book, error) {
	var books []models.Book
	if err := s.db.Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

func (s *GormStore) ListMembers() ([]models.Member, error) {
	var members []models.Member
	if err := s.db.Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (s *GormStore) PutBook(book models.Book) error {
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&book).Error
	if err != nil {
		return fmt.Errorf("failed to save book %s: %w", book.ID, err)
	}
	return nil
}

func (s *GormStore) PutMember(member models.Member) error {
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&member).Error
	if err != nil {
		return fmt.Errorf("failed to save member %s: %w", member.ID, err)
	}
	return nil
}

// Atomically runs fn inside a database transaction. Calls made on a store
// that is already inside a transaction use a nested savepoint.
func (s *GormStore) Atomically(fn func(tx Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
