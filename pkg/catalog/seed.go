package catalog

import "fmt"

var sampleBooks = []struct {
	title, author, isbn string
}{
	{"The Great Gatsby", "F. Scott Fitzgerald", "9780743273565"},
	{"To Kill a Mockingbird", "Harper Lee", "9780446310789"},
	{"1984", "George Orwell", "9780451524935"},
	{"Pride and Prejudice", "Jane Austen", "9780141439518"},
	{"The Hobbit", "J.R.R. Tolkien", "9780547928227"},
}

var sampleMembers = []struct {
	name, email, phone string
}{
	{"John Smith", "john@email.com", "555-0101"},
	{"Emma Johnson", "emma@email.com", "555-0102"},
	{"Robert Brown", "robert@email.com", "555-0103"},
}

// SeedSampleData adds the five demo books and three demo members.
func (c *Catalog) SeedSampleData() error {
	for _, b := range sampleBooks {
		if _, err := c.AddBook(b.title, b.author, b.isbn); err != nil {
			return fmt.Errorf("failed to seed book %q: %w", b.title, err)
		}
	}
	for _, m := range sampleMembers {
		if _, err := c.RegisterMember(m.name, m.email, m.phone); err != nil {
			return fmt.Errorf("failed to seed member %q: %w", m.name, err)
		}
	}
	c.log.Info("Catalog sample data seeded", "books", len(sampleBooks), "members", len(sampleMembers))
	return nil
}
