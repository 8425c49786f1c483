package lending

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library_catalog/pkg/catalog"
	"library_catalog/pkg/database"
	"library_catalog/pkg/models"
)

type fixture struct {
	catalog *catalog.Catalog
	service *Service
	now     time.Time
}

func (f *fixture) advance(days int) {
	f.now = f.now.AddDate(0, 0, days)
}

func newFixture(c *catalog.Catalog) *fixture {
	f := &fixture{
		catalog: c,
		now:     time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC),
	}
	f.service = NewService(c, WithClock(func() time.Time { return f.now }))
	return f
}

func setupTestDB(t *testing.T) catalog.Store {
	t.Helper()
	db, err := database.InitCatalogDB(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return catalog.NewGormStore(db)
}

func forEachStore(t *testing.T, test func(t *testing.T, f *fixture)) {
	t.Run("memory", func(t *testing.T) {
		test(t, newFixture(catalog.New(catalog.NewMemoryStore())))
	})
	t.Run("sqlite", func(t *testing.T) {
		test(t, newFixture(catalog.New(setupTestDB(t))))
	})
}

func mustAddBook(t *testing.T, f *fixture, title string) models.Book {
	t.Helper()
	book, err := f.catalog.AddBook(title, "Author", "isbn-"+title)
	require.NoError(t, err)
	return book
}

func mustRegister(t *testing.T, f *fixture, name string) models.Member {
	t.Helper()
	member, err := f.catalog.RegisterMember(name, name+"@x.com", "555-1")
	require.NoError(t, err)
	return member
}

func book(t *testing.T, f *fixture, id string) models.Book {
	t.Helper()
	b, ok, err := f.catalog.Book(id)
	require.NoError(t, err)
	require.True(t, ok)
	return b
}

func member(t *testing.T, f *fixture, id string) models.Member {
	t.Helper()
	m, ok, err := f.catalog.Member(id)
	require.NoError(t, err)
	require.True(t, ok)
	return m
}

func setFines(t *testing.T, f *fixture, id string, fines float64) {
	t.Helper()
	err := f.catalog.Update(func(tx catalog.Store) error {
		m, _, err := tx.GetMember(id)
		if err != nil {
			return err
		}
		m.Fines = fines
		return tx.PutMember(m)
	})
	require.NoError(t, err)
}

func assertCatalogConsistent(t *testing.T, f *fixture) {
	t.Helper()
	books, err := f.catalog.ListBooks()
	require.NoError(t, err)
	for _, b := range books {
		assert.True(t, b.Consistent(), "book %s: available=%v due=%v borrower=%q", b.ID, b.Available, b.DueDate, b.BorrowerID)
	}
	members, err := f.catalog.ListMembers()
	require.NoError(t, err)
	for _, m := range members {
		assert.GreaterOrEqual(t, m.Fines, 0.0)
		assert.LessOrEqual(t, m.BorrowedCount(), MaxBorrowedBooks)
	}
}

func TestBorrowBook(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		ada := mustRegister(t, f, "Ada")
		dune := mustAddBook(t, f, "Dune")

		loan, err := f.service.BorrowBook(ada.ID, dune.ID)
		require.NoError(t, err)

		due := loan.Due
		assert.Equal(t, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), due)
		assert.Equal(t, "Dune", loan.Title)
		assert.Equal(t, "Ada", loan.MemberName)

		b := book(t, f, dune.ID)
		assert.False(t, b.Available)
		require.NotNil(t, b.DueDate)
		assert.True(t, due.Equal(*b.DueDate))
		assert.Equal(t, ada.ID, b.BorrowerID)

		m := member(t, f, ada.ID)
		assert.Equal(t, []string{dune.ID}, m.BorrowedBookIDs)
		assertCatalogConsistent(t, f)
	})
}

func TestBorrowBookPreconditionOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		ada := mustRegister(t, f, "Ada")
		bob := mustRegister(t, f, "Bob")
		dune := mustAddBook(t, f, "Dune")
		_, err := f.service.BorrowBook(bob.ID, dune.ID)
		require.NoError(t, err)

		_, err = f.service.BorrowBook("M404", "B404")
		assert.ErrorIs(t, err, ErrMemberNotFound)

		_, err = f.service.BorrowBook(ada.ID, "B404")
		assert.ErrorIs(t, err, ErrBookNotFound)

		setFines(t, f, ada.ID, 3)
		_, err = f.service.BorrowBook(ada.ID, dune.ID)
		assert.ErrorIs(t, err, ErrBookUnavailable, "availability is checked before fines")
	})
}

func TestBorrowBorrowedBookLeavesStateUnchanged(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		ada := mustRegister(t, f, "Ada")
		bob := mustRegister(t, f, "Bob")
		dune := mustAddBook(t, f, "Dune")
		_, err := f.service.BorrowBook(ada.ID, dune.ID)
		require.NoError(t, err)

		bookBefore := book(t, f, dune.ID)
		adaBefore := member(t, f, ada.ID)
		bobBefore := member(t, f, bob.ID)

		f.advance(3)
		_, err = f.service.BorrowBook(bob.ID, dune.ID)
		assert.ErrorIs(t, err, ErrBookUnavailable)

		_, err = f.service.BorrowBook(ada.ID, dune.ID)
		assert.ErrorIs(t, err, ErrBookUnavailable)

		assert.Equal(t, bookBefore.BorrowerID, book(t, f, dune.ID).BorrowerID)
		assert.True(t, bookBefore.DueDate.Equal(*book(t, f, dune.ID).DueDate))
		assert.Equal(t, adaBefore.BorrowedBookIDs, member(t, f, ada.ID).BorrowedBookIDs)
		assert.Empty(t, bobBefore.BorrowedBookIDs)
		assert.Empty(t, member(t, f, bob.ID).BorrowedBookIDs)
	})
}

func TestBorrowLimit(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		ada := mustRegister(t, f, "Ada")
		for i := 0; i < MaxBorrowedBooks; i++ {
			b := mustAddBook(t, f, "Book"+string(rune('A'+i)))
			_, err := f.service.BorrowBook(ada.ID, b.ID)
			require.NoError(t, err)
		}
		sixth := mustAddBook(t, f, "Sixth")

		_, err := f.service.BorrowBook(ada.ID, sixth.ID)
		assert.ErrorIs(t, err, ErrBorrowLimitExceeded)

		assert.True(t, book(t, f, sixth.ID).Available)
		assert.Equal(t, MaxBorrowedBooks, member(t, f, ada.ID).BorrowedCount())
		assertCatalogConsistent(t, f)
	})
}

func TestBorrowLimitCheckedBeforeFines(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		ada := mustRegister(t, f, "Ada")
		for i := 0; i < MaxBorrowedBooks; i++ {
			b := mustAddBook(t, f, "Book"+string(rune('A'+i)))
			_, err := f.service.BorrowBook(ada.ID, b.ID)
			require.NoError(t, err)
		}
		setFines(t, f, ada.ID, 1)
		sixth := mustAddBook(t, f, "Sixth")

		_, err := f.service.BorrowBook(ada.ID, sixth.ID)
		assert.ErrorIs(t, err, ErrBorrowLimitExceeded)
	})
}

func TestOutstandingFinesBlockBorrowUntilPaid(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		ada := mustRegister(t, f, "Ada")
		dune := mustAddBook(t, f, "Dune")
		setFines(t, f, ada.ID, 1.00)

		_, err := f.service.BorrowBook(ada.ID, dune.ID)
		assert.ErrorIs(t, err, ErrOutstandingFines)
		assert.True(t, book(t, f, dune.ID).Available)

		previous, remaining, err := f.service.PayFine(ada.ID, 1.00)
		require.NoError(t, err)
		assert.Equal(t, 1.00, previous)
		assert.Equal(t, 0.0, remaining)

		_, err = f.service.BorrowBook(ada.ID, dune.ID)
		require.NoError(t, err)
	})
}

func TestReturnBookOnTime(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		ada := mustRegister(t, f, "Ada")
		dune := mustAddBook(t, f, "Dune")
		_, err := f.service.BorrowBook(ada.ID, dune.ID)
		require.NoError(t, err)

		f.advance(LoanPeriodDays)
		result, err := f.service.ReturnBook(dune.ID)
		require.NoError(t, err)

		assert.Equal(t, Return{BookID: dune.ID, Title: "Dune", MemberID: ada.ID, MemberName: "Ada"}, result)
		assert.Zero(t, member(t, f, ada.ID).Fines)
	})
}

func TestReturnBookRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		ada := mustRegister(t, f, "Ada")
		dune := mustAddBook(t, f, "Dune")
		emma := mustAddBook(t, f, "Emma")
		_, err := f.service.BorrowBook(ada.ID, dune.ID)
		require.NoError(t, err)
		_, err = f.service.BorrowBook(ada.ID, emma.ID)
		require.NoError(t, err)

		_, err = f.service.ReturnBook(dune.ID)
		require.NoError(t, err)

		b := book(t, f, dune.ID)
		assert.True(t, b.Available)
		assert.Nil(t, b.DueDate)
		assert.Empty(t, b.BorrowerID)
		assert.Equal(t, []string{emma.ID}, member(t, f, ada.ID).BorrowedBookIDs)
		assertCatalogConsistent(t, f)
	})
}

func TestReturnOverdueBookChargesFine(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		ada := mustRegister(t, f, "Ada")
		dune := mustAddBook(t, f, "Dune")
		emma := mustAddBook(t, f, "Emma")
		_, err := f.service.BorrowBook(ada.ID, dune.ID)
		require.NoError(t, err)
		_, err = f.service.BorrowBook(ada.ID, emma.ID)
		require.NoError(t, err)

		f.advance(LoanPeriodDays + 3)
		result, err := f.service.ReturnBook(dune.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, result.DaysOverdue)
		assert.Equal(t, 1.50, result.Fine)
		assert.Equal(t, 1.50, result.TotalFines)

		f.advance(2)
		result, err = f.service.ReturnBook(emma.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, result.DaysOverdue)
		assert.Equal(t, 2.50, result.Fine)
		assert.Equal(t, 4.00, result.TotalFines)
		assert.Equal(t, 4.00, member(t, f, ada.ID).Fines)
	})
}

func TestReturnBookErrors(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		dune := mustAddBook(t, f, "Dune")

		_, err := f.service.ReturnBook("B404")
		assert.ErrorIs(t, err, ErrBookNotFound)

		_, err = f.service.ReturnBook(dune.ID)
		assert.ErrorIs(t, err, ErrBookNotBorrowed)
		assert.True(t, book(t, f, dune.ID).Available)
	})
}

func TestPayFine(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		ada := mustRegister(t, f, "Ada")
		setFines(t, f, ada.ID, 4.00)

		previous, remaining, err := f.service.PayFine(ada.ID, 1.25)
		require.NoError(t, err)
		assert.Equal(t, 4.00, previous)
		assert.Equal(t, 2.75, remaining)

		previous, remaining, err = f.service.PayFine(ada.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, 2.75, previous)
		assert.Equal(t, 0.0, remaining, "overpayment clamps to zero")
		assert.Zero(t, member(t, f, ada.ID).Fines)

		_, _, err = f.service.PayFine("M404", 1)
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})
}

func TestPayFineNegativeAmountRaisesBalance(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		ada := mustRegister(t, f, "Ada")

		previous, remaining, err := f.service.PayFine(ada.ID, -2)
		require.NoError(t, err)
		assert.Zero(t, previous)
		assert.Equal(t, 2.0, remaining)
	})
}

func TestPayFineRejectsNonFiniteAmount(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		ada := mustRegister(t, f, "Ada")
		dune := mustAddBook(t, f, "Dune")
		setFines(t, f, ada.ID, 5)

		for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			_, _, err := f.service.PayFine(ada.ID, amount)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		}
		assert.Equal(t, 5.0, member(t, f, ada.ID).Fines)

		_, err := f.service.BorrowBook(ada.ID, dune.ID)
		assert.ErrorIs(t, err, ErrOutstandingFines)
		assert.True(t, book(t, f, dune.ID).Available)
		assertCatalogConsistent(t, f)
	})
}

func TestListOverdueBooks(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		ada := mustRegister(t, f, "Ada")
		bob := mustRegister(t, f, "Bob")
		dune := mustAddBook(t, f, "Dune")
		emma := mustAddBook(t, f, "Emma")
		mustAddBook(t, f, "Idle")

		_, err := f.service.BorrowBook(ada.ID, dune.ID)
		require.NoError(t, err)
		f.advance(2)
		_, err = f.service.BorrowBook(bob.ID, emma.ID)
		require.NoError(t, err)

		f.advance(LoanPeriodDays - 2)
		overdue, err := f.service.ListOverdueBooks()
		require.NoError(t, err)
		assert.Empty(t, overdue, "a book due today is not overdue")

		f.advance(4)
		overdue, err = f.service.ListOverdueBooks()
		require.NoError(t, err)
		require.Len(t, overdue, 2)

		byBook := make(map[string]Overdue)
		for _, o := range overdue {
			byBook[o.Book.ID] = o
		}
		assert.Equal(t, ada.ID, byBook[dune.ID].Member.ID)
		assert.Equal(t, 4, byBook[dune.ID].DaysOverdue)
		assert.Equal(t, 2.0, byBook[dune.ID].ProjectedFine)
		assert.Equal(t, bob.ID, byBook[emma.ID].Member.ID)
		assert.Equal(t, 2, byBook[emma.ID].DaysOverdue)
		assert.Equal(t, 1.0, byBook[emma.ID].ProjectedFine)

		assert.Zero(t, member(t, f, ada.ID).Fines, "listing does not charge")
		assert.Zero(t, member(t, f, bob.ID).Fines)
	})
}

func TestScenarioAddFindBorrow(t *testing.T) {
	forEachStore(t, func(t *testing.T, f *fixture) {
		_, err := f.catalog.AddBook("Dune", "Frank Herbert", "9780441013593")
		require.NoError(t, err)

		found, ok, err := f.catalog.FindBook("Dune")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, found.Available)

		ada, err := f.catalog.RegisterMember("Ada", "ada@x.com", "555-1")
		require.NoError(t, err)

		loan, err := f.service.BorrowBook(ada.ID, found.ID)
		require.NoError(t, err)
		assert.Equal(t, today(f.now).AddDate(0, 0, 14), loan.Due)
		assert.True(t, member(t, f, ada.ID).HasBorrowed(found.ID))
	})
}

func TestDaysBetween(t *testing.T) {
	due := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, daysBetween(due, today(time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC))))
	assert.Equal(t, 1, daysBetween(due, today(time.Date(2026, 10, 19, 0, 1, 0, 0, time.UTC))))
	assert.Equal(t, -3, daysBetween(due, today(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))))
	assert.Equal(t, 31, daysBetween(due, today(time.Date(2026, 11, 18, 8, 0, 0, 0, time.UTC))))

	local := due.In(time.FixedZone("UTC+5", 5*3600))
	assert.Equal(t, 2, daysBetween(local, today(time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC))))
}
