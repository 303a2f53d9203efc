package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nomadgto/dist-syst/internal/wire"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateCustomerRejectsDuplicateUsername(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Apply(wire.CreateCustomer{
		Username: "jdoe", Name: "Jane Doe", Address: "1 Main St", Card: "4111111111111111",
	}))

	err := s.Apply(wire.CreateCustomer{
		Username: "jdoe", Name: "Other Name", Address: "2 Elm St", Card: "4222222222222222",
	})
	require.Error(t, err)
	require.IsType(t, &wire.ValidationError{}, err)
}

func TestCreateCustomerRejectsDuplicateCard(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Apply(wire.CreateCustomer{
		Username: "jdoe", Name: "Jane Doe", Address: "1 Main St", Card: "4111111111111111",
	}))

	err := s.Apply(wire.CreateCustomer{
		Username: "asmith", Name: "Amy Smith", Address: "3 Oak St", Card: "4111111111111111",
	})
	require.Error(t, err)
}

func TestCardInUseReflectsRegisteredCards(t *testing.T) {
	s := newTestStore(t)

	require.False(t, s.CardInUse("4111111111111111"))

	require.NoError(t, s.Apply(wire.CreateCustomer{
		Username: "jdoe", Name: "Jane Doe", Address: "1 Main St", Card: "4111111111111111",
	}))

	require.True(t, s.CardInUse("4111111111111111"))
	require.False(t, s.CardInUse("4222222222222222"))
}

func TestShippingGuideDepletesArticleAtomically(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Apply(wire.CreateCustomer{
		Username: "jdoe", Name: "Jane Doe", Address: "1 Main St", Card: "4111111111111111",
	}))
	require.NoError(t, s.Apply(wire.CreateArticle{
		Code: "SKU1", Name: "Widget", Price: "9.99", BranchID: "1",
	}))

	art, ok := s.ArticleByCode("SKU1")
	require.True(t, ok)
	require.Equal(t, StockAvailable, art.Status)

	require.NoError(t, s.Apply(wire.CreateShippingGuide{
		CustomerID: "1", ArticleID: "1", BranchID: "1",
		Serial: "SER-1", Amount: "9.99", PurchaseTS: "2026-01-01 10:00:00",
	}))

	art, ok = s.ArticleByCode("SKU1")
	require.True(t, ok)
	require.Equal(t, StockOutOfStock, art.Status)

	err := s.Apply(wire.CreateShippingGuide{
		CustomerID: "1", ArticleID: "1", BranchID: "1",
		Serial: "SER-2", Amount: "1.00", PurchaseTS: "2026-01-01 11:00:00",
	})
	require.Error(t, err)

	require.Len(t, s.ListShippingGuides(), 1)
}

func TestWALReplayRebuildsIdenticalState(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.Apply(wire.CreateCustomer{
		Username: "jdoe", Name: "Jane Doe", Address: "1 Main St", Card: "4111111111111111",
	}))
	require.NoError(t, s.Apply(wire.CreateArticle{
		Code: "SKU1", Name: "Widget", Price: "9.99", BranchID: "1",
	}))
	require.NoError(t, s.Close())

	reopened, err := New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	c, ok := reopened.CustomerByUsername("jdoe")
	require.True(t, ok)
	require.Equal(t, int64(1), c.ID)

	a, ok := reopened.ArticleByCode("SKU1")
	require.True(t, ok)
	require.Equal(t, int64(1), a.ID)
}

func TestSnapshotTruncatesWALAndSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.Apply(wire.CreateCustomer{
		Username: "jdoe", Name: "Jane Doe", Address: "1 Main St", Card: "4111111111111111",
	}))
	require.NoError(t, s.Snapshot())
	require.NoError(t, s.Close())

	reopened, err := New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	c, ok := reopened.CustomerByUsername("jdoe")
	require.True(t, ok)
	require.Equal(t, "Jane Doe", c.Name)
}
