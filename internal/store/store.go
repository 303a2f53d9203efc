package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nomadgto/dist-syst/internal/wire"
)

var validate = validator.New()

// snapshotDoc is the on-disk shape of a full Store snapshot.
type snapshotDoc struct {
	Customers []Customer      `json:"customers"`
	Articles  []Article       `json:"articles"`
	Guides    []ShippingGuide `json:"guides"`
	NextIDs   [3]int64        `json:"next_ids"` // customer, article, guide
}

// Store is the local durable adapter: three typed tables guarded by one
// RWMutex, backed by a write-ahead log and periodic snapshots. It is
// safe for concurrent use; Apply is the single mutation entry point
// every quorum round's APPLY-LOCAL step calls.
type Store struct {
	mu sync.RWMutex

	customers  map[int64]*Customer
	byUsername map[string]int64
	byCard     map[string]int64
	nextCustID int64

	articles  map[int64]*Article
	byCode    map[string]int64
	nextArtID int64

	guides    map[int64]*ShippingGuide
	bySerial  map[string]int64
	nextGdeID int64

	wal     *WAL
	dataDir string
}

// New opens or creates a Store rooted at dataDir: it loads the latest
// snapshot (if any), opens the WAL, and replays entries written since.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{
		customers:  make(map[int64]*Customer),
		byUsername: make(map[string]int64),
		byCard:     make(map[string]int64),
		articles:   make(map[int64]*Article),
		byCode:     make(map[string]int64),
		guides:     make(map[int64]*ShippingGuide),
		bySerial:   make(map[string]int64),
		dataDir:    dataDir,
	}

	if err := s.loadSnapshot(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	wal, err := newWAL(filepath.Join(dataDir, "wal.log"))
	if err != nil {
		return nil, fmt.Errorf("open wal: %w", err)
	}
	s.wal = wal

	if err := s.replayWAL(); err != nil {
		return nil, fmt.Errorf("replay wal: %w", err)
	}

	return s, nil
}

// Apply is the single entry point for a decided mutation. It is called
// both on the initiator and every participant's APPLY-LOCAL step — each
// node runs the identical dispatch, which is what keeps surrogate ID
// assignment in agreement across the cluster without a wire-carried ID.
func (s *Store) Apply(op wire.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.apply(op); err != nil {
		return err
	}
	return s.wal.append(walEntry{Command: wire.Encode(op)})
}

// replayApply is like apply but skips WAL writes — used only to rebuild
// memory from an existing WAL on startup.
func (s *Store) replayApply(op wire.Op) error {
	return s.apply(op)
}

func (s *Store) apply(op wire.Op) error {
	switch o := op.(type) {
	case wire.CreateCustomer:
		return s.createCustomer(o)
	case wire.UpdateCustomer:
		return s.updateCustomer(o)
	case wire.ActivateCustomer:
		return s.setCustomerStatus(o.Username, CustomerActive)
	case wire.DeactivateCustomer:
		return s.setCustomerStatus(o.Username, CustomerInactive)
	case wire.CreateArticle:
		return s.createArticle(o)
	case wire.UpdateArticle:
		return s.updateArticle(o)
	case wire.RestockArticle:
		return s.restockArticle(o)
	case wire.DeactivateArticle:
		return s.deactivateArticle(o)
	case wire.CreateShippingGuide:
		return s.createShippingGuide(o)
	default:
		return wire.NewProtocolError("store: unhandled op %T", op)
	}
}

// ─── Customers ──────────────────────────────────────────────────────────────

func (s *Store) createCustomer(o wire.CreateCustomer) error {
	if _, exists := s.byUsername[o.Username]; exists {
		return wire.NewValidationError("username %q already exists", o.Username)
	}
	if _, exists := s.byCard[o.Card]; exists {
		return wire.NewValidationError("card %q already registered", o.Card)
	}

	c := &Customer{
		Username: o.Username,
		Name:     o.Name,
		Address:  o.Address,
		Card:     o.Card,
		Status:   CustomerActive,
	}
	if err := validate.Struct(c); err != nil {
		return wire.NewValidationError("customer: %v", err)
	}

	s.nextCustID++
	c.ID = s.nextCustID
	s.customers[c.ID] = c
	s.byUsername[c.Username] = c.ID
	s.byCard[c.Card] = c.ID
	return nil
}

func (s *Store) updateCustomer(o wire.UpdateCustomer) error {
	id, ok := s.byUsername[o.Username]
	if !ok {
		return wire.NewValidationError("unknown username %q", o.Username)
	}
	c := s.customers[id]
	if o.Card != c.Card {
		if other, exists := s.byCard[o.Card]; exists && other != id {
			return wire.NewValidationError("card %q already registered", o.Card)
		}
		delete(s.byCard, c.Card)
		s.byCard[o.Card] = id
	}
	c.Name, c.Address, c.Card = o.Name, o.Address, o.Card
	return nil
}

func (s *Store) setCustomerStatus(username string, status CustomerStatus) error {
	id, ok := s.byUsername[username]
	if !ok {
		return wire.NewValidationError("unknown username %q", username)
	}
	s.customers[id].Status = status
	return nil
}

// ─── Articles ───────────────────────────────────────────────────────────────

func (s *Store) createArticle(o wire.CreateArticle) error {
	if _, exists := s.byCode[o.Code]; exists {
		return wire.NewValidationError("article code %q already exists", o.Code)
	}
	price, err := wire.ParseFloat(o.Price)
	if err != nil {
		return wire.NewValidationError("price %q is not numeric", o.Price)
	}

	a := &Article{
		Code:     o.Code,
		Name:     o.Name,
		Price:    price,
		BranchID: o.BranchID,
		Status:   StockAvailable,
	}
	if err := validate.Struct(a); err != nil {
		return wire.NewValidationError("article: %v", err)
	}

	s.nextArtID++
	a.ID = s.nextArtID
	s.articles[a.ID] = a
	s.byCode[a.Code] = a.ID
	return nil
}

func (s *Store) updateArticle(o wire.UpdateArticle) error {
	id, ok := s.byCode[o.Code]
	if !ok {
		return wire.NewValidationError("unknown article code %q", o.Code)
	}
	price, err := wire.ParseFloat(o.Price)
	if err != nil {
		return wire.NewValidationError("price %q is not numeric", o.Price)
	}
	a := s.articles[id]
	a.Name, a.Price = o.Name, price
	return nil
}

func (s *Store) restockArticle(o wire.RestockArticle) error {
	id, ok := s.byCode[o.Code]
	if !ok {
		return wire.NewValidationError("unknown article code %q", o.Code)
	}
	s.articles[id].Status = StockAvailable
	return nil
}

func (s *Store) deactivateArticle(o wire.DeactivateArticle) error {
	id, ok := s.byCode[o.Code]
	if !ok {
		return wire.NewValidationError("unknown article code %q", o.Code)
	}
	s.articles[id].Status = StockOutOfStock
	return nil
}

// ─── Shipping guides ────────────────────────────────────────────────────────

func (s *Store) createShippingGuide(o wire.CreateShippingGuide) error {
	if _, exists := s.bySerial[o.Serial]; exists {
		return wire.NewValidationError("serial %q already used", o.Serial)
	}
	custID, err := wire.ParseInt(o.CustomerID)
	if err != nil {
		return wire.NewValidationError("customer id %q is not numeric", o.CustomerID)
	}
	artID, err := wire.ParseInt(o.ArticleID)
	if err != nil {
		return wire.NewValidationError("article id %q is not numeric", o.ArticleID)
	}
	amount, err := wire.ParseFloat(o.Amount)
	if err != nil {
		return wire.NewValidationError("amount %q is not numeric", o.Amount)
	}

	customer, ok := s.customers[custID]
	if !ok {
		return wire.NewValidationError("unknown customer id %d", custID)
	}
	if customer.Status != CustomerActive {
		return wire.NewValidationError("customer %q is not active", customer.Username)
	}
	article, ok := s.articles[artID]
	if !ok {
		return wire.NewValidationError("unknown article id %d", artID)
	}
	if article.Status != StockAvailable {
		return wire.NewValidationError("article %q is out of stock", article.Code)
	}

	purchaseTS, err := time.Parse("2006-01-02 15:04:05", o.PurchaseTS)
	if err != nil {
		return wire.NewValidationError("purchase timestamp %q is malformed", o.PurchaseTS)
	}

	g := &ShippingGuide{
		CustomerID: custID,
		ArticleID:  artID,
		BranchID:   o.BranchID,
		Serial:     o.Serial,
		Amount:     amount,
		PurchaseTS: purchaseTS,
	}
	if err := validate.Struct(g); err != nil {
		return wire.NewValidationError("shipping guide: %v", err)
	}

	s.nextGdeID++
	g.ID = s.nextGdeID
	s.guides[g.ID] = g
	s.bySerial[g.Serial] = g.ID

	// Depleting the article is part of the same decided command; it
	// must not be visible without the guide row, or vice versa.
	article.Status = StockOutOfStock
	return nil
}

// ─── Read accessors (admin HTTP surface, UI "read" menus) ──────────────────

func (s *Store) ListCustomers() []Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, *c)
	}
	return out
}

func (s *Store) ListArticles() []Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Article, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, *a)
	}
	return out
}

func (s *Store) ListShippingGuides() []ShippingGuide {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ShippingGuide, 0, len(s.guides))
	for _, g := range s.guides {
		out = append(out, *g)
	}
	return out
}

func (s *Store) CustomerByUsername(username string) (Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return Customer{}, false
	}
	return *s.customers[id], true
}

// CardInUse reports whether card already belongs to a customer, so a
// caller can reject a duplicate before a round is initiated rather than
// only at APPLY-LOCAL time.
func (s *Store) CardInUse(card string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.byCard[card]
	return exists
}

func (s *Store) ArticleByCode(code string) (Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return Article{}, false
	}
	return *s.articles[id], true
}

// ─── Snapshot ────────────────────────────────────────────────────────────────

// Snapshot saves the entire in-memory state to disk via a temp file and
// an atomic rename, then truncates the WAL — everything it held is now
// captured in the snapshot.
func (s *Store) Snapshot() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := snapshotDoc{
		Customers: make([]Customer, 0, len(s.customers)),
		Articles:  make([]Article, 0, len(s.articles)),
		Guides:    make([]ShippingGuide, 0, len(s.guides)),
		NextIDs:   [3]int64{s.nextCustID, s.nextArtID, s.nextGdeID},
	}
	for _, c := range s.customers {
		doc.Customers = append(doc.Customers, *c)
	}
	for _, a := range s.articles {
		doc.Articles = append(doc.Articles, *a)
	}
	for _, g := range s.guides {
		doc.Guides = append(doc.Guides, *g)
	}

	path := filepath.Join(s.dataDir, "snapshot.json")
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(doc); err != nil {
		f.Close()
		return err
	}
	f.Close()

	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	return s.wal.truncate()
}

// loadSnapshot loads snapshot.json, if present, into memory. Absence is
// not an error — a brand new node simply starts empty.
func (s *Store) loadSnapshot() error {
	path := filepath.Join(s.dataDir, "snapshot.json")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	var doc snapshotDoc
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return err
	}

	for i := range doc.Customers {
		c := doc.Customers[i]
		s.customers[c.ID] = &c
		s.byUsername[c.Username] = c.ID
		s.byCard[c.Card] = c.ID
	}
	for i := range doc.Articles {
		a := doc.Articles[i]
		s.articles[a.ID] = &a
		s.byCode[a.Code] = a.ID
	}
	for i := range doc.Guides {
		g := doc.Guides[i]
		s.guides[g.ID] = &g
		s.bySerial[g.Serial] = g.ID
	}
	s.nextCustID, s.nextArtID, s.nextGdeID = doc.NextIDs[0], doc.NextIDs[1], doc.NextIDs[2]
	return nil
}

// replayWAL re-applies every WAL entry written since the last snapshot.
// It does not re-append to the WAL — it is only rebuilding memory.
func (s *Store) replayWAL() error {
	entries, err := s.wal.readAll()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		op, err := wire.Decode(e.Command)
		if err != nil {
			return fmt.Errorf("replay wal: decode %q: %w", e.Command, err)
		}
		if err := s.replayApply(op); err != nil {
			return fmt.Errorf("replay wal: apply %q: %w", e.Command, err)
		}
	}
	return nil
}

// Close closes the WAL file. Call this during shutdown.
func (s *Store) Close() error {
	return s.wal.close()
}
