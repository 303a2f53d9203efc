package node

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nomadgto/dist-syst/internal/store"
	"github.com/nomadgto/dist-syst/internal/wire"
)

// UI drives the five-entry interactive menu (customers, articles,
// shipping guides, branch status, exit) that talks to a Supervisor.
type UI struct {
	sup *Supervisor
	in  *bufio.Scanner
	out io.Writer
}

// NewUI builds a UI reading from in and writing to out.
func NewUI(sup *Supervisor, in io.Reader, out io.Writer) *UI {
	return &UI{sup: sup, in: bufio.NewScanner(in), out: out}
}

func (u *UI) prompt(label string) string {
	fmt.Fprint(u.out, label)
	u.in.Scan()
	return strings.TrimSpace(u.in.Text())
}

// Run drives the main menu loop until the user exits.
func (u *UI) Run() {
	for {
		fmt.Fprintln(u.out, "\n=== Main Menu ===")
		fmt.Fprintln(u.out, "1. Customer Operations")
		fmt.Fprintln(u.out, "2. Article Operations")
		fmt.Fprintln(u.out, "3. Shipping Guide Operations")
		fmt.Fprintln(u.out, "4. Branch Status")
		fmt.Fprintln(u.out, "0. Exit")

		switch u.prompt(">> Choose an option: ") {
		case "1":
			u.customerMenu()
		case "2":
			u.articleMenu()
		case "3":
			u.guideMenu()
		case "4":
			u.branchStatus()
		case "0":
			return
		default:
			fmt.Fprintln(u.out, ">> Invalid option, try again.")
		}
	}
}

func (u *UI) customerMenu() {
	for {
		fmt.Fprintln(u.out, "\n=== Customer Operations ===")
		fmt.Fprintln(u.out, "1. Create Customer")
		fmt.Fprintln(u.out, "2. List Customers")
		fmt.Fprintln(u.out, "3. Update Customer")
		fmt.Fprintln(u.out, "4. Activate Customer")
		fmt.Fprintln(u.out, "5. Deactivate Customer")
		fmt.Fprintln(u.out, "0. Back")

		switch u.prompt(">> Choose an option: ") {
		case "1":
			u.createCustomer()
		case "2":
			u.listCustomers()
		case "3":
			u.updateCustomer()
		case "4":
			u.setCustomerStatus(true)
		case "5":
			u.setCustomerStatus(false)
		case "0":
			return
		default:
			fmt.Fprintln(u.out, ">> Invalid option, try again.")
		}
	}
}

func (u *UI) createCustomer() {
	username := u.prompt(">> Username: ")
	if _, exists := u.sup.Store.CustomerByUsername(username); exists {
		fmt.Fprintln(u.out, ">> That username already exists.")
		return
	}
	name := u.prompt(">> Name: ")
	address := u.prompt(">> Address: ")
	card := u.prompt(">> Card number: ")
	if u.sup.Store.CardInUse(card) {
		fmt.Fprintln(u.out, ">> That card number is already registered.")
		return
	}

	u.run(wire.CreateCustomer{Username: username, Name: name, Address: address, Card: card})
}

func (u *UI) updateCustomer() {
	username := u.prompt(">> Username to update: ")
	existing, exists := u.sup.Store.CustomerByUsername(username)
	if !exists {
		fmt.Fprintln(u.out, ">> No customer with that username.")
		return
	}
	name := u.prompt(">> New name: ")
	address := u.prompt(">> New address: ")
	card := u.prompt(">> New card number: ")
	if card != existing.Card && u.sup.Store.CardInUse(card) {
		fmt.Fprintln(u.out, ">> That card number is already registered.")
		return
	}

	u.run(wire.UpdateCustomer{Username: username, Name: name, Address: address, Card: card})
}

func (u *UI) setCustomerStatus(active bool) {
	username := u.prompt(">> Username: ")
	if active {
		u.run(wire.ActivateCustomer{Username: username})
	} else {
		u.run(wire.DeactivateCustomer{Username: username})
	}
}

func (u *UI) listCustomers() {
	for _, c := range u.sup.Store.ListCustomers() {
		fmt.Fprintf(u.out, "  #%d %-12s %-20s %-10s %s\n", c.ID, c.Username, c.Name, c.Card, c.Status)
	}
}

func (u *UI) articleMenu() {
	for {
		fmt.Fprintln(u.out, "\n=== Article Operations ===")
		fmt.Fprintln(u.out, "1. Create Article")
		fmt.Fprintln(u.out, "2. List Articles")
		fmt.Fprintln(u.out, "3. Update Article")
		fmt.Fprintln(u.out, "4. Restock Article")
		fmt.Fprintln(u.out, "5. Deactivate Article")
		fmt.Fprintln(u.out, "0. Back")

		switch u.prompt(">> Choose an option: ") {
		case "1":
			u.createArticle()
		case "2":
			u.listArticles()
		case "3":
			u.updateArticle()
		case "4":
			u.restockArticle()
		case "5":
			u.deactivateArticle()
		case "0":
			return
		default:
			fmt.Fprintln(u.out, ">> Invalid option, try again.")
		}
	}
}

func (u *UI) createArticle() {
	code := u.prompt(">> Article code: ")
	if _, exists := u.sup.Store.ArticleByCode(code); exists {
		fmt.Fprintln(u.out, ">> That code already exists.")
		return
	}
	name := u.prompt(">> Name: ")
	price := u.prompt(">> Price: ")

	branch := fmt.Sprintf("%d", u.sup.Registry.SelfID())
	u.run(wire.CreateArticle{Code: code, Name: name, Price: price, BranchID: branch})
}

func (u *UI) updateArticle() {
	code := u.prompt(">> Article code to update: ")
	if _, exists := u.sup.Store.ArticleByCode(code); !exists {
		fmt.Fprintln(u.out, ">> No article with that code.")
		return
	}
	name := u.prompt(">> New name: ")
	price := u.prompt(">> New price: ")
	u.run(wire.UpdateArticle{Code: code, Name: name, Price: price})
}

func (u *UI) restockArticle() {
	code := u.prompt(">> Article code to restock: ")
	u.run(wire.RestockArticle{Code: code})
}

func (u *UI) deactivateArticle() {
	code := u.prompt(">> Article code to deactivate: ")
	u.run(wire.DeactivateArticle{Code: code})
}

func (u *UI) listArticles() {
	for _, a := range u.sup.Store.ListArticles() {
		fmt.Fprintf(u.out, "  #%d %-12s %-20s %8.2f %s\n", a.ID, a.Code, a.Name, a.Price, a.Status)
	}
}

func (u *UI) guideMenu() {
	for {
		fmt.Fprintln(u.out, "\n=== Shipping Guide Operations ===")
		fmt.Fprintln(u.out, "1. Purchase")
		fmt.Fprintln(u.out, "2. List Shipping Guides")
		fmt.Fprintln(u.out, "0. Back")

		switch u.prompt(">> Choose an option: ") {
		case "1":
			u.createShippingGuide()
		case "2":
			u.listShippingGuides()
		case "0":
			return
		default:
			fmt.Fprintln(u.out, ">> Invalid option, try again.")
		}
	}
}

func (u *UI) createShippingGuide() {
	username := u.prompt(">> Customer username: ")
	customer, ok := u.sup.Store.CustomerByUsername(username)
	if !ok || customer.Status != store.CustomerActive {
		fmt.Fprintln(u.out, ">> Unknown or inactive customer.")
		return
	}
	code := u.prompt(">> Article code: ")
	article, ok := u.sup.Store.ArticleByCode(code)
	if !ok || article.Status != store.StockAvailable {
		fmt.Fprintln(u.out, ">> Unknown or out-of-stock article.")
		return
	}
	serial := u.prompt(">> Serial number: ")
	amount := u.prompt(">> Total amount: ")

	u.run(wire.CreateShippingGuide{
		CustomerID: fmt.Sprintf("%d", customer.ID),
		ArticleID:  fmt.Sprintf("%d", article.ID),
		BranchID:   fmt.Sprintf("%d", u.sup.Registry.SelfID()),
		Serial:     serial,
		Amount:     amount,
		PurchaseTS: time.Now().UTC().Format("2006-01-02 15:04:05"),
	})
}

func (u *UI) listShippingGuides() {
	for _, g := range u.sup.Store.ListShippingGuides() {
		fmt.Fprintf(u.out, "  #%d customer=%d article=%d serial=%s amount=%.2f\n", g.ID, g.CustomerID, g.ArticleID, g.Serial, g.Amount)
	}
}

func (u *UI) branchStatus() {
	for _, n := range u.sup.Registry.All() {
		role := ""
		if n.IsMaster {
			role = " (master)"
		}
		fmt.Fprintf(u.out, "  branch %d  %s  up=%v%s\n", n.ID, n.IP, n.Up, role)
	}
}

// run sends op through the Supervisor's full lock-acquire/quorum/
// release path and reports the outcome.
func (u *UI) run(op wire.Op) {
	if err := u.sup.Apply(op); err != nil {
		fmt.Fprintf(u.out, ">> Error: %v\n", err)
		return
	}
	fmt.Fprintln(u.out, ">> Done.")
}
