package wire

import (
	"strconv"
	"strings"
)

// Verb is the canonical string tag for a mutating operation. The codec is
// the only place in the codebase allowed to name these strings.
type Verb string

const (
	VerbCreateCustomer      Verb = "create_cliente"
	VerbUpdateCustomer      Verb = "update_cliente"
	VerbActivateCustomer    Verb = "activate_cliente"
	VerbDeactivateCustomer  Verb = "deactivate_cliente"
	VerbCreateArticle       Verb = "create_articulo"
	VerbUpdateArticle       Verb = "update_articulo"
	VerbRestockArticle      Verb = "restock_articulo"
	VerbDeactivateArticle   Verb = "deactivate_articulo"
	VerbCreateShippingGuide Verb = "create_guia_envio"
)

// Op is the tagged variant over every mutating operation the cluster can
// replicate. Each concrete type owns its own encode/decode logic; Encode
// and Decode at package level are the only entry points that switch on a
// Verb string.
type Op interface {
	Verb() Verb
	fields() []string
}

// Encode renders op as the canonical pipe-delimited command string.
// Field values must not themselves contain '|' — the grammar defines no
// escaping.
func Encode(op Op) string {
	parts := append([]string{string(op.Verb())}, op.fields()...)
	return strings.Join(parts, "|")
}

// Decode parses a canonical command string back into an Op. It returns a
// ProtocolError for an unknown verb or wrong arity.
func Decode(s string) (Op, error) {
	parts := strings.Split(s, "|")
	if len(parts) == 0 {
		return nil, NewProtocolError("empty command")
	}
	verb := Verb(parts[0])
	args := parts[1:]

	switch verb {
	case VerbCreateCustomer:
		if len(args) != 4 {
			return nil, arityError(verb, 4, len(args))
		}
		return CreateCustomer{Username: args[0], Name: args[1], Address: args[2], Card: args[3]}, nil
	case VerbUpdateCustomer:
		if len(args) != 4 {
			return nil, arityError(verb, 4, len(args))
		}
		return UpdateCustomer{Username: args[0], Name: args[1], Address: args[2], Card: args[3]}, nil
	case VerbActivateCustomer:
		if len(args) != 1 {
			return nil, arityError(verb, 1, len(args))
		}
		return ActivateCustomer{Username: args[0]}, nil
	case VerbDeactivateCustomer:
		if len(args) != 1 {
			return nil, arityError(verb, 1, len(args))
		}
		return DeactivateCustomer{Username: args[0]}, nil
	case VerbCreateArticle:
		if len(args) != 4 {
			return nil, arityError(verb, 4, len(args))
		}
		return CreateArticle{Code: args[0], Name: args[1], Price: args[2], BranchID: args[3]}, nil
	case VerbUpdateArticle:
		if len(args) != 3 {
			return nil, arityError(verb, 3, len(args))
		}
		return UpdateArticle{Code: args[0], Name: args[1], Price: args[2]}, nil
	case VerbRestockArticle:
		if len(args) != 1 {
			return nil, arityError(verb, 1, len(args))
		}
		return RestockArticle{Code: args[0]}, nil
	case VerbDeactivateArticle:
		if len(args) != 1 {
			return nil, arityError(verb, 1, len(args))
		}
		return DeactivateArticle{Code: args[0]}, nil
	case VerbCreateShippingGuide:
		if len(args) != 6 {
			return nil, arityError(verb, 6, len(args))
		}
		return CreateShippingGuide{
			CustomerID: args[0], ArticleID: args[1], BranchID: args[2],
			Serial: args[3], Amount: args[4], PurchaseTS: args[5],
		}, nil
	default:
		return nil, NewProtocolError("unknown verb %q", verb)
	}
}

func arityError(v Verb, want, got int) error {
	return NewProtocolError("verb %q expects %d fields, got %d", v, want, got)
}

// ─── Concrete ops ───────────────────────────────────────────────────────────

type CreateCustomer struct{ Username, Name, Address, Card string }

func (CreateCustomer) Verb() Verb       { return VerbCreateCustomer }
func (o CreateCustomer) fields() []string { return []string{o.Username, o.Name, o.Address, o.Card} }

type UpdateCustomer struct{ Username, Name, Address, Card string }

func (UpdateCustomer) Verb() Verb       { return VerbUpdateCustomer }
func (o UpdateCustomer) fields() []string { return []string{o.Username, o.Name, o.Address, o.Card} }

type ActivateCustomer struct{ Username string }

func (ActivateCustomer) Verb() Verb       { return VerbActivateCustomer }
func (o ActivateCustomer) fields() []string { return []string{o.Username} }

type DeactivateCustomer struct{ Username string }

func (DeactivateCustomer) Verb() Verb       { return VerbDeactivateCustomer }
func (o DeactivateCustomer) fields() []string { return []string{o.Username} }

type CreateArticle struct{ Code, Name, Price, BranchID string }

func (CreateArticle) Verb() Verb       { return VerbCreateArticle }
func (o CreateArticle) fields() []string { return []string{o.Code, o.Name, o.Price, o.BranchID} }

type UpdateArticle struct{ Code, Name, Price string }

func (UpdateArticle) Verb() Verb       { return VerbUpdateArticle }
func (o UpdateArticle) fields() []string { return []string{o.Code, o.Name, o.Price} }

type RestockArticle struct{ Code string }

func (RestockArticle) Verb() Verb       { return VerbRestockArticle }
func (o RestockArticle) fields() []string { return []string{o.Code} }

type DeactivateArticle struct{ Code string }

func (DeactivateArticle) Verb() Verb       { return VerbDeactivateArticle }
func (o DeactivateArticle) fields() []string { return []string{o.Code} }

type CreateShippingGuide struct{ CustomerID, ArticleID, BranchID, Serial, Amount, PurchaseTS string }

func (CreateShippingGuide) Verb() Verb { return VerbCreateShippingGuide }
func (o CreateShippingGuide) fields() []string {
	return []string{o.CustomerID, o.ArticleID, o.BranchID, o.Serial, o.Amount, o.PurchaseTS}
}

// ParseInt is a small helper used by store.Apply to turn the codec's
// string fields into numeric types; kept here so the codec and its
// callers agree on numeric formatting (no escaping, no locale quirks).
func ParseInt(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

// ParseFloat mirrors ParseInt for price/amount fields.
func ParseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
