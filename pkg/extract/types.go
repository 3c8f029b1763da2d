package extract

// Intent classifies what the user is asking for.
type Intent string

const (
	// IntentOrder means the user wants to place a parcel order.
	IntentOrder Intent = "order"
	// IntentStatus means the user asks about existing orders.
	IntentStatus Intent = "status"
	// IntentInquiry covers everything else, including failed extractions.
	IntentInquiry Intent = "inquiry"
)

// Item is one product line inside an order draft.
type Item struct {
	Name     string `json:"nombre"`
	Quantity int    `json:"cantidad"`
}

// OrderDraft is the structured, possibly-incomplete reading of the user's
// message. Facility, InmateRef and Notes are empty when unknown.
type OrderDraft struct {
	Intent    Intent
	Facility  string
	InmateRef string
	Items     []Item
	Notes     string
}

// Orderable reports whether the draft carries enough data to attempt order
// creation against the backend.
func (d OrderDraft) Orderable() bool {
	return d.Intent == IntentOrder && len(d.Items) > 0
}

// Outcome tags how a Result was produced.
type Outcome int

const (
	// OutcomeOK means the remote payload decoded cleanly.
	OutcomeOK Outcome = iota
	// OutcomeMalformed means the remote payload did not match the schema.
	OutcomeMalformed
	// OutcomeUnavailable means the remote call itself failed.
	OutcomeUnavailable
)

// Result is what the engine hands to the orchestrator. It is always
// well-formed: fallback results carry IntentInquiry, no items, and a
// non-empty ReplyText steering the user toward facility and items.
type Result struct {
	ReplyText string
	Draft     OrderDraft
	Outcome   Outcome
}
