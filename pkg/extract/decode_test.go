package extract

import "testing"

func TestDecodePayloadOrder(t *testing.T) {
	t.Parallel()

	raw := `{
		"respuesta_chavito": "Dale, te armo el pedido.",
		"pedido": {
			"tipo": "pedido",
			"penal": "Unidad 28",
			"interno": "Juan Pérez",
			"productos": [
				{"nombre": "yerba", "cantidad": 2},
				{"nombre": "jabón", "cantidad": 1}
			],
			"observaciones": "entregar de mañana"
		}
	}`

	result, err := decodePayload(raw)
	if err != nil {
		t.Fatalf("decodePayload error: %v", err)
	}

	if result.ReplyText != "Dale, te armo el pedido." {
		t.Fatalf("ReplyText = %q", result.ReplyText)
	}
	if result.Outcome != OutcomeOK {
		t.Fatalf("Outcome = %d, want OutcomeOK", result.Outcome)
	}

	draft := result.Draft
	if draft.Intent != IntentOrder {
		t.Fatalf("Intent = %q, want order", draft.Intent)
	}
	if draft.Facility != "Unidad 28" || draft.InmateRef != "Juan Pérez" {
		t.Fatalf("Facility/InmateRef = %q/%q", draft.Facility, draft.InmateRef)
	}
	if len(draft.Items) != 2 {
		t.Fatalf("Items len = %d, want 2", len(draft.Items))
	}
	if draft.Items[0].Name != "yerba" || draft.Items[0].Quantity != 2 {
		t.Fatalf("Items[0] = %+v", draft.Items[0])
	}
	if draft.Notes != "entregar de mañana" {
		t.Fatalf("Notes = %q", draft.Notes)
	}
	if !draft.Orderable() {
		t.Fatal("draft should be orderable")
	}
}

func TestDecodePayloadNullOptionalFields(t *testing.T) {
	t.Parallel()

	raw := `{
		"respuesta_chavito": "¿A qué penal querés mandar?",
		"pedido": {"tipo": "consulta", "penal": null, "interno": null, "productos": [], "observaciones": null}
	}`

	result, err := decodePayload(raw)
	if err != nil {
		t.Fatalf("decodePayload error: %v", err)
	}

	draft := result.Draft
	if draft.Intent != IntentInquiry {
		t.Fatalf("Intent = %q, want inquiry", draft.Intent)
	}
	if draft.Facility != "" || draft.InmateRef != "" || draft.Notes != "" {
		t.Fatalf("optional fields not empty: %+v", draft)
	}
	if len(draft.Items) != 0 {
		t.Fatalf("Items len = %d, want 0", len(draft.Items))
	}
	if draft.Orderable() {
		t.Fatal("inquiry draft must not be orderable")
	}
}

func TestDecodePayloadUnknownTypeDegradesToInquiry(t *testing.T) {
	t.Parallel()

	raw := `{"respuesta_chavito": "ok", "pedido": {"tipo": "reclamo", "productos": []}}`

	result, err := decodePayload(raw)
	if err != nil {
		t.Fatalf("decodePayload error: %v", err)
	}
	if result.Draft.Intent != IntentInquiry {
		t.Fatalf("Intent = %q, want inquiry", result.Draft.Intent)
	}
}

func TestDecodePayloadCoercesQuantities(t *testing.T) {
	t.Parallel()

	raw := `{
		"respuesta_chavito": "ok",
		"pedido": {"tipo": "pedido", "productos": [
			{"nombre": "yerba", "cantidad": 0},
			{"nombre": "  ", "cantidad": 3},
			{"nombre": "azúcar", "cantidad": 2.9}
		]}
	}`

	result, err := decodePayload(raw)
	if err != nil {
		t.Fatalf("decodePayload error: %v", err)
	}

	items := result.Draft.Items
	if len(items) != 2 {
		t.Fatalf("Items len = %d, want 2 (blank names dropped)", len(items))
	}
	if items[0].Quantity != 1 {
		t.Fatalf("zero quantity coerced to %d, want 1", items[0].Quantity)
	}
	if items[1].Quantity != 2 {
		t.Fatalf("fractional quantity truncated to %d, want 2", items[1].Quantity)
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "not json", `{"pedido": {}}`, `[1,2,3]`} {
		if _, err := decodePayload(raw); err == nil {
			t.Fatalf("decodePayload(%q) succeeded, want error", raw)
		}
	}
}

func TestIntentFromType(t *testing.T) {
	t.Parallel()

	cases := map[string]Intent{
		"pedido":  IntentOrder,
		" Estado": IntentStatus,
		"consulta": IntentInquiry,
		"":         IntentInquiry,
		"other":    IntentInquiry,
	}

	for input, want := range cases {
		if got := intentFromType(input); got != want {
			t.Fatalf("intentFromType(%q) = %q, want %q", input, got, want)
		}
	}
}
