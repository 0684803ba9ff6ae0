package fields

import (
	"encoding/json"
	"testing"

	"github.com/practicemarket/practicemarket-golang/internal/models"
)

func fptr(f float64) *float64 { return &f }
func iptr(n int) *int         { return &n }

func sampleListing() *models.Listing {
	return &models.Listing{
		ID:           1,
		Title:        "GP Practice, Leeds",
		Description:  "Long established NHS practice.",
		BusinessType: models.BusinessTypeFullSale,
		Location:     "Leeds",
		Status:       models.ListingStatusPublished,
		AskingPrice:  fptr(500000),
		FinancialData: models.FinancialData{
			AskingPrice:   fptr(500000),
			AnnualRevenue: fptr(820000),
			NetProfit:     fptr(210000),
		},
		BusinessDetails: models.BusinessDetails{
			PatientListSize: iptr(4200),
			StaffCount:      iptr(9),
			AnnualRevenue:   fptr(820000),
			NetProfit:       fptr(210000),
			BusinessSummary: "Long established NHS practice.",
		},
	}
}

func change(path, rawValue string) models.PendingChange {
	return models.PendingChange{FieldPath: path, NewValue: json.RawMessage(rawValue)}
}

func TestResolveNoPendingChangesUsesPersisted(t *testing.T) {
	l := sampleListing()

	for _, id := range All() {
		r := Resolve(id, l, nil)
		if r.UnderReview {
			t.Errorf("%s: UnderReview = true with no pending changes", id.Path())
		}
		if r.Source == SourcePending {
			t.Errorf("%s: resolved from pending with no pending changes", id.Path())
		}
	}

	if r := Resolve(AskingPrice, l, nil); r.Value != 500000.0 || r.Source != SourcePersisted {
		t.Errorf("asking price = %v (source %d), want 500000 persisted", r.Value, r.Source)
	}
}

// A pending change for financial_data.asking_price stored as a full
// sub-object must surface the nested value with the review badge, and must
// not disturb sibling financial fields.
func TestResolveCompoundPendingChange(t *testing.T) {
	l := sampleListing()
	changes := []models.PendingChange{
		change("financial_data.asking_price", `{"asking_price": 650000}`),
	}

	r := Resolve(AskingPrice, l, changes)
	if r.Value != 650000.0 {
		t.Fatalf("asking price = %v, want 650000", r.Value)
	}
	if !r.UnderReview || r.Source != SourcePending {
		t.Fatalf("asking price: UnderReview=%v source=%d, want pending under review", r.UnderReview, r.Source)
	}

	// Siblings keep persisted values, no badge.
	if r := Resolve(AnnualRevenue, l, changes); r.Value != 820000.0 || r.UnderReview {
		t.Errorf("annual revenue = %v (under review %v), want persisted 820000", r.Value, r.UnderReview)
	}
	if r := Resolve(NetProfit, l, changes); r.Value != 210000.0 || r.UnderReview {
		t.Errorf("net profit = %v (under review %v), want persisted 210000", r.Value, r.UnderReview)
	}
}

func TestResolveFlatPendingChangeTakenWholesale(t *testing.T) {
	l := sampleListing()
	changes := []models.PendingChange{
		change("title", `"GP Practice, Leeds (Reduced)"`),
	}

	r := Resolve(Title, l, changes)
	if r.Value != "GP Practice, Leeds (Reduced)" || !r.UnderReview {
		t.Fatalf("title = %v (under review %v), want pending value under review", r.Value, r.UnderReview)
	}
}

// Legacy listings without a structured patient count fall back to parsing
// the free-text summary.
func TestResolveLegacyPatientListSize(t *testing.T) {
	l := sampleListing()
	l.BusinessDetails.PatientListSize = nil
	l.BusinessDetails.BusinessSummary = "Busy suburban surgery, ~3500 patients, two partners retiring."

	r := Resolve(PatientListSize, l, nil)
	if r.Value != 3500 {
		t.Fatalf("patient list size = %v, want 3500", r.Value)
	}
	if r.Source != SourceLegacy || r.UnderReview {
		t.Fatalf("source = %d, under review = %v, want legacy and no badge", r.Source, r.UnderReview)
	}
}

// A null pending value keeps the badge but must not discard the fallback
// chain below it.
func TestResolveNullPendingKeepsFallback(t *testing.T) {
	l := sampleListing()
	l.BusinessDetails.PatientListSize = nil
	l.BusinessDetails.BusinessSummary = "Roughly 2,800 patients on the list."
	changes := []models.PendingChange{
		change("business_details.patient_list_size", `null`),
	}

	r := Resolve(PatientListSize, l, changes)
	if r.Value != 2800 {
		t.Fatalf("patient list size = %v, want legacy-parsed 2800", r.Value)
	}
	if !r.UnderReview {
		t.Fatal("expected UnderReview badge for field with a pending record")
	}
	if r.Source != SourceLegacy {
		t.Fatalf("source = %d, want legacy", r.Source)
	}
}

func TestResolveCompoundMissingKeyFallsThrough(t *testing.T) {
	l := sampleListing()
	changes := []models.PendingChange{
		change("financial_data.asking_price", `{"ebitda": 90000}`),
	}

	r := Resolve(AskingPrice, l, changes)
	if r.Value != 500000.0 || r.Source != SourcePersisted {
		t.Fatalf("asking price = %v (source %d), want persisted 500000", r.Value, r.Source)
	}
	if !r.UnderReview {
		t.Fatal("expected UnderReview badge even though the value fell through")
	}
}

func TestResolveDefaultWhenNothingKnown(t *testing.T) {
	l := &models.Listing{ID: 2, Status: models.ListingStatusDraft}

	if r := Resolve(Title, l, nil); r.Value != "" || r.Source != SourceDefault {
		t.Errorf("title = %v (source %d), want empty default", r.Value, r.Source)
	}
	if r := Resolve(AskingPrice, l, nil); r.Value != nil || r.Source != SourceDefault {
		t.Errorf("asking price = %v (source %d), want nil default", r.Value, r.Source)
	}
}

func TestResolveIdempotent(t *testing.T) {
	l := sampleListing()
	changes := []models.PendingChange{
		change("financial_data.asking_price", `{"asking_price": 650000}`),
		change("title", `"New title"`),
	}

	first := ResolveAll(l, changes)
	second := ResolveAll(l, changes)
	for _, id := range All() {
		if first[id] != second[id] {
			t.Errorf("%s: resolution not stable across calls", id.Path())
		}
	}
}

func TestApplyChangeSet(t *testing.T) {
	l := sampleListing()
	changes := []models.PendingChange{
		change("financial_data.asking_price", `{"asking_price": 650000}`),
		change("financial_data.annual_revenue", `{"annual_revenue": 900000}`),
		change("title", `"GP Practice, Leeds (Updated)"`),
		change("business_details.patient_list_size", `4500`),
	}

	if err := Apply(l, changes); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if l.Title != "GP Practice, Leeds (Updated)" {
		t.Errorf("title = %q", l.Title)
	}
	if l.FinancialData.AskingPrice == nil || *l.FinancialData.AskingPrice != 650000 {
		t.Errorf("financial asking price = %v", l.FinancialData.AskingPrice)
	}
	if l.AskingPrice == nil || *l.AskingPrice != 650000 {
		t.Errorf("flat asking price column = %v", l.AskingPrice)
	}
	// Revenue duplication maintained in both groups.
	if l.BusinessDetails.AnnualRevenue == nil || *l.BusinessDetails.AnnualRevenue != 900000 {
		t.Errorf("business details annual revenue = %v", l.BusinessDetails.AnnualRevenue)
	}
	if l.BusinessDetails.PatientListSize == nil || *l.BusinessDetails.PatientListSize != 4500 {
		t.Errorf("patient list size = %v", l.BusinessDetails.PatientListSize)
	}
}

func TestApplyUnknownPathFails(t *testing.T) {
	l := sampleListing()
	changes := []models.PendingChange{change("financial_data.valuation_basis", `"multiple"`)}

	if err := Apply(l, changes); err == nil {
		t.Fatal("expected error for unknown field path")
	}
}

func TestParsePatientListSize(t *testing.T) {
	cases := []struct {
		summary string
		want    int
		ok      bool
	}{
		{"Busy surgery, ~3500 patients, freehold", 3500, true},
		{"list of 12,400 patients across two sites", 12400, true},
		{"2000+ patients", 2000, true},
		{"no numbers here", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := ParsePatientListSize(c.summary)
		if got != c.want || ok != c.ok {
			t.Errorf("ParsePatientListSize(%q) = %d, %v; want %d, %v", c.summary, got, ok, c.want, c.ok)
		}
	}
}
