// Package fields defines the closed set of editable listing fields and the
// logic that reconciles a listing's persisted values with an outstanding
// pending-change set. The same field table drives both sides: the client
// resolves what the edit form should display, and the server applies an
// approved change set back onto the listing.
package fields

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/practicemarket/practicemarket-golang/internal/models"
)

// ID identifies one editable field. Pending changes address fields by
// dot-path on the wire; inside the codebase everything goes through this
// enum so there are no stringly-typed lookups outside FromPath.
type ID int

const (
	Title ID = iota
	Description
	BusinessType
	Location
	AskingPrice
	AnnualRevenue
	NetProfit
	EBITDA
	PatientListSize
	StaffCount
	Premises
	PracticeType
	BusinessSummary
)

// Kind is the value type a field decodes to.
type Kind int

const (
	KindString Kind = iota
	KindMoney       // float64
	KindCount       // int
)

// Source says where a resolved value came from.
type Source int

const (
	SourceDefault Source = iota
	SourceLegacy
	SourcePersisted
	SourcePending
)

// Resolved is the outcome of resolving one field: the value the edit form
// should display, where it came from, and whether an "Under Review" badge
// applies (a pending-change record exists for the field, even when its value
// was null and the displayed value fell through to a persisted or legacy
// source).
type Resolved struct {
	Value       any
	Source      Source
	UnderReview bool
}

type fieldSpec struct {
	path   string
	kind   Kind
	get    func(l *models.Listing) (any, bool)
	set    func(l *models.Listing, v any)
	legacy func(l *models.Listing) (any, bool)
}

var table = map[ID]fieldSpec{
	Title: {
		path: "title",
		kind: KindString,
		get:  func(l *models.Listing) (any, bool) { return l.Title, l.Title != "" },
		set:  func(l *models.Listing, v any) { l.Title = v.(string) },
	},
	Description: {
		path: "description",
		kind: KindString,
		get:  func(l *models.Listing) (any, bool) { return l.Description, l.Description != "" },
		set:  func(l *models.Listing, v any) { l.Description = v.(string) },
	},
	BusinessType: {
		path: "business_type",
		kind: KindString,
		get:  func(l *models.Listing) (any, bool) { return l.BusinessType, l.BusinessType != "" },
		set:  func(l *models.Listing, v any) { l.BusinessType = v.(string) },
	},
	Location: {
		path: "location",
		kind: KindString,
		get:  func(l *models.Listing) (any, bool) { return l.Location, l.Location != "" },
		set:  func(l *models.Listing, v any) { l.Location = v.(string) },
	},
	AskingPrice: {
		path: "financial_data.asking_price",
		kind: KindMoney,
		get: func(l *models.Listing) (any, bool) {
			if l.FinancialData.AskingPrice != nil {
				return *l.FinancialData.AskingPrice, true
			}
			// Older rows only populated the flat column.
			if l.AskingPrice != nil {
				return *l.AskingPrice, true
			}
			return nil, false
		},
		set: func(l *models.Listing, v any) {
			f := v.(float64)
			l.FinancialData.AskingPrice = &f
			l.AskingPrice = &f
		},
	},
	AnnualRevenue: {
		path: "financial_data.annual_revenue",
		kind: KindMoney,
		get: func(l *models.Listing) (any, bool) {
			if l.FinancialData.AnnualRevenue != nil {
				return *l.FinancialData.AnnualRevenue, true
			}
			if l.BusinessDetails.AnnualRevenue != nil {
				return *l.BusinessDetails.AnnualRevenue, true
			}
			return nil, false
		},
		set: func(l *models.Listing, v any) {
			f := v.(float64)
			// Kept in both groups for backward compatibility.
			l.FinancialData.AnnualRevenue = &f
			l.BusinessDetails.AnnualRevenue = &f
		},
	},
	NetProfit: {
		path: "financial_data.net_profit",
		kind: KindMoney,
		get: func(l *models.Listing) (any, bool) {
			if l.FinancialData.NetProfit != nil {
				return *l.FinancialData.NetProfit, true
			}
			if l.BusinessDetails.NetProfit != nil {
				return *l.BusinessDetails.NetProfit, true
			}
			return nil, false
		},
		set: func(l *models.Listing, v any) {
			f := v.(float64)
			l.FinancialData.NetProfit = &f
			l.BusinessDetails.NetProfit = &f
		},
	},
	EBITDA: {
		path: "financial_data.ebitda",
		kind: KindMoney,
		get: func(l *models.Listing) (any, bool) {
			if l.FinancialData.EBITDA != nil {
				return *l.FinancialData.EBITDA, true
			}
			return nil, false
		},
		set: func(l *models.Listing, v any) {
			f := v.(float64)
			l.FinancialData.EBITDA = &f
		},
	},
	PatientListSize: {
		path: "business_details.patient_list_size",
		kind: KindCount,
		get: func(l *models.Listing) (any, bool) {
			if l.BusinessDetails.PatientListSize != nil {
				return *l.BusinessDetails.PatientListSize, true
			}
			return nil, false
		},
		set: func(l *models.Listing, v any) {
			n := v.(int)
			l.BusinessDetails.PatientListSize = &n
		},
		legacy: func(l *models.Listing) (any, bool) {
			n, ok := ParsePatientListSize(l.BusinessDetails.BusinessSummary)
			if !ok {
				return nil, false
			}
			return n, true
		},
	},
	StaffCount: {
		path: "business_details.staff_count",
		kind: KindCount,
		get: func(l *models.Listing) (any, bool) {
			if l.BusinessDetails.StaffCount != nil {
				return *l.BusinessDetails.StaffCount, true
			}
			return nil, false
		},
		set: func(l *models.Listing, v any) {
			n := v.(int)
			l.BusinessDetails.StaffCount = &n
		},
	},
	Premises: {
		path: "business_details.premises",
		kind: KindString,
		get: func(l *models.Listing) (any, bool) {
			if l.BusinessDetails.Premises != nil {
				return *l.BusinessDetails.Premises, true
			}
			return nil, false
		},
		set: func(l *models.Listing, v any) {
			s := v.(string)
			l.BusinessDetails.Premises = &s
		},
	},
	PracticeType: {
		path: "business_details.practice_type",
		kind: KindString,
		get: func(l *models.Listing) (any, bool) {
			if l.BusinessDetails.PracticeType != nil {
				return *l.BusinessDetails.PracticeType, true
			}
			return nil, false
		},
		set: func(l *models.Listing, v any) {
			s := v.(string)
			l.BusinessDetails.PracticeType = &s
		},
	},
	BusinessSummary: {
		path: "business_details.business_summary",
		kind: KindString,
		get: func(l *models.Listing) (any, bool) {
			return l.BusinessDetails.BusinessSummary, l.BusinessDetails.BusinessSummary != ""
		},
		set: func(l *models.Listing, v any) {
			l.BusinessDetails.BusinessSummary = v.(string)
		},
	},
}

var allIDs = []ID{
	Title, Description, BusinessType, Location,
	AskingPrice, AnnualRevenue, NetProfit, EBITDA,
	PatientListSize, StaffCount, Premises, PracticeType, BusinessSummary,
}

var byPath = func() map[string]ID {
	m := make(map[string]ID, len(table))
	for id, sp := range table {
		m[sp.path] = id
	}
	return m
}()

// All returns every field ID in a stable order.
func All() []ID {
	return allIDs
}

// Path returns the field's dot-addressed wire path.
func (id ID) Path() string {
	return table[id].path
}

// Kind returns the value type the field decodes to.
func (id ID) Kind() Kind {
	return table[id].kind
}

// FromPath maps a wire path back to a field ID.
func FromPath(path string) (ID, bool) {
	id, ok := byPath[path]
	return id, ok
}

// Resolve decides what the edit form should display for one field.
// Precedence: pending value → structured persisted value → legacy-parsed
// value → hardcoded default (empty string / nil number).
//
// Pending values under a compound group ("financial_data.*",
// "business_details.*") may have been stored as a one-key sub-object, e.g.
// {"asking_price": 650000} for financial_data.asking_price. Those are
// unpacked by trailing key; flat fields are taken wholesale. The asymmetry
// mirrors how the backend has always stored these records and is kept on
// purpose: correcting it would strand every in-flight change set.
//
// A pending record whose value is null (or whose sub-object lacks the key)
// still marks the field UnderReview but does not shadow the fallback chain.
func Resolve(id ID, l *models.Listing, changes []models.PendingChange) Resolved {
	sp := table[id]

	var underReview bool
	for i := range changes {
		if changes[i].FieldPath != sp.path {
			continue
		}
		underReview = true
		raw, ok := unpack(sp.path, changes[i].NewValue)
		if !ok {
			break
		}
		v, ok := decode(sp.kind, raw)
		if !ok {
			break
		}
		return Resolved{Value: v, Source: SourcePending, UnderReview: true}
	}

	if v, ok := sp.get(l); ok {
		return Resolved{Value: v, Source: SourcePersisted, UnderReview: underReview}
	}
	if sp.legacy != nil {
		if v, ok := sp.legacy(l); ok {
			return Resolved{Value: v, Source: SourceLegacy, UnderReview: underReview}
		}
	}
	return Resolved{Value: defaultValue(sp.kind), Source: SourceDefault, UnderReview: underReview}
}

// ResolveAll resolves every field against the same change set.
func ResolveAll(l *models.Listing, changes []models.PendingChange) map[ID]Resolved {
	out := make(map[ID]Resolved, len(allIDs))
	for _, id := range allIDs {
		out[id] = Resolve(id, l, changes)
	}
	return out
}

// Apply writes an approved change set onto the listing. Every change must
// address a known field; an unknown path aborts the whole application so the
// caller's transaction rolls back. Null values are skipped, matching how
// Resolve treats them.
func Apply(l *models.Listing, changes []models.PendingChange) error {
	for i := range changes {
		id, ok := FromPath(changes[i].FieldPath)
		if !ok {
			return fmt.Errorf("unknown field path %q in change set", changes[i].FieldPath)
		}
		sp := table[id]
		raw, ok := unpack(sp.path, changes[i].NewValue)
		if !ok {
			continue
		}
		v, ok := decode(sp.kind, raw)
		if !ok {
			return fmt.Errorf("invalid pending value for %q: %s", sp.path, changes[i].NewValue)
		}
		sp.set(l, v)
	}
	return nil
}

// unpack extracts the effective raw value from a pending record. Compound
// paths look inside a sub-object for the trailing key when the stored value
// is an object; everything else passes through as-is. Returns false for
// null/absent values.
func unpack(path string, raw json.RawMessage) (json.RawMessage, bool) {
	if isNull(raw) {
		return nil, false
	}
	dot := strings.LastIndex(path, ".")
	if dot < 0 {
		return raw, true
	}
	var sub map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sub); err != nil {
		// Not an object: the bare value was stored directly.
		return raw, true
	}
	inner, ok := sub[path[dot+1:]]
	if !ok || isNull(inner) {
		return nil, false
	}
	return inner, true
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

func decode(kind Kind, raw json.RawMessage) (any, bool) {
	switch kind {
	case KindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		return s, true
	case KindMoney:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, false
		}
		return f, true
	case KindCount:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, false
		}
		return int(f), true
	}
	return nil, false
}

func defaultValue(kind Kind) any {
	if kind == KindString {
		return ""
	}
	return nil
}
