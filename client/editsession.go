package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/practicemarket/practicemarket-golang/internal/fields"
	"github.com/practicemarket/practicemarket-golang/internal/models"
)

// SessionState is the lifecycle of one edit screen.
type SessionState int

const (
	StateIdle SessionState = iota
	StateLoading
	StateEditing
	StateSubmitting
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// ErrSubmitFailed is the generic failure surfaced to the user when a submit
// does not go through. Media uploaded before the failing step stays on the
// server; resubmitting reuses it rather than uploading again.
var ErrSubmitFailed = errors.New("could not save your changes, please try again")

// SubmitOptions control one Submit call.
type SubmitOptions struct {
	IsDraft  bool
	NewMedia []MediaFile
	Progress ProgressFunc
}

// EditSession drives the edit form for one listing: load persisted values
// and any outstanding change set, resolve what each field should display,
// accept edits, and submit the reconciled form back.
type EditSession struct {
	api       API
	listingID int64

	state   SessionState
	listing *models.Listing
	changes []models.PendingChange

	resolved map[fields.ID]fields.Resolved
	edits    map[fields.ID]any
	uploaded []string
}

// NewEditSession creates an idle session for the given listing.
func NewEditSession(api API, listingID int64) *EditSession {
	return &EditSession{
		api:       api,
		listingID: listingID,
		state:     StateIdle,
		edits:     make(map[fields.ID]any),
	}
}

// State reports where the session is in its lifecycle.
func (s *EditSession) State() SessionState { return s.state }

// Listing is the last listing payload the session loaded, nil before Load.
func (s *EditSession) Listing() *models.Listing { return s.listing }

// Load fetches the listing and its pending-change set, then resolves every
// field. The two fetches run in order: the form cannot render without the
// listing, and the change-set lookup degrades to an empty set on failure.
func (s *EditSession) Load(ctx context.Context) error {
	if s.state != StateIdle && s.state != StateEditing {
		return fmt.Errorf("cannot load while %s", s.state)
	}
	s.state = StateLoading

	listing, err := s.api.GetListing(ctx, s.listingID)
	if err != nil {
		s.state = StateIdle
		return fmt.Errorf("load listing %d: %w", s.listingID, err)
	}

	set, _ := s.api.GetPendingChanges(ctx, s.listingID)
	changes := []models.PendingChange{}
	if set != nil {
		changes = set.Changes
	}

	s.listing = listing
	s.changes = changes
	s.resolved = fields.ResolveAll(listing, changes)
	s.edits = make(map[fields.ID]any)
	s.state = StateEditing
	return nil
}

// Value returns what the form should show for a field: the user's edit if
// one exists, otherwise the resolved value. UnderReview keeps marking
// fields with an outstanding change even after the user retypes them.
func (s *EditSession) Value(id fields.ID) fields.Resolved {
	r := s.resolved[id]
	if v, ok := s.edits[id]; ok {
		r.Value = v
	}
	return r
}

// SetValue records a user edit. Only legal while editing.
func (s *EditSession) SetValue(id fields.ID, v any) error {
	if s.state != StateEditing {
		return fmt.Errorf("cannot edit while %s", s.state)
	}
	s.edits[id] = v
	return nil
}

// Dirty reports whether the user changed anything since Load.
func (s *EditSession) Dirty() bool { return len(s.edits) > 0 }

// Submit uploads any new media, then sends the whole reconciled form in a
// single update. On success after a media upload the listing is reloaded
// wholesale so positions and the primary flag match what the server
// decided. Any failure drops the session back to editing with the user's
// input intact.
func (s *EditSession) Submit(ctx context.Context, opts SubmitOptions) error {
	if s.state != StateEditing {
		return fmt.Errorf("cannot submit while %s", s.state)
	}
	s.state = StateSubmitting

	mediaUploaded := len(s.uploaded) > 0
	if len(opts.NewMedia) > 0 {
		urls, err := s.api.UploadMedia(ctx, s.listingID, opts.NewMedia, opts.Progress)
		if err != nil {
			s.state = StateEditing
			return ErrSubmitFailed
		}
		s.uploaded = append(s.uploaded, urls...)
		mediaUploaded = true
	}

	req := s.buildRequest(opts.IsDraft)
	if err := s.api.UpdateListing(ctx, s.listingID, req); err != nil {
		// Uploaded media is not rolled back; the retained URLs mean a
		// retry will not upload the same files twice.
		s.state = StateEditing
		return ErrSubmitFailed
	}

	if mediaUploaded {
		if fresh, err := s.api.GetListing(ctx, s.listingID); err == nil {
			s.listing = fresh
		}
	}

	s.uploaded = nil
	s.edits = make(map[fields.ID]any)
	s.state = StateIdle
	return nil
}

// buildRequest splits the flat form back into the shape the backend wants:
// top-level identity fields plus the business_details and financial_data
// groups. annual_revenue and net_profit go into both groups because the
// backend reads them from either depending on the endpoint.
func (s *EditSession) buildRequest(isDraft bool) UpdateListingRequest {
	str := func(id fields.ID) string {
		v, _ := s.Value(id).Value.(string)
		return v
	}
	strPtr := func(id fields.ID) *string {
		v := str(id)
		return &v
	}
	optStr := func(id fields.ID) *string {
		v := str(id)
		if v == "" {
			return nil
		}
		return &v
	}
	money := func(id fields.ID) *float64 {
		switch v := s.Value(id).Value.(type) {
		case float64:
			return &v
		case int:
			f := float64(v)
			return &f
		default:
			return nil
		}
	}
	count := func(id fields.ID) *int {
		switch v := s.Value(id).Value.(type) {
		case int:
			return &v
		case float64:
			n := int(v)
			return &n
		default:
			return nil
		}
	}

	annualRevenue := money(fields.AnnualRevenue)
	netProfit := money(fields.NetProfit)

	req := UpdateListingRequest{
		Title:        strPtr(fields.Title),
		Description:  strPtr(fields.Description),
		BusinessType: strPtr(fields.BusinessType),
		Location:     strPtr(fields.Location),
		BusinessDetails: &models.BusinessDetails{
			PracticeType:    optStr(fields.PracticeType),
			PatientListSize: count(fields.PatientListSize),
			StaffCount:      count(fields.StaffCount),
			Premises:        optStr(fields.Premises),
			BusinessSummary: str(fields.BusinessSummary),
			AnnualRevenue:   annualRevenue,
			NetProfit:       netProfit,
		},
		FinancialData: &models.FinancialData{
			AskingPrice:   money(fields.AskingPrice),
			AnnualRevenue: annualRevenue,
			NetProfit:     netProfit,
			EBITDA:        money(fields.EBITDA),
		},
		IsDraft: isDraft,
	}

	urls := make([]string, 0, len(s.listing.Media)+len(s.uploaded))
	for _, m := range s.listing.Media {
		urls = append(urls, m.URL)
	}
	urls = append(urls, s.uploaded...)
	req.MediaURLs = &urls

	return req
}
