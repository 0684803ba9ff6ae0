package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/practicemarket/practicemarket-golang/client"
	"github.com/practicemarket/practicemarket-golang/internal/fields"
	"github.com/practicemarket/practicemarket-golang/internal/mocks"
	"github.com/practicemarket/practicemarket-golang/internal/models"
)

func publishedListing() *models.Listing {
	asking := 500000.0
	revenue := 120000.0
	profit := 80000.0
	return &models.Listing{
		ID:           42,
		Title:        "Riverside Dental Practice",
		Description:  "Well established practice in a busy town centre.",
		BusinessType: models.BusinessTypeFullSale,
		Location:     "Leeds",
		Status:       models.ListingStatusPublished,
		BusinessDetails: models.BusinessDetails{
			BusinessSummary: "Established practice with ~3,500 patients and loyal staff.",
		},
		FinancialData: models.FinancialData{
			AskingPrice:   &asking,
			AnnualRevenue: &revenue,
			NetProfit:     &profit,
		},
		Media: []models.MediaItem{
			{ID: 1, ListingID: 42, URL: "/uploads/front.jpg", IsPrimary: true},
		},
	}
}

func emptyChanges() *models.PendingChangeSet {
	return &models.PendingChangeSet{ListingID: 42, Changes: []models.PendingChange{}}
}

func TestLoadResolvesPendingAndLegacyValues(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := mocks.NewMockAPI(ctrl)
	api.EXPECT().GetListing(gomock.Any(), int64(42)).Return(publishedListing(), nil)
	api.EXPECT().GetPendingChanges(gomock.Any(), int64(42)).Return(&models.PendingChangeSet{
		ListingID: 42,
		Changes: []models.PendingChange{
			{ID: 1, ListingID: 42, FieldPath: "financial_data.asking_price",
				NewValue: json.RawMessage(`{"asking_price": 650000}`)},
			{ID: 2, ListingID: 42, FieldPath: "title",
				NewValue: json.RawMessage(`"Riverside Dental Practice (Reduced)"`)},
		},
		Count: 2,
	}, nil)

	s := client.NewEditSession(api, 42)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.State() != client.StateEditing {
		t.Fatalf("state = %v", s.State())
	}

	asking := s.Value(fields.AskingPrice)
	if asking.Value != 650000.0 || !asking.UnderReview {
		t.Errorf("asking_price = %+v, want pending 650000 under review", asking)
	}
	title := s.Value(fields.Title)
	if title.Value != "Riverside Dental Practice (Reduced)" || !title.UnderReview {
		t.Errorf("title = %+v", title)
	}
	// No structured patient count: parsed out of the legacy summary.
	patients := s.Value(fields.PatientListSize)
	if patients.Value != 3500 || patients.Source != fields.SourceLegacy {
		t.Errorf("patient_list_size = %+v, want legacy 3500", patients)
	}
	revenue := s.Value(fields.AnnualRevenue)
	if revenue.Value != 120000.0 || revenue.UnderReview {
		t.Errorf("annual_revenue = %+v, want persisted 120000", revenue)
	}
}

func TestLoadFailureReturnsToIdle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := mocks.NewMockAPI(ctrl)
	api.EXPECT().GetListing(gomock.Any(), int64(42)).Return(nil, errors.New("boom"))

	s := client.NewEditSession(api, 42)
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if s.State() != client.StateIdle {
		t.Errorf("state = %v, want idle", s.State())
	}
}

func TestSubmitDuplicatesMoneyFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := mocks.NewMockAPI(ctrl)
	api.EXPECT().GetListing(gomock.Any(), int64(42)).Return(publishedListing(), nil)
	api.EXPECT().GetPendingChanges(gomock.Any(), int64(42)).Return(emptyChanges(), nil)

	var got client.UpdateListingRequest
	api.EXPECT().UpdateListing(gomock.Any(), int64(42), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, req client.UpdateListingRequest) error {
			got = req
			return nil
		})

	s := client.NewEditSession(api, 42)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetValue(fields.NetProfit, 95000.0); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := s.Submit(context.Background(), client.SubmitOptions{}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if got.FinancialData == nil || got.BusinessDetails == nil {
		t.Fatal("both groups must be present")
	}
	if *got.FinancialData.NetProfit != 95000.0 || *got.BusinessDetails.NetProfit != 95000.0 {
		t.Errorf("net_profit: fd=%v bd=%v, want 95000 in both",
			*got.FinancialData.NetProfit, *got.BusinessDetails.NetProfit)
	}
	if *got.FinancialData.AnnualRevenue != *got.BusinessDetails.AnnualRevenue {
		t.Error("annual_revenue differs between groups")
	}
	if got.MediaURLs == nil || len(*got.MediaURLs) != 1 || (*got.MediaURLs)[0] != "/uploads/front.jpg" {
		t.Errorf("media_urls = %v", got.MediaURLs)
	}
	if s.State() != client.StateIdle {
		t.Errorf("state after submit = %v, want idle", s.State())
	}
}

func TestSubmitUploadsMediaThenReloads(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fresh := publishedListing()
	fresh.Media = append(fresh.Media, models.MediaItem{ID: 2, ListingID: 42, URL: "/uploads/new.jpg"})

	api := mocks.NewMockAPI(ctrl)
	gomock.InOrder(
		api.EXPECT().GetListing(gomock.Any(), int64(42)).Return(publishedListing(), nil),
		api.EXPECT().GetPendingChanges(gomock.Any(), int64(42)).Return(emptyChanges(), nil),
		api.EXPECT().UploadMedia(gomock.Any(), int64(42), gomock.Len(1), gomock.Any()).
			Return([]string{"/uploads/new.jpg"}, nil),
		api.EXPECT().UpdateListing(gomock.Any(), int64(42), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ int64, req client.UpdateListingRequest) error {
				if req.MediaURLs == nil || len(*req.MediaURLs) != 2 {
					t.Errorf("media_urls = %v, want existing plus uploaded", req.MediaURLs)
				}
				return nil
			}),
		api.EXPECT().GetListing(gomock.Any(), int64(42)).Return(fresh, nil),
	)

	s := client.NewEditSession(api, 42)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	err := s.Submit(context.Background(), client.SubmitOptions{
		NewMedia: []client.MediaFile{{Name: "new.jpg", Content: []byte("jpeg")}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(s.Listing().Media) != 2 {
		t.Errorf("listing not reloaded after media upload: media = %d", len(s.Listing().Media))
	}
}

func TestSubmitFailureKeepsEdits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := mocks.NewMockAPI(ctrl)
	api.EXPECT().GetListing(gomock.Any(), int64(42)).Return(publishedListing(), nil)
	api.EXPECT().GetPendingChanges(gomock.Any(), int64(42)).Return(emptyChanges(), nil)
	api.EXPECT().UpdateListing(gomock.Any(), int64(42), gomock.Any()).Return(errors.New("500"))

	s := client.NewEditSession(api, 42)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetValue(fields.Title, "New Title"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	err := s.Submit(context.Background(), client.SubmitOptions{})
	if !errors.Is(err, client.ErrSubmitFailed) {
		t.Fatalf("err = %v, want ErrSubmitFailed", err)
	}
	if s.State() != client.StateEditing {
		t.Errorf("state = %v, want editing", s.State())
	}
	if s.Value(fields.Title).Value != "New Title" {
		t.Error("user edit lost after failed submit")
	}
}

func TestSubmitMediaFailureSkipsUpdate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := mocks.NewMockAPI(ctrl)
	api.EXPECT().GetListing(gomock.Any(), int64(42)).Return(publishedListing(), nil)
	api.EXPECT().GetPendingChanges(gomock.Any(), int64(42)).Return(emptyChanges(), nil)
	api.EXPECT().UploadMedia(gomock.Any(), int64(42), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("disk full"))

	s := client.NewEditSession(api, 42)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	err := s.Submit(context.Background(), client.SubmitOptions{
		NewMedia: []client.MediaFile{{Name: "new.jpg", Content: []byte("jpeg")}},
	})
	if !errors.Is(err, client.ErrSubmitFailed) {
		t.Fatalf("err = %v, want ErrSubmitFailed", err)
	}
	if s.State() != client.StateEditing {
		t.Errorf("state = %v, want editing", s.State())
	}
}

func TestSubmitRequiresEditingState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := client.NewEditSession(mocks.NewMockAPI(ctrl), 42)
	if err := s.Submit(context.Background(), client.SubmitOptions{}); err == nil {
		t.Fatal("submit before load must fail")
	}
}
