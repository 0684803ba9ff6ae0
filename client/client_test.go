package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/practicemarket/practicemarket-golang/client"
	"github.com/practicemarket/practicemarket-golang/internal/models"
)

func TestGetListingRetriesOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if r.Method != http.MethodGet || r.URL.Path != "/v1/listings/42" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"listing": map[string]any{"id": 42, "title": "Riverside Dental Practice"},
		})
	}))
	defer srv.Close()

	c := client.NewWithHTTPClient(srv.URL, "token", srv.Client())
	l, err := c.GetListing(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected one retry, server saw %d calls", calls)
	}
	if l.Title != "Riverside Dental Practice" {
		t.Errorf("title = %q", l.Title)
	}
}

func TestUpdateListingDoesNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := client.NewWithHTTPClient(srv.URL, "token", srv.Client())
	err := c.UpdateListing(context.Background(), 42, client.UpdateListingRequest{})
	if err == nil {
		t.Fatal("expected error from 500")
	}
	if calls != 1 {
		t.Errorf("writes must not retry, server saw %d calls", calls)
	}
}

func TestGetPendingChangesTreatsFailureAsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := client.NewWithHTTPClient(srv.URL, "token", srv.Client())
	set, err := c.GetPendingChanges(context.Background(), 7)
	if err != nil {
		t.Fatalf("lookup failure must not surface an error, got %v", err)
	}
	if set == nil || len(set.Changes) != 0 {
		t.Errorf("expected empty set, got %+v", set)
	}
	if set.ListingID != 7 {
		t.Errorf("listing_id = %d", set.ListingID)
	}
}

func TestGetPendingChangesDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"listing_id": 7,
			"count":      1,
			"changes": []map[string]any{
				{"id": 1, "listing_id": 7, "field": "financial_data.asking_price",
					"new_value": map[string]any{"asking_price": 650000}},
			},
		})
	}))
	defer srv.Close()

	c := client.NewWithHTTPClient(srv.URL, "token", srv.Client())
	set, err := c.GetPendingChanges(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetPendingChanges: %v", err)
	}
	if len(set.Changes) != 1 {
		t.Fatalf("changes = %d", len(set.Changes))
	}
	if set.Changes[0].FieldPath != "financial_data.asking_price" {
		t.Errorf("field = %q", set.Changes[0].FieldPath)
	}
}

func TestUpdateListingSendsSplitGroups(t *testing.T) {
	var body map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"message": "Changes submitted for review"})
	}))
	defer srv.Close()

	revenue := 120000.0
	profit := 80000.0
	c := client.NewWithHTTPClient(srv.URL, "token", srv.Client())
	err := c.UpdateListing(context.Background(), 42, client.UpdateListingRequest{
		BusinessDetails: &models.BusinessDetails{AnnualRevenue: &revenue, NetProfit: &profit},
		FinancialData:   &models.FinancialData{AnnualRevenue: &revenue, NetProfit: &profit},
	})
	if err != nil {
		t.Fatalf("UpdateListing: %v", err)
	}

	var bd, fd map[string]float64
	if err := json.Unmarshal(body["business_details"], &bd); err != nil {
		t.Fatalf("business_details: %v", err)
	}
	if err := json.Unmarshal(body["financial_data"], &fd); err != nil {
		t.Fatalf("financial_data: %v", err)
	}
	if bd["annual_revenue"] != fd["annual_revenue"] || bd["annual_revenue"] != revenue {
		t.Errorf("annual_revenue not duplicated: bd=%v fd=%v", bd["annual_revenue"], fd["annual_revenue"])
	}
	if bd["net_profit"] != fd["net_profit"] || bd["net_profit"] != profit {
		t.Errorf("net_profit not duplicated: bd=%v fd=%v", bd["net_profit"], fd["net_profit"])
	}
}

func TestUploadMediaReportsProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := len(r.MultipartForm.File["files"]); got != 2 {
			t.Errorf("files = %d", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"urls": []string{"/uploads/a.jpg", "/uploads/b.jpg"},
		})
	}))
	defer srv.Close()

	var lastSent, lastTotal int64
	c := client.NewWithHTTPClient(srv.URL, "token", srv.Client())
	urls, err := c.UploadMedia(context.Background(), 42, []client.MediaFile{
		{Name: "a.jpg", Content: []byte("aaaa")},
		{Name: "b.jpg", Content: []byte("bbbb")},
	}, func(sent, total int64) {
		lastSent, lastTotal = sent, total
	})
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if len(urls) != 2 {
		t.Errorf("urls = %v", urls)
	}
	if lastTotal == 0 || lastSent != lastTotal {
		t.Errorf("progress did not complete: sent=%d total=%d", lastSent, lastTotal)
	}
}

func TestGetConnectionStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/listings/9/connection-status" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"listing_id": 9, "status": "pending"})
	}))
	defer srv.Close()

	c := client.NewWithHTTPClient(srv.URL, "token", srv.Client())
	status, err := c.GetConnectionStatus(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetConnectionStatus: %v", err)
	}
	if status != "pending" {
		t.Errorf("status = %q", status)
	}
}
