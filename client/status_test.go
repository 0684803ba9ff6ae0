package client_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/practicemarket/practicemarket-golang/client"
	"github.com/practicemarket/practicemarket-golang/internal/mocks"
)

func TestFetchConnectionStatusesKeysEveryResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := mocks.NewMockAPI(ctrl)
	api.EXPECT().GetConnectionStatus(gomock.Any(), int64(1)).Return("pending", nil)
	api.EXPECT().GetConnectionStatus(gomock.Any(), int64(2)).Return("none", nil)
	api.EXPECT().GetConnectionStatus(gomock.Any(), int64(3)).Return("", errors.New("timeout"))

	results := client.FetchConnectionStatuses(context.Background(), api, []int64{1, 2, 3})

	if len(results) != 3 {
		t.Fatalf("results = %d entries", len(results))
	}
	if r := results[1]; r.State != client.StatusLoaded || r.Status != "pending" {
		t.Errorf("listing 1 = %+v", r)
	}
	if r := results[2]; r.State != client.StatusLoaded || r.Status != "none" {
		t.Errorf("listing 2 = %+v", r)
	}
	// One failed lookup lands under its own key and leaves the rest intact.
	if r := results[3]; r.State != client.StatusError || r.Err == nil {
		t.Errorf("listing 3 = %+v", r)
	}
}

func TestFetchConnectionStatusesEmptyInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	results := client.FetchConnectionStatuses(context.Background(), mocks.NewMockAPI(ctrl), nil)
	if len(results) != 0 {
		t.Errorf("results = %+v, want empty map", results)
	}
}
