package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/showcase/internal/domain"
)

func TestCreateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr bool
	}{
		{name: "minimal", req: CreateRequest{Description: "Need a landing page"}},
		{name: "with customer", req: CreateRequest{
			Type:         "website",
			Service:      "web",
			Description:  "Shop front",
			CustomerInfo: CustomerInfo{ClientName: "سارة", Email: "sara@example.com"},
		}},
		{name: "empty description", req: CreateRequest{Description: "  "}, wantErr: true},
		{name: "long description", req: CreateRequest{Description: strings.Repeat("x", 5001)}, wantErr: true},
		{name: "bad email", req: CreateRequest{Description: "d", CustomerInfo: CustomerInfo{Email: "not-an-email"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCustomerInfoEmpty(t *testing.T) {
	if !(CustomerInfo{}).Empty() {
		t.Error("zero value should be empty")
	}
	if (CustomerInfo{Phone: "123"}).Empty() {
		t.Error("phone set should not be empty")
	}
	if !StatusApproved.Valid() || Status("archived").Valid() {
		t.Error("unexpected status validity")
	}
}
