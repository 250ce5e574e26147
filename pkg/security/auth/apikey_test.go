package auth

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"postplanner-hq/quota/pkg/limits/tier"
)

func TestAPIKeyValidator_Validate(t *testing.T) {
	validator := NewAPIKeyValidator([]*APIKeyInfo{
		{Key: "pp_live_a", UserID: "user-a", Tier: tier.Pro, Enabled: true},
		{Key: "pp_live_b", UserID: "user-b", Tier: tier.Free, Enabled: false},
	})

	tests := []struct {
		name    string
		key     string
		wantErr error
		user    string
	}{
		{name: "valid key", key: "pp_live_a", user: "user-a"},
		{name: "disabled key", key: "pp_live_b", wantErr: ErrAPIKeyDisabled},
		{name: "unknown key", key: "pp_live_c", wantErr: ErrInvalidAPIKey},
		{name: "empty key", key: "", wantErr: ErrInvalidAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := validator.Validate(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && info.UserID != tt.user {
				t.Errorf("Expected user %s, got %s", tt.user, info.UserID)
			}
		})
	}
}

func TestAPIKeyValidator_ListAndReplace(t *testing.T) {
	validator := NewAPIKeyValidator([]*APIKeyInfo{
		{Key: "b", Enabled: true},
		{Key: "a", Enabled: true},
	})

	list := validator.List()
	if len(list) != 2 || list[0].Key != "a" {
		t.Errorf("Expected sorted list, got %v", list)
	}

	validator.Replace([]*APIKeyInfo{{Key: "c", Enabled: true}})
	if len(validator.List()) != 1 {
		t.Errorf("Expected 1 key after replace, got %d", len(validator.List()))
	}
	if _, err := validator.Validate("a"); err == nil {
		t.Error("Expected replaced key to be gone")
	}
}

func TestAPIKeyValidator_ConcurrentReplace(t *testing.T) {
	validator := NewAPIKeyValidator(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			keys := make([]*APIKeyInfo, 0, i+1)
			for j := 0; j <= i; j++ {
				keys = append(keys, &APIKeyInfo{Key: fmt.Sprintf("k%d", j), Enabled: true})
			}
			validator.Replace(keys)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, _ = validator.Validate(fmt.Sprintf("k%d", i))
		}(i)
	}
	wg.Wait()

	validator.Replace([]*APIKeyInfo{{Key: "final", Enabled: true}})
	if n := len(validator.List()); n != 1 {
		t.Errorf("Expected 1 key, got %d", n)
	}
	if _, err := validator.Validate("final"); err != nil {
		t.Errorf("Expected final key to validate, got %v", err)
	}
}
