package tier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeUsage map[string]int64

func (f fakeUsage) GetUsage(ctx context.Context, userID string, metric string) (int64, error) {
	return f[userID+"/"+metric], nil
}

type failingUsage struct{}

func (failingUsage) GetUsage(ctx context.Context, userID string, metric string) (int64, error) {
	return 0, errors.New("store unavailable")
}

// ============================================================================
// Table Tests
// ============================================================================

func TestGetTierLimits_AllTiersDefineAllMetrics(t *testing.T) {
	for _, tr := range All() {
		limits, err := GetTierLimits(tr)
		if err != nil {
			t.Fatalf("GetTierLimits(%s) failed: %v", tr, err)
		}
		for _, m := range Metrics() {
			limit, ok := limits[m]
			if !ok {
				t.Errorf("Tier %s is missing metric %s", tr, m)
				continue
			}
			if limit.Kind() == 0 {
				t.Errorf("Tier %s has invalid limit for %s", tr, m)
			}
		}
		if len(limits) != len(Metrics()) {
			t.Errorf("Tier %s: expected %d metrics, got %d", tr, len(Metrics()), len(limits))
		}
	}
}

func TestGetTierLimits_UnknownTier(t *testing.T) {
	limits, err := GetTierLimits(Tier("enterprise"))
	if !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("Expected ErrUnknownTier, got %v", err)
	}
	if limits != nil {
		t.Errorf("Expected nil limits for unknown tier, got %v", limits)
	}
}

func TestGetTierLimits_ReturnsCopy(t *testing.T) {
	limits := MustTierLimits(Free)
	limits[AIGenerations] = Unbounded()

	again := MustTierLimits(Free)
	if n, _ := again[AIGenerations].Value(); n != 5 {
		t.Errorf("Expected table to be unchanged (5), got %v", again[AIGenerations])
	}
}

func TestMustTierLimits_PanicsOnUnknownTier(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for unknown tier")
		}
	}()
	MustTierLimits(Tier("gold"))
}

func TestTable_Values(t *testing.T) {
	tests := []struct {
		tier   Tier
		metric Metric
		want   string
	}{
		{Free, AIGenerations, "5"},
		{Free, Platforms, "1"},
		{Free, ScheduledPosts, "10"},
		{Free, ContentLibrary, "50"},
		{Free, CanExport, "false"},
		{Starter, AIGenerations, "50"},
		{Starter, Platforms, "3"},
		{Starter, CanExport, "true"},
		{Starter, CanvaIntegration, "false"},
		{Pro, AIGenerations, "200"},
		{Pro, Platforms, "unlimited"},
		{Pro, CanvaIntegration, "true"},
		{Pro, TeamMembers, "3"},
		{Pro, APIAccess, "false"},
		{Agency, AIGenerations, "unlimited"},
		{Agency, TeamMembers, "10"},
		{Agency, APIAccess, "true"},
		{Agency, WhiteLabel, "true"},
	}

	for _, tt := range tests {
		limit, err := LimitFor(tt.tier, tt.metric)
		if err != nil {
			t.Fatalf("LimitFor(%s, %s) failed: %v", tt.tier, tt.metric, err)
		}
		if limit.String() != tt.want {
			t.Errorf("%s/%s: expected %s, got %s", tt.tier, tt.metric, tt.want, limit)
		}
	}
}

func TestParseTier(t *testing.T) {
	for _, in := range []string{"free", "FREE", " Pro ", "agency", "Starter"} {
		if _, err := ParseTier(in); err != nil {
			t.Errorf("ParseTier(%q) failed: %v", in, err)
		}
	}
	for _, in := range []string{"", "gold", "enterprise"} {
		if _, err := ParseTier(in); !errors.Is(err, ErrUnknownTier) {
			t.Errorf("ParseTier(%q): expected ErrUnknownTier, got %v", in, err)
		}
	}
}

func TestParseMetric(t *testing.T) {
	if m, err := ParseMetric("aiGenerations"); err != nil || m != AIGenerations {
		t.Errorf("Expected aiGenerations, got %q (%v)", m, err)
	}
	if _, err := ParseMetric("aigenerations"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("Expected ErrUnknownMetric, got %v", err)
	}
}

// ============================================================================
// Limit Tests
// ============================================================================

func TestLimit_Admits(t *testing.T) {
	if !Bounded(5).Admits(4) {
		t.Error("Expected Bounded(5) to admit 4")
	}
	if Bounded(5).Admits(5) {
		t.Error("Expected Bounded(5) to deny at the boundary")
	}
	if !Unbounded().Admits(1 << 40) {
		t.Error("Expected Unbounded to admit any usage")
	}
	if Capability(false).Admits(0) {
		t.Error("Expected disabled capability to deny")
	}
	if !Capability(true).Admits(1000) {
		t.Error("Expected enabled capability to allow")
	}
	if (Limit{}).Admits(0) {
		t.Error("Expected zero Limit to deny")
	}
}

func TestLimit_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Limit{
		"a": Bounded(50),
		"b": Unbounded(),
		"c": Capability(true),
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"a":50,"b":"unlimited","c":true}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}

// ============================================================================
// CanUseFeature Tests
// ============================================================================

func TestCanUseFeature_FreeAIGenerationsBoundary(t *testing.T) {
	usage := fakeUsage{}
	policy := NewPolicy(usage)
	ctx := context.Background()

	for i := int64(0); i < 5; i++ {
		usage["u/aiGenerations"] = i
		d, err := policy.CanUseFeature(ctx, "u", Free, AIGenerations)
		if err != nil {
			t.Fatalf("CanUseFeature failed: %v", err)
		}
		if !d.Allowed {
			t.Errorf("Expected allowed at usage %d", i)
		}
	}

	usage["u/aiGenerations"] = 5
	d, err := policy.CanUseFeature(ctx, "u", Free, AIGenerations)
	if err != nil {
		t.Fatalf("CanUseFeature failed: %v", err)
	}
	if d.Allowed {
		t.Error("Expected denial at usage 5")
	}
	if d.Usage != 5 {
		t.Errorf("Expected usage 5, got %d", d.Usage)
	}
	want := "You've reached your monthly limit of 5 aiGenerations. Upgrade to continue."
	if d.Message != want {
		t.Errorf("Expected message %q, got %q", want, d.Message)
	}
}

func TestCanUseFeature_AgencyUnbounded(t *testing.T) {
	usage := fakeUsage{"u/aiGenerations": 10_000}
	d, err := NewPolicy(usage).CanUseFeature(context.Background(), "u", Agency, AIGenerations)
	if err != nil {
		t.Fatalf("CanUseFeature failed: %v", err)
	}
	if !d.Allowed {
		t.Error("Expected agency to be allowed at any usage")
	}
	if d.Limit.Kind() != KindUnbounded {
		t.Errorf("Expected unbounded limit, got %v", d.Limit.Kind())
	}
}

func TestCanUseFeature_UnboundedDoesNotReadUsage(t *testing.T) {
	d, err := NewPolicy(failingUsage{}).CanUseFeature(context.Background(), "u", Pro, Platforms)
	if err != nil {
		t.Fatalf("Expected unbounded check to skip usage, got %v", err)
	}
	if !d.Allowed {
		t.Error("Expected allowed")
	}
}

func TestCanUseFeature_Capabilities(t *testing.T) {
	policy := NewPolicy(fakeUsage{})
	ctx := context.Background()

	d, err := policy.CanUseFeature(ctx, "u", Free, CanExport)
	if err != nil {
		t.Fatalf("CanUseFeature failed: %v", err)
	}
	if d.Allowed || d.Limit.Enabled() {
		t.Errorf("Expected free/canExport to be {false,false}, got {%v,%v}", d.Allowed, d.Limit.Enabled())
	}
	if d.Message != MessageFeatureUnavailable {
		t.Errorf("Expected message %q, got %q", MessageFeatureUnavailable, d.Message)
	}

	d, err = policy.CanUseFeature(ctx, "u", Pro, CanExport)
	if err != nil {
		t.Fatalf("CanUseFeature failed: %v", err)
	}
	if !d.Allowed || !d.Limit.Enabled() {
		t.Errorf("Expected pro/canExport to be {true,true}, got {%v,%v}", d.Allowed, d.Limit.Enabled())
	}
	if d.Message != "" {
		t.Errorf("Expected no message, got %q", d.Message)
	}
}

func TestCanUseFeature_Errors(t *testing.T) {
	policy := NewPolicy(fakeUsage{})
	ctx := context.Background()

	if _, err := policy.CanUseFeature(ctx, "u", Tier("gold"), AIGenerations); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("Expected ErrUnknownTier, got %v", err)
	}
	if _, err := policy.CanUseFeature(ctx, "u", Free, Metric("videos")); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("Expected ErrUnknownMetric, got %v", err)
	}
	if _, err := NewPolicy(failingUsage{}).CanUseFeature(ctx, "u", Free, AIGenerations); err == nil {
		t.Error("Expected usage reader error to propagate")
	}
}

// ============================================================================
// Helper Tests
// ============================================================================

func TestUsagePercentage(t *testing.T) {
	tests := []struct {
		usage int64
		limit Limit
		want  float64
	}{
		{0, Bounded(5), 0},
		{4, Bounded(5), 80},
		{5, Bounded(5), 100},
		{50, Bounded(5), 100},
		{999, Unbounded(), 0},
		{1, Capability(true), 0},
	}
	for _, tt := range tests {
		if got := UsagePercentage(tt.usage, tt.limit); got != tt.want {
			t.Errorf("UsagePercentage(%d, %s): expected %v, got %v", tt.usage, tt.limit, tt.want, got)
		}
	}
}

func TestUsageRiskAndExceeded(t *testing.T) {
	if IsUsageAtRisk(3, Bounded(5)) {
		t.Error("Expected 60% not to be at risk")
	}
	if !IsUsageAtRisk(4, Bounded(5)) {
		t.Error("Expected 80% to be at risk")
	}
	if IsUsageExceeded(4, Bounded(5)) {
		t.Error("Expected 4/5 not to be exceeded")
	}
	if !IsUsageExceeded(5, Bounded(5)) {
		t.Error("Expected 5/5 to be exceeded")
	}
	if IsUsageExceeded(1_000_000, Unbounded()) {
		t.Error("Expected unbounded never to be exceeded")
	}
}

func TestCatalog(t *testing.T) {
	prices := map[Tier]int{Free: 0, Starter: 19, Pro: 49, Agency: 149}
	names := map[Tier]string{Free: "Free", Starter: "Starter", Pro: "Pro", Agency: "Agency"}

	for tr, want := range prices {
		got, err := MonthlyPrice(tr)
		if err != nil || got != want {
			t.Errorf("MonthlyPrice(%s): expected %d, got %d (%v)", tr, want, got, err)
		}
		name, err := DisplayName(tr)
		if err != nil || name != names[tr] {
			t.Errorf("DisplayName(%s): expected %s, got %s (%v)", tr, names[tr], name, err)
		}
		if _, err := UpgradeMessage(tr); err != nil {
			t.Errorf("UpgradeMessage(%s) failed: %v", tr, err)
		}
	}

	if _, err := MonthlyPrice(Tier("gold")); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("Expected ErrUnknownTier, got %v", err)
	}

	if next, ok := NextTier(Free); !ok || next != Starter {
		t.Errorf("Expected starter after free, got %s", next)
	}
	if _, ok := NextTier(Agency); ok {
		t.Error("Expected no tier above agency")
	}
}

func TestPriceCatalog(t *testing.T) {
	c := NewPriceCatalog(map[Tier]string{
		Starter: "price_starter",
		Pro:     "price_pro",
		Agency:  "",
	})

	if got := c.TierForPriceID("price_pro"); got != Pro {
		t.Errorf("Expected pro, got %s", got)
	}
	if got := c.TierForPriceID("price_other"); got != Free {
		t.Errorf("Expected free for unknown price, got %s", got)
	}
	if got := c.TierForPriceID(""); got != Free {
		t.Errorf("Expected empty price id not to match unconfigured agency, got %s", got)
	}
	if id, ok := c.PriceID(Starter); !ok || id != "price_starter" {
		t.Errorf("Expected price_starter, got %q", id)
	}
}
