package strategy

import (
	"encoding/json"
	"reflect"
	"testing"

	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
	statex "github.com/tanpawarit/ina-negotiation/agent/state"
)

func baseContext() contractx.NegotiationContext {
	return contractx.NegotiationContext{
		MAM:           42000,
		AskingPrice:   50000,
		UserOffer:     45000,
		UserIntent:    contractx.IntentMakeOffer,
		UserSentiment: contractx.SentimentNeutral,
		SessionID:     "sess_test_fixture",
	}
}

func TestDecideRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		offer       float64
		sentiment   string
		wantAction  contractx.Action
		wantKey     contractx.ResponseKey
		wantCounter *float64
		wantRule    string
	}{
		{
			name:        "offer equal to floor accepts",
			offer:       42000,
			sentiment:   contractx.SentimentNeutral,
			wantAction:  contractx.ActionAccept,
			wantKey:     contractx.ResponseAcceptFinal,
			wantCounter: ptr(42000),
			wantRule:    "user_offer_gte_mam",
		},
		{
			name:        "offer above floor accepts",
			offer:       45000,
			sentiment:   contractx.SentimentPositive,
			wantAction:  contractx.ActionAccept,
			wantKey:     contractx.ResponseAcceptFinal,
			wantCounter: ptr(45000),
			wantRule:    "user_offer_gte_mam",
		},
		{
			name:        "negative sentiment near floor closes",
			offer:       40000,
			sentiment:   contractx.SentimentNegative,
			wantAction:  contractx.ActionAccept,
			wantKey:     contractx.ResponseAcceptSentimentClose,
			wantCounter: ptr(40000),
			wantRule:    "sentiment_accept_on_negative",
		},
		{
			name:        "negative sentiment above floor still uses rescue rule",
			offer:       43000,
			sentiment:   contractx.SentimentNegative,
			wantAction:  contractx.ActionAccept,
			wantKey:     contractx.ResponseAcceptSentimentClose,
			wantCounter: ptr(43000),
			wantRule:    "sentiment_accept_on_negative",
		},
		{
			name:       "negative sentiment lowball falls through to reject",
			offer:      25000,
			sentiment:  contractx.SentimentNegative,
			wantAction: contractx.ActionReject,
			wantKey:    contractx.ResponseRejectLowball,
			wantRule:   "user_offer_lt_lowball_threshold",
		},
		{
			name:        "positive sentiment in rescue band counters",
			offer:       40000,
			sentiment:   contractx.SentimentPositive,
			wantAction:  contractx.ActionCounter,
			wantKey:     contractx.ResponseStandardCounter,
			wantCounter: ptr(45000),
			wantRule:    "standard_counter_midpoint",
		},
		{
			name:        "exactly seventy percent is not lowball",
			offer:       29400,
			sentiment:   contractx.SentimentNeutral,
			wantAction:  contractx.ActionCounter,
			wantKey:     contractx.ResponseStandardCounter,
			wantCounter: ptr(42000),
			wantRule:    "standard_counter_midpoint",
		},
		{
			name:       "just under seventy percent is lowball",
			offer:      29399,
			sentiment:  contractx.SentimentNeutral,
			wantAction: contractx.ActionReject,
			wantKey:    contractx.ResponseRejectLowball,
			wantRule:   "user_offer_lt_lowball_threshold",
		},
		{
			name:       "absent offer is lowball",
			offer:      0,
			sentiment:  contractx.SentimentNeutral,
			wantAction: contractx.ActionReject,
			wantKey:    contractx.ResponseRejectLowball,
			wantRule:   "user_offer_lt_lowball_threshold",
		},
		{
			name:        "midpoint rounds up",
			offer:       35001,
			sentiment:   contractx.SentimentNeutral,
			wantAction:  contractx.ActionCounter,
			wantKey:     contractx.ResponseStandardCounter,
			wantCounter: ptr(42501),
			wantRule:    "standard_counter_midpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			nc := baseContext()
			nc.UserOffer = tt.offer
			nc.UserSentiment = tt.sentiment

			d := Decide(nc)
			if d.Action != tt.wantAction {
				t.Fatalf("Action = %s, want %s", d.Action, tt.wantAction)
			}
			if d.ResponseKey != tt.wantKey {
				t.Fatalf("ResponseKey = %s, want %s", d.ResponseKey, tt.wantKey)
			}
			counter, ok := d.Counter()
			if tt.wantCounter == nil {
				if ok {
					t.Fatalf("expected no counter price, got %v", counter)
				}
			} else if !ok || counter != *tt.wantCounter {
				t.Fatalf("Counter() = %v,%v, want %v", counter, ok, *tt.wantCounter)
			}
			if d.Rule == nil || d.Rule.RuleName() != tt.wantRule {
				t.Fatalf("rule = %v, want %s", d.Rule, tt.wantRule)
			}
			if d.PolicyVersion != PolicyVersion || d.PolicyType != PolicyType {
				t.Fatalf("unexpected policy tag %s/%s", d.PolicyType, d.PolicyVersion)
			}
		})
	}
}

func TestDecideCounterNeverBelowFloor(t *testing.T) {
	t.Parallel()

	const mam = 42000.0
	for asking := 0.0; asking <= 80000; asking += 2500 {
		for offer := mam * LowballThresholdPercent; offer < mam; offer += 317 {
			nc := baseContext()
			nc.AskingPrice = asking
			nc.UserOffer = offer

			d := Decide(nc)
			if d.Action != contractx.ActionCounter {
				t.Fatalf("asking=%v offer=%v: action = %s, want COUNTER", asking, offer, d.Action)
			}
			counter, ok := d.Counter()
			if !ok || counter < mam {
				t.Fatalf("asking=%v offer=%v: counter %v below floor", asking, offer, counter)
			}
			rule, ok := d.Rule.(contractx.MidpointCounterRule)
			if !ok {
				t.Fatalf("unexpected rule type %T", d.Rule)
			}
			if rule.Clamped != (rule.Midpoint < mam) {
				t.Fatalf("clamped flag %v inconsistent with midpoint %v", rule.Clamped, rule.Midpoint)
			}
		}
	}
}

func TestDecideStandardAcceptAtOrAboveFloor(t *testing.T) {
	t.Parallel()

	for _, offer := range []float64{42000, 42000.01, 50000, 1e9} {
		nc := baseContext()
		nc.UserOffer = offer
		d := Decide(nc)
		counter, _ := d.Counter()
		if d.Action != contractx.ActionAccept || d.ResponseKey != contractx.ResponseAcceptFinal || counter != offer {
			t.Fatalf("offer=%v: got %s/%s/%v", offer, d.Action, d.ResponseKey, counter)
		}
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	t.Parallel()

	nc := baseContext()
	nc.UserOffer = 33333.33
	nc.History = []statex.Turn{{Speaker: statex.SpeakerUser, Text: "33333.33"}}

	first := Decide(nc)
	second := RuleBased{}.Decide(nc)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("decisions differ:\n%#v\n%#v", first, second)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("serialised decisions differ:\n%s\n%s", a, b)
	}
}

func TestDecisionJSONShape(t *testing.T) {
	t.Parallel()

	nc := baseContext()
	nc.UserOffer = 25000
	raw, err := json.Marshal(Decide(nc))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"action", "response_key", "counter_price", "policy_type", "policy_version", "decision_metadata"} {
		if _, ok := out[key]; !ok {
			t.Fatalf("missing key %q in %s", key, raw)
		}
	}
	if out["counter_price"] != nil {
		t.Fatalf("reject must serialise counter_price as null, got %v", out["counter_price"])
	}
	meta := out["decision_metadata"].(map[string]any)
	if meta["rule"] != "user_offer_lt_lowball_threshold" {
		t.Fatalf("unexpected rule: %v", meta["rule"])
	}
}

func TestDecisionMetadataOmitsFloor(t *testing.T) {
	t.Parallel()

	for _, offer := range []float64{25000, 30000, 40000, 42000, 45000} {
		for _, sentiment := range []string{contractx.SentimentNegative, contractx.SentimentNeutral} {
			nc := baseContext()
			nc.UserOffer = offer
			nc.UserSentiment = sentiment

			meta := contractx.RuleMetadata(Decide(nc).Rule)
			if _, ok := meta["mam"]; ok {
				t.Fatalf("offer=%v: metadata exposes mam: %v", offer, meta)
			}
			if _, ok := meta["threshold_value"]; ok {
				t.Fatalf("offer=%v: metadata exposes floor-derived threshold: %v", offer, meta)
			}
		}
	}
}

func TestPhrasingRequestNeverCarriesFloor(t *testing.T) {
	t.Parallel()

	for offer := 0.0; offer <= 60000; offer += 1500 {
		for _, sentiment := range []string{contractx.SentimentNegative, contractx.SentimentNeutral, contractx.SentimentPositive} {
			nc := baseContext()
			nc.UserOffer = offer
			nc.UserSentiment = sentiment

			raw, err := json.Marshal(contractx.NewPhrasingRequest(Decide(nc)))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var fields map[string]any
			if err := json.Unmarshal(raw, &fields); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(fields) != 3 {
				t.Fatalf("unexpected phrasing fields: %v", fields)
			}
			for _, banned := range []string{"mam", "asking_price", "decision_metadata"} {
				if _, ok := fields[banned]; ok {
					t.Fatalf("phrasing request leaks %q: %s", banned, raw)
				}
			}
		}
	}
}

func TestThresholdsMatchPolicyVersion(t *testing.T) {
	t.Parallel()

	// Bump PolicyVersion when either threshold changes.
	if PolicyVersion != "1.2.0" || SentimentAcceptThresholdPercent != 0.95 || LowballThresholdPercent != 0.70 {
		t.Fatalf("policy %s has thresholds %v/%v", PolicyVersion, SentimentAcceptThresholdPercent, LowballThresholdPercent)
	}
}

func ptr(v float64) *float64 {
	return &v
}
