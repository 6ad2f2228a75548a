package route

import "testing"

func TestEffectiveSensitiveHeadersDefault(t *testing.T) {
	r := &Route{ID: "orders", FullPath: "/orders/**", Location: "order-service"}
	h := r.EffectiveSensitiveHeaders()
	if len(h) != 3 {
		t.Fatalf("expected the default set, got %v", h)
	}

	h[0] = "X-Mutated"
	if r.EffectiveSensitiveHeaders()[0] != "Cookie" {
		t.Error("mutating the returned set changed the defaults")
	}
}

func TestEffectiveSensitiveHeadersCustom(t *testing.T) {
	r := &Route{
		ID:                     "orders",
		CustomSensitiveHeaders: true,
		SensitiveHeaders:       []string{"Authorization"},
	}

	h := r.EffectiveSensitiveHeaders()
	if len(h) != 1 || h[0] != "Authorization" {
		t.Errorf("expected the custom set, got %v", h)
	}
}

func TestEffectiveSensitiveHeadersCustomEmpty(t *testing.T) {
	r := &Route{ID: "orders", CustomSensitiveHeaders: true}
	if len(r.EffectiveSensitiveHeaders()) != 0 {
		t.Error("an empty custom set must not fall back to the defaults")
	}
}

func TestCopy(t *testing.T) {
	r := &Route{
		ID:               "orders",
		SensitiveHeaders: []string{"Cookie"},
	}

	c := r.Copy()
	c.SensitiveHeaders[0] = "X-Mutated"
	if r.SensitiveHeaders[0] != "Cookie" {
		t.Error("copy shares the sensitive header slice")
	}
}
