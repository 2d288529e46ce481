package header

import (
	"testing"
	"time"
)

func TestKind_IsValid(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want bool
	}{
		{name: "Recipe is valid", kind: KindRecipe, want: true},
		{name: "PackageInfo is valid", kind: KindPackageInfo, want: true},
		{name: "CreateResult is valid", kind: KindCreateResult, want: true},
		{name: "InspectResult is valid", kind: KindInspectResult, want: true},
		{name: "Empty kind is invalid", kind: Kind(""), want: false},
		{name: "Unknown kind is invalid", kind: Kind("Lockfile"), want: false},
		{name: "Case sensitive - lowercase is invalid", kind: Kind("recipe"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.IsValid(); got != tt.want {
				t.Errorf("Kind.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithMetadata(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		existing map[string]string
		want     map[string]string
	}{
		{
			name:     "Add metadata to empty header",
			key:      "invocation",
			value:    "abc",
			existing: nil,
			want:     map[string]string{"invocation": "abc"},
		},
		{
			name:     "Overwrite existing key",
			key:      "invocation",
			value:    "def",
			existing: map[string]string{"invocation": "abc"},
			want:     map[string]string{"invocation": "def"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Header{Metadata: tt.existing}
			WithMetadata(tt.key, tt.value)(h)

			if len(h.Metadata) != len(tt.want) {
				t.Errorf("Metadata length = %v, want %v", len(h.Metadata), len(tt.want))
			}
			for key, wantValue := range tt.want {
				if gotValue := h.Metadata[key]; gotValue != wantValue {
					t.Errorf("Metadata[%q] = %v, want %v", key, gotValue, wantValue)
				}
			}
		})
	}
}

func TestNew(t *testing.T) {
	h := New(
		WithKind(KindPackageInfo),
		WithAPIVersion(APIVersion),
		WithMetadata("fingerprint", "sha256:00"),
	)
	if h.Kind != KindPackageInfo {
		t.Errorf("Kind = %v, want %v", h.Kind, KindPackageInfo)
	}
	if h.APIVersion != APIVersion {
		t.Errorf("APIVersion = %v, want %v", h.APIVersion, APIVersion)
	}
	if h.Metadata["fingerprint"] != "sha256:00" {
		t.Errorf("fingerprint metadata missing: %v", h.Metadata)
	}
}

func TestHeader_Init(t *testing.T) {
	h := &Header{Metadata: map[string]string{"stale": "x"}}
	h.Init(KindCreateResult, "v1.0.0")

	if h.Kind != KindCreateResult {
		t.Errorf("Kind = %v, want %v", h.Kind, KindCreateResult)
	}
	if h.APIVersion != APIVersion {
		t.Errorf("APIVersion = %v, want %v", h.APIVersion, APIVersion)
	}
	if _, exists := h.Metadata["stale"]; exists {
		t.Error("Init should reset metadata")
	}
	if v := h.Metadata["version"]; v != "v1.0.0" {
		t.Errorf("version = %v, want v1.0.0", v)
	}

	ts, err := time.Parse(time.RFC3339, h.Metadata["timestamp"])
	if err != nil {
		t.Fatalf("timestamp is not RFC3339: %v", err)
	}
	if diff := time.Now().UTC().Sub(ts); diff < 0 || diff > time.Minute {
		t.Errorf("timestamp %v is not recent", ts)
	}
}

func TestHeader_Init_NoVersion(t *testing.T) {
	h := &Header{}
	h.Init(KindRecipe, "")
	if _, exists := h.Metadata["version"]; exists {
		t.Error("version should not exist when empty")
	}
}
