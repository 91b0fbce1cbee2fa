package crypto

import "testing"

// test that cannonical rejects invalid json

func TestCanonicalizeJSON(t *testing.T) {
	// invalid json
	jsonData := []byte(`{"test": "value"`)
	_, err := CanonicalizeJSON(jsonData)
	if err == nil {
		t.Fatalf("CanonicalizeJSON() expected error, got nil")
	}
	t.Logf("CanonicalizeJSON() correctly rejected invalid JSON: %v", err)
}

func TestMarshalCanonical(t *testing.T) {
	type body struct {
		Zeta  string `json:"zeta"`
		Alpha int    `json:"alpha"`
		Mid   []int  `json:"mid"`
	}

	got, err := MarshalCanonical(body{Zeta: "z", Alpha: 1, Mid: []int{3, 2}})
	if err != nil {
		t.Fatalf("MarshalCanonical() error: %v", err)
	}

	want := `{"alpha":1,"mid":[3,2],"zeta":"z"}`
	if string(got) != want {
		t.Errorf("MarshalCanonical() = %s, want %s", got, want)
	}

	// same value, same bytes
	again, err := MarshalCanonical(body{Zeta: "z", Alpha: 1, Mid: []int{3, 2}})
	if err != nil {
		t.Fatalf("MarshalCanonical() error: %v", err)
	}
	if string(again) != string(got) {
		t.Errorf("MarshalCanonical() is not stable: %s != %s", again, got)
	}
}
