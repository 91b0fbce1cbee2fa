package wallet

import "testing"

func TestResolveProfile(t *testing.T) {
	tests := []struct {
		name    string
		active  []string
		want    Profile
		wantErr bool
	}{
		{"dev", []string{"dev"}, ProfileDev, false},
		{"live among other profiles", []string{"jdbc-session", "live", "spring-boot"}, ProfileLive, false},
		{"case and spaces", []string{" Demo "}, ProfileDemo, false},
		{"none", []string{"jdbc-session"}, "", true},
		{"empty", nil, "", true},
		{"two wallet profiles", []string{"dev", "live"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveProfile(tt.active)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got profile %q", got)
				}
				if CodeOf(err) != ErrCodeEnvironmentConfiguration {
					t.Errorf("expected %q, got %q", ErrCodeEnvironmentConfiguration, CodeOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveProfile() = %q, want %q", got, tt.want)
			}
		})
	}
}
