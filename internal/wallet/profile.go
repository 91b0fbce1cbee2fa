package wallet

import (
	"fmt"
	"strings"
)

// Profile is the deployment profile. Its name is the namespace segment of every class and object id,
// so demo, dev and live deployments sharing one issuer account never touch each other's passes.
type Profile string

const (
	ProfileDemo Profile = "demo"
	ProfileDev  Profile = "dev"
	ProfileLive Profile = "live"
)

var walletProfiles = []Profile{ProfileDemo, ProfileDev, ProfileLive}

// ResolveProfile picks the wallet profile from the active deployment profiles.
// Exactly one of demo, dev or live must be active; other profile names are ignored.
//
// This is resolved once at startup - an error means the deployment is misconfigured.
func ResolveProfile(active []string) (Profile, error) {
	var found []Profile
	for _, p := range walletProfiles {
		for _, a := range active {
			if strings.EqualFold(strings.TrimSpace(a), string(p)) {
				found = append(found, p)
				break
			}
		}
	}

	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", NewEnvironmentConfigurationError(fmt.Sprintf(
			"no wallet profile found in active profiles %v: one of demo, dev or live must be active", active))
	default:
		return "", NewEnvironmentConfigurationError(fmt.Sprintf(
			"more than one wallet profile is active (%v): exactly one of demo, dev or live must be active", found))
	}
}

// Prefix returns the id namespace segment of the profile
func (p Profile) Prefix() string { return string(p) }
