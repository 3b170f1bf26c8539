package domain_test

import (
	"plantary/testutil"
	"testing"
)

// TestDomainDoesNotImportInternal keeps the domain package usable by
// clients that only speak the wire types.
func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"pkg/domain must not depend on internal packages")
}

func TestDomainThirdPartyAllowlist(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.ThirdPartyImportForbidden("golang.org/x/crypto"),
		"pkg/domain may only use golang.org/x/crypto beyond the standard library")
}

func TestDomainHasNoTransitiveInternalDeps(t *testing.T) {
	if testing.Short() {
		t.Skip("shells out to go list")
	}
	testutil.AssertNoTransitiveDependency(t, ".", testutil.InternalImportForbidden,
		"pkg/domain must not pull internal packages in transitively")
}
