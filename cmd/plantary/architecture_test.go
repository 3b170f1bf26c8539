package main

import (
	"plantary/testutil"
	"testing"
)

func TestCommandsUseFacadesOnly(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InfraImportForbidden,
		"commands open storage through core.OpenStorage and blob.OpenConfig")
}
