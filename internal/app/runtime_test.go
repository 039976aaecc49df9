package app

import "testing"

func TestTestModeFollowsEnvironment(t *testing.T) {
	t.Setenv("ATLAS_TEST_MODE", "1")
	RefreshTestMode()
	if !InTestMode() {
		t.Fatalf("expected test mode on")
	}

	t.Setenv("ATLAS_TEST_MODE", "")
	RefreshTestMode()
	if InTestMode() {
		t.Fatalf("expected test mode off")
	}

	t.Setenv("ATLAS_TEST_MODE", "1")
	RefreshTestMode()
}
