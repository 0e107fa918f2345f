package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

var testDB *TestDatabaseSetup

func TestMain(m *testing.M) {
	setup, err := NewTestDatabase(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	testDB = setup

	code := m.Run()
	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

// requireDB skips the test without TEST_DATABASE_URL and starts from empty tables.
func requireDB(t *testing.T) *TestDatabaseSetup {
	t.Helper()
	if testDB == nil {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, testDB.TruncateAllTables(context.Background()))
	t.Cleanup(func() {
		_ = testDB.TruncateAllTables(context.Background())
	})
	return testDB
}
