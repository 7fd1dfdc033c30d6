package repository

import (
	"os"
	"testing"

	"github.com/joho/godotenv"

	"github.com/sablebank/ledger/internal/testutil/dblock"
)

func TestMain(m *testing.M) {
	_ = godotenv.Load("../../.env")
	release := dblock.Acquire()
	code := m.Run()
	release()
	os.Exit(code)
}
