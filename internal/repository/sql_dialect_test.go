package repository

import "testing"

func TestLikeOperatorByDialect(t *testing.T) {
	if got := likeOperatorByDialect("postgres"); got != "ILIKE" {
		t.Fatalf("postgres like operator want ILIKE got %s", got)
	}
	if got := likeOperatorByDialect("sqlite"); got != "LIKE" {
		t.Fatalf("sqlite like operator want LIKE got %s", got)
	}
	if got := dbDialectName(nil); got != "sqlite" {
		t.Fatalf("nil db should fall back to sqlite, got %s", got)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike("DN_20250101%"); got != `DN\_20250101\%` {
		t.Fatalf("unexpected escaped value: %s", got)
	}
}
