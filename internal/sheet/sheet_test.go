package sheet

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const loanSheet = `
name: loan
description: simple interest on a 90 day loan
cells:
  principal:
    value: 1000
  days:
    function: days360
    args: [1, 1, 2024, 1, 4, 2024]
  grown:
    function: FVADJUSTED
    args: ["=principal", 12, "=days", 360]
`

func writeSheet(t *testing.T, dir, file, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(body), 0o644))
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(loanSheet))
	require.NoError(t, err)
	require.Equal(t, "loan", s.Name)
	require.Equal(t, []string{"days", "grown", "principal"}, s.CellNames())
	require.Equal(t, "DAYS360", s.Cells["days"].Function)
	require.True(t, s.Cells["principal"].IsLiteral())
	require.Len(t, s.Fingerprint, 64)

	again, err := Parse([]byte(loanSheet))
	require.NoError(t, err)
	require.Equal(t, s.Fingerprint, again.Fingerprint)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			body:    "name: [",
			wantErr: "parsing sheet",
		},
		{
			name:    "no cells",
			body:    "name: empty\n",
			wantErr: "cells must not be empty",
		},
		{
			name:    "args without function",
			body:    "name: x\ncells:\n  a:\n    args: [1]\n",
			wantErr: "has args but no function",
		},
		{
			name:    "function and value",
			body:    "name: x\ncells:\n  a:\n    function: SUM\n    value: 1\n",
			wantErr: "sets both function and value",
		},
		{
			name:    "reference-like cell name",
			body:    "name: x\ncells:\n  \"=a\":\n    value: 1\n",
			wantErr: "invalid cell name",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body))
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestParse_NamelessDocumentIsSkipped(t *testing.T) {
	s, err := Parse([]byte("# nothing here\n"))
	require.NoError(t, err)
	require.Nil(t, s)
}

func TestFileSystemRepository(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "loan.yaml", loanSheet)
	writeSheet(t, dir, "stats.yml", "name: stats\ncells:\n  avg:\n    function: AVERAGE\n    args: [[1, 2, 3]]\n")
	writeSheet(t, dir, "notes.txt", "ignored")
	writeSheet(t, dir, "blank.yaml", "# placeholder\n")

	repo, err := NewFileSystemRepository(dir)
	require.NoError(t, err)

	sheets, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	require.Equal(t, "loan", sheets[0].Name)
	require.Equal(t, "stats", sheets[1].Name)
	require.Equal(t, filepath.Join(dir, "loan.yaml"), sheets[0].Path)

	s, err := repo.Get(context.Background(), "stats")
	require.NoError(t, err)
	require.Equal(t, "AVERAGE", s.Cells["avg"].Function)

	_, err = repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrSheetNotFound)
}

func TestFileSystemRepository_MissingDirIsEmpty(t *testing.T) {
	repo, err := NewFileSystemRepository(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)

	sheets, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, sheets)
}

func TestFileSystemRepository_DuplicateName(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "a.yaml", loanSheet)
	writeSheet(t, dir, "b.yaml", loanSheet)

	_, err := NewFileSystemRepository(dir)
	require.ErrorContains(t, err, "duplicate sheet name")
}

func TestNewMemoryRepository_DuplicateName(t *testing.T) {
	_, err := NewMemoryRepository(Sheet{Name: "a"}, Sheet{Name: "a"})
	require.Error(t, err)
}
