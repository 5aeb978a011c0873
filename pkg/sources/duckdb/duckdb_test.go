package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapml/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name       string
		database   string
		collection string
		want       string
		wantErr    bool
	}{
		{"table", "", "phishing", `SELECT * FROM "phishing"`, false},
		{"schema table", "main", "phishing", `SELECT * FROM "main"."phishing"`, false},
		{"qualified wins", "main", "raw.phishing", `SELECT * FROM "raw"."phishing"`, false},
		{"csv", "", "data/phish.csv", `SELECT * FROM read_csv_auto('data/phish.csv', header=true)`, false},
		{"parquet", "", "x.parquet", `SELECT * FROM read_parquet('x.parquet')`, false},
		{"empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildQuery(tt.database, tt.collection)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSource_FetchCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,label\n1,2.5,0\n3,4.5,1\n"), 0600))

	ctx := context.Background()
	src := New(nil)
	require.NoError(t, src.Connect(ctx, source.Config{}))
	defer func() { _ = src.Close() }()

	docs, err := src.Fetch(ctx, "", path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0][0].Key)
	assert.Equal(t, "label", docs[0][2].Key)
}

func TestSource_NotConnected(t *testing.T) {
	_, err := New(nil).Fetch(context.Background(), "", "t")
	assert.Error(t, err)
}
