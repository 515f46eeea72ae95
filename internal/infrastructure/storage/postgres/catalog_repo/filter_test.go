package catalog_repo

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepo() *BaseCatalogRepo[any] {
	return NewBaseCatalogRepo[any](nil, "test_table", []string{"id", "code", "name"}, func() any { return nil })
}

func TestParseOrderBy(t *testing.T) {
	repo := testRepo()

	tests := []struct {
		name    string
		orderBy string
		want    string
		wantErr bool
	}{
		{name: "default", orderBy: "", want: "name ASC"},
		{name: "plain field", orderBy: "code", want: "code ASC"},
		{name: "descending", orderBy: "-code", want: "code DESC"},
		{name: "explicit ascending", orderBy: "+name", want: "name ASC"},
		{name: "unknown column", orderBy: "password", wantErr: true},
		{name: "injection attempt", orderBy: "name; DROP TABLE test_table", wantErr: true},
		{name: "bare minus", orderBy: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.orderBy)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBaseSelect_UsesDollarPlaceholders(t *testing.T) {
	repo := testRepo()

	q := repo.baseSelect().Where(squirrel.Eq{"code": "X"})

	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, code, name FROM test_table WHERE code = $1", sql)
	assert.Equal(t, []any{"X"}, args)
}
