package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterRepositoryLoad(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM group_members")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "level", "group_number"}).
			AddRow("s1", "MP2I", 1).
			AddRow("s2", "MP2I", 2))
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "display_name"}).AddRow("t1", "Curie"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM tutoring_groups")).
		WillReturnRows(sqlmock.NewRows([]string{"level", "number"}).AddRow("MP2I", 1).AddRow("MP2I", 2).AddRow("MP2I", 3))

	roster, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, roster.Members, 2)
	assert.Equal(t, "Curie", roster.Teachers[0].DisplayName)
	assert.Len(t, roster.Groups, 3)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryLoadError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM group_members")).WillReturnError(errors.New("boom"))

	_, err := repo.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load group members")
}
