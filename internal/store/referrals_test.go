package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paul-reitz/relate.io/internal/models"
)

func TestInsertReferral(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO referral_requests \(client_id, prospect_name, prospect_email, status\)`).
		WithArgs(int64(7), "Amy Prospect", "amy@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	id, err := store.InsertReferral(context.Background(), models.ReferralRequest{
		ClientID:      7,
		ProspectName:  "Amy Prospect",
		ProspectEmail: "amy@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReferralsByAdvisor(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "client_id", "prospect_name", "prospect_email", "status", "created_at",
	}).AddRow(12, 7, "Amy Prospect", "amy@example.com", "pending", time.Now())

	mock.ExpectQuery(`FROM referral_requests r JOIN clients c ON r.client_id = c.id WHERE c.advisor_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	referrals, err := store.ListReferralsByAdvisor(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, referrals, 1)
	assert.Equal(t, "Amy Prospect", referrals[0].ProspectName)
	assert.Equal(t, "pending", referrals[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
