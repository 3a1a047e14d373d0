package requests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"

	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
	"github.com/uneedslabs/uneeds-backend/pkg/pagination"
)

func setupRequestsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	deliveryRequests := `
CREATE TABLE IF NOT EXISTS delivery_requests (
  id TEXT PRIMARY KEY,
  hosteler_id TEXT NOT NULL,
  helper_id TEXT,
  helper_name TEXT,
  description TEXT,
  base_amount_minor INTEGER NOT NULL,
  service_charge_minor INTEGER NOT NULL,
  tip_minor INTEGER NOT NULL DEFAULT 0,
  total_amount_minor INTEGER NOT NULL,
  status TEXT NOT NULL,
  otp TEXT NOT NULL,
  payment_released INTEGER NOT NULL DEFAULT 0,
  estimated_delivery_time TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	requestItems := `
CREATE TABLE IF NOT EXISTS request_items (
  id TEXT PRIMARY KEY,
  request_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_minor INTEGER NOT NULL
);`

	for _, stmt := range []string{deliveryRequests, requestItems} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	require.NoError(t, db.Exec("DELETE FROM request_items").Error)
	require.NoError(t, db.Exec("DELETE FROM delivery_requests").Error)

	return db
}

func buildRequest(hostelerID uuid.UUID) *models.DeliveryRequest {
	id := uuid.New()
	return &models.DeliveryRequest{
		ID:                 id,
		HostelerID:         hostelerID,
		Description:        "Dinner from the night canteen",
		BaseAmountMinor:    20000,
		ServiceChargeMinor: 2000,
		TipMinor:           2000,
		TotalAmountMinor:   24000,
		Status:             enums.RequestStatusOpen,
		OTP:                "4821",
		Items: []models.RequestItem{
			{ID: uuid.New(), RequestID: id, Position: 0, Name: "Paneer roll", Quantity: 2, UnitPriceMinor: 8000},
			{ID: uuid.New(), RequestID: id, Position: 1, Name: "Lassi", Quantity: 1, UnitPriceMinor: 4000},
		},
	}
}

func TestRepository_CreateAndFind(t *testing.T) {
	db := setupRequestsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	request := buildRequest(uuid.New())
	require.NoError(t, repo.Create(ctx, request))

	found, err := repo.Find(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, request.ID, found.ID)
	assert.Equal(t, enums.RequestStatusOpen, found.Status)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "Paneer roll", found.Items[0].Name)

	err = repo.Create(ctx, buildRequestWithID(request.ID))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func buildRequestWithID(id uuid.UUID) *models.DeliveryRequest {
	request := buildRequest(uuid.New())
	request.ID = id
	request.Items = nil
	return request
}

func TestRepository_FindMissing(t *testing.T) {
	db := setupRequestsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Find(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestRepository_UpdateStatusCAS(t *testing.T) {
	db := setupRequestsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	request := buildRequest(uuid.New())
	require.NoError(t, repo.Create(ctx, request))

	helperID := uuid.New()
	err := repo.UpdateStatusCAS(ctx, request.ID, enums.RequestStatusOpen, enums.RequestStatusAccepted, map[string]any{
		"helper_id":   helperID,
		"helper_name": "Ravi",
	})
	require.NoError(t, err)

	found, err := repo.Find(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RequestStatusAccepted, found.Status)
	require.NotNil(t, found.HelperID)
	assert.Equal(t, helperID, *found.HelperID)

	// a second accept loses the race: status is no longer open
	err = repo.UpdateStatusCAS(ctx, request.ID, enums.RequestStatusOpen, enums.RequestStatusAccepted, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStaleState))

	err = repo.UpdateStatusCAS(ctx, uuid.New(), enums.RequestStatusOpen, enums.RequestStatusAccepted, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestRepository_ListFiltersAndPaginates(t *testing.T) {
	db := setupRequestsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	hostelerID := uuid.New()
	base := time.Now().Add(-time.Hour).UTC()
	for i := 0; i < 3; i++ {
		request := buildRequest(hostelerID)
		request.Items = nil
		request.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, request))
	}
	other := buildRequest(uuid.New())
	other.Items = nil
	other.Status = enums.RequestStatusCompleted
	require.NoError(t, repo.Create(ctx, other))

	mine, next, err := repo.List(ctx, ListFilter{HostelerID: hostelerID}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	assert.NotEmpty(t, next)

	rest, _, err := repo.List(ctx, ListFilter{HostelerID: hostelerID}, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	completed, _, err := repo.List(ctx, ListFilter{Status: enums.RequestStatusCompleted}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, other.ID, completed[0].ID)
}

func TestRepository_StatsQueries(t *testing.T) {
	db := setupRequestsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	open := buildRequest(uuid.New())
	open.Items = nil
	require.NoError(t, repo.Create(ctx, open))

	for _, charge := range []int64{2000, 3500} {
		done := buildRequest(uuid.New())
		done.Items = nil
		done.Status = enums.RequestStatusCompleted
		done.ServiceChargeMinor = charge
		require.NoError(t, repo.Create(ctx, done))
	}

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[enums.RequestStatusOpen])
	assert.Equal(t, int64(2), counts[enums.RequestStatusCompleted])

	sum, err := repo.SumServiceChargesByStatus(ctx, enums.RequestStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(5500), sum)

	none, err := repo.SumServiceChargesByStatus(ctx, enums.RequestStatusDisputed)
	require.NoError(t, err)
	assert.Equal(t, int64(0), none)
}
