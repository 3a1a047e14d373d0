package escrow

import (
	"context"

	"github.com/google/uuid"

	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"

	"github.com/uneedslabs/uneeds-backend/internal/users"
	"github.com/uneedslabs/uneeds-backend/pkg/config"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
)

// PlatformAccountName labels the wallet row that collects service fees.
const PlatformAccountName = "Platform"

// ProvisionPlatformAccount creates the wallet row for the configured platform
// revenue account if it does not exist yet. Settlement credits this account
// inside the payout transaction, so it must exist before the first request
// completes. Run once at startup.
func ProvisionPlatformAccount(ctx context.Context, repo users.Repository, cfg config.EscrowConfig) error {
	id := cfg.PlatformAccountUUID()
	if id == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "platform account id required")
	}
	_, err := repo.Ensure(ctx, id, enums.UserRoleAdmin, PlatformAccountName)
	return err
}
