package loyalty

import pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"

// InsufficientPoints reports a redemption larger than the balance.
func InsufficientPoints(requested, available int64) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientPoints, "Insufficient points").
		WithDetails(map[string]any{
			"requested": requested,
			"available": available,
			"shortfall": requested - available,
		})
}
