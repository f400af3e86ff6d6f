package enums

// TenantType classifies a tenant. Only shops take orders today.
type TenantType string

const TenantTypeShop TenantType = "shop"

func (t TenantType) IsValid() bool { return t == TenantTypeShop }
