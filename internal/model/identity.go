package model

// Role is the verified role of a caller.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Caller is the identity forwarded by the authenticating gateway.
type Caller struct {
	ID   string
	Role Role
}

// IsSeller reports whether the caller acts as a seller.
func (c Caller) IsSeller() bool {
	return c.Role == RoleSeller
}
