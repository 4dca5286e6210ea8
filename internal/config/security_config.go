package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Valid auth token required
)

// EndpointSecurityConfig maps route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"Health": SecurityPublic,

	"ListRentals":            SecurityAccess,
	"CreateRental":           SecurityAccess,
	"GetRental":              SecurityAccess,
	"UpdateRentalAssignment": SecurityAccess,
	"DeleteRental":           SecurityAccess,
	"ProcessReturn":          SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityAccess
}
