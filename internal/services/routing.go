package services

import "github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/models"

// RouteForRole returns the frontend path a user lands on after signing in.
func RouteForRole(role string, hasVendor bool) string {
	switch role {
	case models.RoleSeller:
		if hasVendor {
			return "/vendor/dashboard"
		}
		return "/vendor/onboarding"
	case models.RoleAdmin, models.RoleSuperAdmin:
		return "/admin"
	default:
		return "/"
	}
}
