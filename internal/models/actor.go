package models

// Roles a caller can act as. OTP operations take the role explicitly
// instead of inferring it from session state.
const (
	RoleEmployer   = "employer"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
)
