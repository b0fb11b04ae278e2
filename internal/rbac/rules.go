package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"exam:generate",
		"exam:view",
		"exam:history",
		"session:create",
		"session:answer",
		"session:submit",
		"session:view-own",
	},
	"admin": {
		"*", // everything
	},
}
