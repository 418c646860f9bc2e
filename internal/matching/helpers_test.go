package matching_test

import "github.com/sudo-init-do/fixhub/internal/user"

func userCaller(id string) user.Caller {
	return user.Caller{ID: id, Role: user.RolePro}
}
