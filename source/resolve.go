package source

import (
	"os/user"
	"strconv"

	"placer.io/perrors"
)

func resolveUser(userName, groupName string) (uid, gid uint32, err error) {
	u, err := user.Lookup(userName)
	if err != nil {
		return 0, 0, perrors.Errorf("invalid user: %s (%v)", userName, err)
	}
	g, err := user.LookupGroup(groupName)
	if err != nil {
		return 0, 0, perrors.Errorf("invalid group: %s (%v)", groupName, err)
	}

	uidVal, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, 0, perrors.Errorf("bad uid for user %s: %v", userName, err)
	}
	gidVal, err := strconv.ParseUint(g.Gid, 10, 32)
	if err != nil {
		return 0, 0, perrors.Errorf("bad gid for group %s: %v", groupName, err)
	}

	return uint32(uidVal), uint32(gidVal), nil
}
