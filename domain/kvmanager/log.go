package kvmanager

import (
	"github.com/distributeddata/kvstore/infrastructure/logger"
)

var log = logger.RegisterSubSystem("KVMG")
