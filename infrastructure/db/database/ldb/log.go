package ldb

import "github.com/distributeddata/kvstore/infrastructure/logger"

var log = logger.RegisterSubSystem("KVDB")
