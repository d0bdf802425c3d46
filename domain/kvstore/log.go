package kvstore

import (
	"github.com/distributeddata/kvstore/infrastructure/logger"
	"github.com/distributeddata/kvstore/util/panics"
)

var log = logger.RegisterSubSystem("KVST")
var spawn = panics.GoroutineWrapperFunc(log)
