package model

import "fmt"

// SubscribeType selects which changes an observer receives.
type SubscribeType uint8

// Subscribe types
const (
	SubscribeTypeLocal  SubscribeType = 0
	SubscribeTypeRemote SubscribeType = 1
	SubscribeTypeAll    SubscribeType = 2
)

func (st SubscribeType) String() string {
	switch st {
	case SubscribeTypeLocal:
		return "LOCAL"
	case SubscribeTypeRemote:
		return "REMOTE"
	case SubscribeTypeAll:
		return "ALL"
	}
	return fmt.Sprintf("SubscribeType(%d)", uint8(st))
}

// IsValid returns whether st is a known subscribe type.
func (st SubscribeType) IsValid() bool {
	return st <= SubscribeTypeAll
}

// ReceivesLocal returns whether observers of this type are notified of
// changes made through the local store.
func (st SubscribeType) ReceivesLocal() bool {
	return st == SubscribeTypeLocal || st == SubscribeTypeAll
}

// KVStoreType is the kind of store.
type KVStoreType uint8

// Store types
const (
	KVStoreTypeDeviceCollaboration KVStoreType = 0
	KVStoreTypeSingleVersion       KVStoreType = 1
	KVStoreTypeMultiVersion        KVStoreType = 2
)

func (t KVStoreType) String() string {
	switch t {
	case KVStoreTypeDeviceCollaboration:
		return "DEVICE_COLLABORATION"
	case KVStoreTypeSingleVersion:
		return "SINGLE_VERSION"
	case KVStoreTypeMultiVersion:
		return "MULTI_VERSION"
	}
	return fmt.Sprintf("KVStoreType(%d)", uint8(t))
}

// SecurityLevel is the data protection level of a store.
type SecurityLevel uint8

// Security levels. 4 is unassigned.
const (
	SecurityLevelNoLevel SecurityLevel = 0
	SecurityLevelS0      SecurityLevel = 1
	SecurityLevelS1      SecurityLevel = 2
	SecurityLevelS2      SecurityLevel = 3
	SecurityLevelS3      SecurityLevel = 5
	SecurityLevelS4      SecurityLevel = 6
)

var securityLevelStrings = map[SecurityLevel]string{
	SecurityLevelNoLevel: "NO_LEVEL",
	SecurityLevelS0:      "S0",
	SecurityLevelS1:      "S1",
	SecurityLevelS2:      "S2",
	SecurityLevelS3:      "S3",
	SecurityLevelS4:      "S4",
}

func (l SecurityLevel) String() string {
	if s, ok := securityLevelStrings[l]; ok {
		return s
	}
	return fmt.Sprintf("SecurityLevel(%d)", uint8(l))
}

// IsValid returns whether l is a known security level.
func (l SecurityLevel) IsValid() bool {
	_, ok := securityLevelStrings[l]
	return ok
}

// Backend names accepted in Options.Backend.
const (
	BackendLevelDB = "ldb"
	BackendBoltDB  = "boltdb"
	BackendMemDB   = "memdb"
)

// Options configures how a store is opened.
type Options struct {
	CreateIfMissing bool
	Encrypt         bool
	Backup          bool
	AutoSync        bool
	KVStoreType     KVStoreType
	SecurityLevel   SecurityLevel
	Backend         string
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		CreateIfMissing: true,
		Backup:          true,
		KVStoreType:     KVStoreTypeSingleVersion,
		SecurityLevel:   SecurityLevelNoLevel,
		Backend:         BackendLevelDB,
	}
}
