package model

// Entry is an immutable key/value pair.
type Entry struct {
	Key   string
	Value *Value
}

// NewEntry returns a new entry.
func NewEntry(key string, value *Value) *Entry {
	return &Entry{Key: key, Value: value}
}

// Equal returns whether e and other have the same key and value.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Key == other.Key && e.Value.Equal(other.Value)
}

// ChangeNotification describes the entries changed by one committed write.
type ChangeNotification struct {
	InsertEntries []*Entry
	UpdateEntries []*Entry
	DeleteEntries []*Entry
	DeviceID      string
}

// IsEmpty returns whether the notification carries no change.
func (n *ChangeNotification) IsEmpty() bool {
	return len(n.InsertEntries) == 0 && len(n.UpdateEntries) == 0 && len(n.DeleteEntries) == 0
}
