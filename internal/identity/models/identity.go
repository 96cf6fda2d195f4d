package models

// ServiceIdentity keys a persisted credential. Two services sharing a URL but
// using different access groups do not see each other's tokens.
type ServiceIdentity struct {
	ServiceURL  string
	AccessGroup string
}

// Key returns the storage key for this identity. At most one token is
// persisted per key.
func (i ServiceIdentity) Key() string {
	if i.AccessGroup == "" {
		return i.ServiceURL
	}
	return i.ServiceURL + "#" + i.AccessGroup
}
