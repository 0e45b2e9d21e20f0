// Package registry publishes objhost classes in an embedded Badger store.
//
// Badger implements lifecycle.Gateway. Each registration is stored as JSON
// under three kinds of keys:
//
//	class/<classID>   {token, class_id, description, pid, registered_at}
//	token/<token>     classID
//	meta/ready        {pid, ready_at}
//
// The store may live on disk, so that tooling can inspect what a running
// host exposes, or purely in memory for tests and ephemeral hosts.
package registry
