// Package kvstore defines the durable key-value contract used to persist
// small opaque records such as the signed-in user, together with two
// implementations that need no external services.
//
// A Store stores string values under string keys. Reading an absent key is
// not a failure of the store: Get reports it with ErrNotFound so that callers
// can tell "nothing saved" apart from "storage is broken". Deleting an absent
// key succeeds.
//
// # Implementations
//
//   - MemoryStore keeps values in a map guarded by a mutex. Values are lost on
//     process exit; it is the default for tests and ephemeral runs.
//   - FileStore keeps every key in a single JSON document on local disk and
//     rewrites it atomically on each mutation. It is the on-device storage
//     analogue for single-process deployments and the CLI.
//
// Network-backed implementations live next to their drivers: see
// pkg/redis, pkg/pg, pkg/mongo and pkg/s3kv.
//
// # Usage
//
//	store, err := kvstore.NewFileStore(filepath.Join(dir, "state.json"))
//	if err != nil {
//	    return err
//	}
//
//	if err := store.Set(ctx, "user", `{"email":"a@x.com","name":"A"}`); err != nil {
//	    return err
//	}
//
//	v, err := store.Get(ctx, "user")
//	if errors.Is(err, kvstore.ErrNotFound) {
//	    // nothing saved yet
//	}
package kvstore
