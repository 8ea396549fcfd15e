// Package persist saves shared state to durable storage and restores it
// on start.
//
// A Store holds JSON snapshots keyed by state name. Three are provided:
//
//   - MemoryStore for tests
//   - DiskStore, one file per state in a directory
//   - S3Store, one object per state in an S3 bucket
//
// Bind connects a *listenable.SharedState to a Store:
//
//	cart := listenable.NewSharedState(Cart{}, listenable.WithName("cart"))
//	s, err := persist.Bind(ctx, persist.NewMemoryStore(), cart)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	cart.Set(Cart{Items: 3}) // written in the background
//
// Writes are coalesced. A burst of changes produces at most one write in
// flight plus one queued write carrying the latest value.
package persist
