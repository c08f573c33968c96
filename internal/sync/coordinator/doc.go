// Package coordinator schedules background syncs for the serve command.
//
// The coordinator sits on top of sync.Manager. It performs an initial sync
// on Start, repeats it on a jittered interval, and hands every usable
// result to a Publisher. A sync that produces no registry leaves the
// previously published one in place.
//
//	mgr := sync.NewManager(candidates, store, statusPersistence)
//	coord := coordinator.New(mgr, time.Hour, holder.Set)
//
//	go coord.Start(ctx)
//	defer coord.Stop()
package coordinator
