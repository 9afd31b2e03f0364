/*
Package notification holds the buffer of recently posted phone
notifications.

A Store keeps at most Capacity records, evicting the oldest, and hides
records older than Expiry. Expired records are purged whenever the store is
read and by a periodic sweep (Run). Every admission, and every sweep that
removed something, signals subscribers:

	ch, cancel := store.Subscribe()
	defer cancel()
	for range ch {
		render(store.Recent())
	}

Signals carry no payload and coalesce, so a slow consumer sees at least one
signal after any burst of changes and always reads fresh state.

Packages matching the Filter (host package, system packages, configured
globs) are never admitted.
*/
package notification
