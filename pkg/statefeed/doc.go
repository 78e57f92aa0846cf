// Package statefeed fans the latest value of some state out to any number of
// subscribers.
//
// Each subscriber has a one-slot buffer. Publishing to a subscriber that has
// not consumed its previous value replaces that value, so slow readers always
// see the newest state, never block the publisher and are never dropped.
// A new subscriber immediately receives the last published value.
//
//	feed := statefeed.New[session.State]()
//	unsubscribe := manager.Subscribe(feed.Publish)
//	defer unsubscribe()
//
//	sub := feed.Subscribe(r.Context())
//	defer sub.Close()
//	for s := range sub.C() {
//	    render(s)
//	}
package statefeed
