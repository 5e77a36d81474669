// Package notifier provides a topic-aware broadcast mechanism for SSE
// updates.
package notifier

import "sync"

type listener struct {
	ch     chan struct{}
	topics map[string]struct{} // empty means every topic
}

// Notifier broadcasts update signals to subscribed listeners. Listeners
// receive an empty struct as a ping and should re-query their data. Topics
// let a page subscribe to just the cache tags it renders; the file watcher
// broadcasts with no topics to ping everyone.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]*listener
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan struct{}]*listener),
	}
}

// Subscribe returns a channel that receives pings when any of the topics
// is broadcast. With no topics the channel receives every broadcast. The
// caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe(topics ...string) chan struct{} {
	l := &listener{ch: make(chan struct{}, 1)}
	if len(topics) > 0 {
		l.topics = make(map[string]struct{}, len(topics))
		for _, topic := range topics {
			l.topics[topic] = struct{}{}
		}
	}
	n.mu.Lock()
	n.listeners[l.ch] = l
	n.mu.Unlock()
	return l.ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast pings every listener interested in any of the topics. With no
// topics every listener is pinged. Non-blocking: a listener whose channel
// is full catches up on its next read.
func (n *Notifier) Broadcast(topics ...string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, l := range n.listeners {
		if !l.wants(topics) {
			continue
		}
		select {
		case l.ch <- struct{}{}:
		default:
		}
	}
}

func (l *listener) wants(topics []string) bool {
	if len(topics) == 0 || l.topics == nil {
		return true
	}
	for _, topic := range topics {
		if _, ok := l.topics[topic]; ok {
			return true
		}
	}
	return false
}
