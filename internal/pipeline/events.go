// SPDX-License-Identifier: MPL-2.0

package pipeline

// Event is sent to subscribers after every publish.
type Event struct {
	// Version is the published generation version.
	Version uint64
	// Success mirrors Generation.LoadSuccess.
	Success bool
}

// Subscribe registers for publish events. Sends never block: when the
// channel buffer is full the event is dropped and the subscriber should
// read Current. The returned function unsubscribes and closes the channel.
func (p *Pipeline) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	p.subsMu.Lock()
	if p.subs == nil {
		p.subsMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	p.subsMu.Unlock()

	return ch, func() {
		p.subsMu.Lock()
		defer p.subsMu.Unlock()
		if c, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(c)
		}
	}
}

func (p *Pipeline) notify(ev Event) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- ev:
		default:
			p.logger.Debug("dropping recompiled event for slow subscriber", "version", ev.Version)
		}
	}
}

func (p *Pipeline) closeSubscribers() {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
	p.subs = nil
}
