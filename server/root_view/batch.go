package root_view

import (
	"time"

	"punctuation/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// fanIn aggregates the views' ele-update channels into a single channel,
// and throttles its output.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batchify(
		done,
		channerics.Merge(done, inputs...),
		rate)
}

// batchify collects updates and sends them once per rate, coalescing ops for the same
// ele-id and key so only the latest value of each is sent. Unlike snapshots of a model,
// these updates are deltas: none is dropped, and a batch keeps the order in which each
// ele-id and key was first seen.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		send := func(b *batch) bool {
			if b.empty() {
				return true
			}
			select {
			case output <- b.flush():
				return true
			case <-done:
				return false
			}
		}

		pending := newBatch()
		ticks := channerics.NewTicker(done, rate)
		for {
			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					send(pending)
					return
				}
				pending.add(updates)
			case <-ticks:
				if !send(pending) {
					return
				}
			}
		}
	}()

	return output
}

// batch is a set of ele-updates coalesced by ele-id and op key.
type batch struct {
	order []string
	eles  map[string]*eleOps
}

type eleOps struct {
	keys   []string
	values map[string]string
}

func newBatch() *batch {
	return &batch{eles: map[string]*eleOps{}}
}

func (b *batch) empty() bool {
	return len(b.order) == 0
}

// add merges the updates into the batch. Later values for an ele-id and key overwrite
// earlier ones in place.
func (b *batch) add(updates []fastview.EleUpdate) {
	for _, update := range updates {
		ele, ok := b.eles[update.EleId]
		if !ok {
			ele = &eleOps{values: map[string]string{}}
			b.eles[update.EleId] = ele
			b.order = append(b.order, update.EleId)
		}
		for _, op := range update.Ops {
			if _, seen := ele.values[op.Key]; !seen {
				ele.keys = append(ele.keys, op.Key)
			}
			ele.values[op.Key] = op.Value
		}
	}
}

// flush returns the batch's updates in first-seen order and empties it.
func (b *batch) flush() []fastview.EleUpdate {
	updates := make([]fastview.EleUpdate, 0, len(b.order))
	for _, id := range b.order {
		ele := b.eles[id]
		ops := make([]fastview.Op, len(ele.keys))
		for i, key := range ele.keys {
			ops[i] = fastview.Op{Key: key, Value: ele.values[key]}
		}
		updates = append(updates, fastview.EleUpdate{EleId: id, Ops: ops})
	}
	b.order = nil
	b.eles = map[string]*eleOps{}
	return updates
}
