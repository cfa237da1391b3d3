package glyph_grid

// FaceLoader asynchronously makes a face available for rendering. Requests are
// fire-and-forget: completion is reported back to the session with the tile id via
// Session.FaceReady or Session.FaceFailed.
type FaceLoader interface {
	RequestLoad(face Face, tile TileID)
}

// faceTable maps tile identities to the continuation to run once that tile's face is loaded.
// Completions look up the tile by identity, never by slot, so they stay correct after wraps.
type faceTable struct {
	pending map[TileID]func()
}

func newFaceTable() *faceTable {
	return &faceTable{pending: map[TileID]func(){}}
}

func (ft *faceTable) register(id TileID, onReady func()) {
	ft.pending[id] = onReady
}

// take removes and returns the continuation for id.
func (ft *faceTable) take(id TileID) (func(), bool) {
	onReady, ok := ft.pending[id]
	if ok {
		delete(ft.pending, id)
	}
	return onReady, ok
}

func (ft *faceTable) len() int {
	return len(ft.pending)
}

func (ft *faceTable) clear() {
	ft.pending = map[TileID]func(){}
}
