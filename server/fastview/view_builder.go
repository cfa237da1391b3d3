package fastview

import (
	"context"
	"errors"

	channerics "github.com/niceyeti/channerics/channels"
)

// ViewBuilder fans one source of data-models out to several views that share a view-model.
// Each data-model is converted once, and every view receives its own copy of the result.
type ViewBuilder[DataModel any, ViewModel any] struct {
	source  <-chan DataModel
	convert func(DataModel) ViewModel
	views   []ViewBuilderFunc[ViewModel]
	// nil done means the views live until source closes.
	done <-chan struct{}
}

// ViewBuilderFunc builds a view from a done channel and the view's own view-model channel.
type ViewBuilderFunc[ViewModel any] func(<-chan struct{}, <-chan ViewModel) ViewComponent

// ErrNoViews is returned when Build() is called before the caller has added any views.
var ErrNoViews error = errors.New("no views to build: WithView must be called")

// ErrNoModel is returned when Build() is called before WithModel() has been called.
var ErrNoModel error = errors.New("no model specified: WithModel must be called")

func NewViewBuilder[DataModel any, ViewModel any]() *ViewBuilder[DataModel, ViewModel] {
	return &ViewBuilder[DataModel, ViewModel]{}
}

// WithModel sets the source and its conversion to the view-model.
func (vb *ViewBuilder[DataModel, ViewModel]) WithModel(
	source <-chan DataModel,
	convert func(DataModel) ViewModel,
) *ViewBuilder[DataModel, ViewModel] {
	vb.source = source
	vb.convert = convert
	return vb
}

// WithView appends a view.
func (vb *ViewBuilder[DataModel, ViewModel]) WithView(
	build ViewBuilderFunc[ViewModel],
) *ViewBuilder[DataModel, ViewModel] {
	vb.views = append(vb.views, build)
	return vb
}

// WithContext closes every channel Build wires once ctx is done.
func (vb *ViewBuilder[DataModel, ViewModel]) WithContext(
	ctx context.Context,
) *ViewBuilder[DataModel, ViewModel] {
	vb.done = ctx.Done()
	return vb
}

// Build wires the views and returns them in the order they were added.
//
// Every view receives every view-model, in source order. The broadcast is lockstep:
// view-model n+1 goes out only after all views have taken n, so the slowest view paces
// the rest and no view can run ahead of another by more than one view-model.
func (vb *ViewBuilder[DataModel, ViewModel]) Build() ([]ViewComponent, error) {
	if len(vb.views) == 0 {
		return nil, ErrNoViews
	}
	if vb.convert == nil {
		return nil, ErrNoModel
	}

	viewModels := channerics.Convert(vb.done, vb.source, vb.convert)
	outputs := channerics.Broadcast(vb.done, viewModels, len(vb.views))

	views := make([]ViewComponent, 0, len(vb.views))
	for i, build := range vb.views {
		views = append(views, build(vb.done, outputs[i]))
	}
	return views, nil
}
