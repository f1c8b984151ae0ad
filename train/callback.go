package train

// Callback receives lifecycle hooks from the trainer. Every hook gets the
// shared state bag; returning an error aborts the run with that error.
//
// Hook order within one batch: OnSample, OnForward, OnCriterion, OnBackward,
// OnStep. OnBackward fires after gradients are accumulated and before the
// optimizer step, which is where gradient clipping belongs.
type Callback interface {
	OnStart(s State) error
	OnStartEpoch(s State) error
	OnSample(s State) error
	OnForward(s State) error
	OnCriterion(s State) error
	OnBackward(s State) error
	OnStep(s State) error
	OnEndEpoch(s State) error
	OnEnd(s State) error
}

// BaseCallback is a no-op Callback for embedding; concrete callbacks override
// only the hooks they care about.
type BaseCallback struct{}

func (BaseCallback) OnStart(State) error      { return nil }
func (BaseCallback) OnStartEpoch(State) error { return nil }
func (BaseCallback) OnSample(State) error     { return nil }
func (BaseCallback) OnForward(State) error    { return nil }
func (BaseCallback) OnCriterion(State) error  { return nil }
func (BaseCallback) OnBackward(State) error   { return nil }
func (BaseCallback) OnStep(State) error       { return nil }
func (BaseCallback) OnEndEpoch(State) error   { return nil }
func (BaseCallback) OnEnd(State) error        { return nil }

// CallbackList fans a hook out to every child callback in order, stopping at
// the first error.
type CallbackList []Callback

func (l CallbackList) OnStart(s State) error      { return l.each(Callback.OnStart, s) }
func (l CallbackList) OnStartEpoch(s State) error { return l.each(Callback.OnStartEpoch, s) }
func (l CallbackList) OnSample(s State) error     { return l.each(Callback.OnSample, s) }
func (l CallbackList) OnForward(s State) error    { return l.each(Callback.OnForward, s) }
func (l CallbackList) OnCriterion(s State) error  { return l.each(Callback.OnCriterion, s) }
func (l CallbackList) OnBackward(s State) error   { return l.each(Callback.OnBackward, s) }
func (l CallbackList) OnStep(s State) error       { return l.each(Callback.OnStep, s) }
func (l CallbackList) OnEndEpoch(s State) error   { return l.each(Callback.OnEndEpoch, s) }
func (l CallbackList) OnEnd(s State) error        { return l.each(Callback.OnEnd, s) }

func (l CallbackList) each(hook func(Callback, State) error, s State) error {
	for _, cb := range l {
		if cb == nil {
			continue
		}
		if err := hook(cb, s); err != nil {
			return err
		}
	}
	return nil
}
