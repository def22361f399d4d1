package walker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/codes"

	"github.com/specialistvlad/osgraph/internal/ctxlog"
	"github.com/specialistvlad/osgraph/internal/entity"
	"github.com/specialistvlad/osgraph/internal/entityid"
	"github.com/specialistvlad/osgraph/internal/registry"
)

var (
	// ErrBusy is returned by Spawn while the walker is running or paused.
	ErrBusy = errors.New("walker: busy")
	// ErrNotPaused is returned by Resume unless the walker is paused.
	ErrNotPaused = errors.New("walker: not paused")
	// ErrNotRegistered is returned by New for types missing from the registry.
	ErrNotRegistered = errors.New("walker: type not registered")
	// ErrUnbound is returned when a walker was not created through New.
	ErrUnbound = errors.New("walker: not bound")
)

// Runner is implemented by every type embedding Walker.
type Runner interface {
	EntityKind() entityid.Kind
	ID() string
	State() State
	Response() *Response
	Spawn(ctx context.Context, start entity.Visitable) (*Response, error)
	Resume(ctx context.Context) (*Response, error)
	base() *Walker
}

// Walker is the base for user walkers.
type Walker struct {
	id       string
	class    string
	sess     *entity.Session
	reg      *registry.Registry
	self     Runner
	presence *entity.Presence

	mu            sync.Mutex
	state         State
	queue         []entity.Visitable
	current       entity.Visitable
	pendingTarget entity.Visitable
	pendingHooks  []*registry.Hook
	control       control
	response      *Response
}

// New binds w to a session and a registry and assigns it an identifier.
func New[T Runner](sess *entity.Session, reg *registry.Registry, w T) (T, error) {
	info, ok := reg.Lookup(w)
	if !ok {
		return w, fmt.Errorf("%w: %T", ErrNotRegistered, w)
	}
	if info.Kind != entityid.Walker {
		return w, fmt.Errorf("%w: '%s' is a %s type", ErrNotRegistered, info.Class, info.Kind)
	}

	b := w.base()
	b.id = entityid.Generate(entityid.Walker, info.Class)
	b.class = info.Class
	b.sess = sess
	b.reg = reg
	b.self = w
	b.presence = entity.NewPresence(w)
	b.response = newResponse()
	return w, nil
}

// EntityKind reports entityid.Walker.
func (w *Walker) EntityKind() entityid.Kind { return entityid.Walker }

func (w *Walker) base() *Walker { return w }

// ID returns the walker identifier, "w:{Class}:{hex}".
func (w *Walker) ID() string { return w.id }

// Session returns the session the walker loads and saves through.
func (w *Walker) Session() *entity.Session { return w.sess }

// State returns the lifecycle state.
func (w *Walker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Response returns the response document of the current or last run.
func (w *Walker) Response() *Response {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.response
}

// Current returns the element being visited, or nil between visits.
func (w *Walker) Current() entity.Visitable {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Queue returns a snapshot of the elements waiting to be visited.
func (w *Walker) Queue() []entity.Visitable {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]entity.Visitable(nil), w.queue...)
}

// Visit appends targets to the end of the queue. Nil targets are ignored.
func (w *Walker) Visit(targets ...entity.Visitable) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range targets {
		if t != nil {
			w.queue = append(w.queue, t)
		}
	}
}

// VisitNodes appends nodes to the end of the queue.
func (w *Walker) VisitNodes(nodes []entity.NodeEntity) {
	targets := make([]entity.Visitable, len(nodes))
	for i, n := range nodes {
		targets[i] = n
	}
	w.Visit(targets...)
}

// Pause stops the traversal after the calling hook returns. The queue and
// the remaining hooks of the current element are kept for Resume.
func (w *Walker) Pause() { w.setControl(pause) }

// Skip abandons the remaining hooks of the current element.
func (w *Walker) Skip() { w.setControl(skip) }

// Disengage drops the queue and finishes the traversal after the calling
// hook returns.
func (w *Walker) Disengage() { w.setControl(disengage) }

func (w *Walker) setControl(c control) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.control = c
}

func (w *Walker) takeControl() control {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.control
	w.control = proceed
	return c
}

// Spawn starts a traversal at start, or at the root node when start is nil,
// and runs until the queue drains, a hook pauses or a fault stops it. A
// finished walker can be spawned again; each run starts a fresh response.
func (w *Walker) Spawn(ctx context.Context, start entity.Visitable) (*Response, error) {
	if w.self == nil {
		return nil, ErrUnbound
	}

	w.mu.Lock()
	prev := w.state
	if prev == Running || prev == Paused {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	w.state = Running
	w.mu.Unlock()

	if start == nil {
		root, err := entity.GetRoot(ctx, w.sess)
		if err != nil {
			w.mu.Lock()
			w.state = prev
			w.mu.Unlock()
			return nil, fmt.Errorf("walker '%s': load root: %w", w.id, err)
		}
		start = root
	}

	w.mu.Lock()
	w.queue = []entity.Visitable{start}
	w.current = nil
	w.pendingTarget, w.pendingHooks = nil, nil
	w.control = proceed
	w.response = newResponse()
	w.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Walker spawned.", "walker", w.id, "start", start.ID())
	return w.run(ctx), nil
}

// Resume continues a paused traversal: the remaining hooks of the element
// that paused run first, then the queue.
func (w *Walker) Resume(ctx context.Context) (*Response, error) {
	if w.self == nil {
		return nil, ErrUnbound
	}

	w.mu.Lock()
	if w.state != Paused {
		w.mu.Unlock()
		return nil, ErrNotPaused
	}
	w.state = Running
	w.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Walker resumed.", "walker", w.id, "queue", len(w.Queue()))
	return w.run(ctx), nil
}

func (w *Walker) run(ctx context.Context) *Response {
	ctx, span := startRunSpan(ctx, w.class, w.id)
	defer span.End()
	logger := ctxlog.FromContext(ctx)

	paused, fault := w.loop(ctx)
	if paused {
		w.mu.Lock()
		w.state = Paused
		w.mu.Unlock()
		logger.Debug("Walker paused.", "walker", w.id, "queue", len(w.Queue()))
		return w.Response()
	}

	final := Done
	resp := w.Response()
	if fault != nil {
		// A faulted run reports only the fault; partial hook output is dropped.
		final = Errored
		resp = newResponse()
		resp.Set(KeyStatus, 500)
		resp.Set(KeyMessage, fault.Error())
		w.mu.Lock()
		w.response = resp
		w.mu.Unlock()
		span.RecordError(fault)
		span.SetStatus(codes.Error, fault.Error())
		logger.Error("Walker faulted.", "walker", w.id, "error", fault)
	}

	// Exit hooks run once per run, also after a cancelled context.
	w.runExits(context.WithoutCancel(ctx))
	if final == Done {
		resp.setDefault(KeyStatus, 200)
	}

	w.mu.Lock()
	w.state = final
	w.queue = nil
	w.current = nil
	w.pendingTarget, w.pendingHooks = nil, nil
	w.control = proceed
	w.mu.Unlock()

	recordRun(ctx, w.class, final)
	logger.Debug("Walker finished.", "walker", w.id, "state", final.String(), "status", resp.Status())
	return resp
}

// loop consumes the queue. It reports whether a hook paused the walker, or
// the fault that stopped it.
func (w *Walker) loop(ctx context.Context) (paused bool, fault error) {
	defer func() {
		if r := recover(); r != nil {
			fault = fmt.Errorf("panic: %v", r)
		}
	}()

	if target, hooks := w.takePending(); target != nil {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		switch w.visit(ctx, target, hooks) {
		case pause:
			return true, nil
		case disengage:
			w.dropQueue()
			return false, nil
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		target, ok := w.pop()
		if !ok {
			return false, nil
		}
		switch w.visit(ctx, target, w.reg.Resolve(w.self, target)) {
		case pause:
			return true, nil
		case disengage:
			w.dropQueue()
			return false, nil
		}
	}
}

// visit runs hooks against target inside a visiting scope and returns the
// control that ended it.
func (w *Walker) visit(ctx context.Context, target entity.Visitable, hooks []*registry.Hook) control {
	w.enter(target)
	defer w.leave(target)

	for i, h := range hooks {
		w.runHook(ctx, h, target)
		switch c := w.takeControl(); c {
		case pause:
			if rest := hooks[i+1:]; len(rest) > 0 {
				w.setPending(target, rest)
			}
			return pause
		case skip, disengage:
			return c
		}
	}
	return proceed
}

func (w *Walker) enter(target entity.Visitable) {
	w.mu.Lock()
	w.current = target
	w.mu.Unlock()
	target.AttachVisitor(w.presence)
}

func (w *Walker) leave(target entity.Visitable) {
	target.DetachVisitor(w.presence)
	w.mu.Lock()
	w.current = nil
	w.mu.Unlock()
}

func (w *Walker) runHook(ctx context.Context, h *registry.Hook, target entity.Visitable) {
	targetID := ""
	if target != nil {
		targetID = target.ID()
	}
	ctx, span := startHookSpan(ctx, h.Label(), targetID)
	defer span.End()

	err := w.callHook(ctx, h, target)
	recordHook(ctx, h.Label(), err != nil)
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	w.Response().Append(KeyHookErrors, h.Label()+": "+err.Error())
	ctxlog.FromContext(ctx).Warn("Hook failed.", "walker", w.id, "hook", h.Label(), "target", targetID, "error", err)
}

func (w *Walker) callHook(ctx context.Context, h *registry.Hook, target entity.Visitable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	switch {
	case h.Exit:
		return h.Call(ctx, w.self, nil)
	case h.Owner == entityid.Walker:
		return h.Call(ctx, w.self, target)
	default:
		return h.Call(ctx, target, w.self)
	}
}

func (w *Walker) runExits(ctx context.Context) {
	for _, h := range w.reg.Exits(w.self) {
		w.runHook(ctx, h, nil)
		w.takeControl()
	}
}

func (w *Walker) pop() (entity.Visitable, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return nil, false
	}
	next := w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]
	return next, true
}

func (w *Walker) dropQueue() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.queue = nil
}

func (w *Walker) setPending(target entity.Visitable, hooks []*registry.Hook) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pendingTarget = target
	w.pendingHooks = hooks
}

func (w *Walker) takePending() (entity.Visitable, []*registry.Hook) {
	w.mu.Lock()
	defer w.mu.Unlock()
	target, hooks := w.pendingTarget, w.pendingHooks
	w.pendingTarget, w.pendingHooks = nil, nil
	return target, hooks
}
