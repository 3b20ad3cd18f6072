// Copyright 2025 NetApp, Inc. All Rights Reserved.

package eventbus

import (
	"context"
	"reflect"
	"runtime"
	"slices"
	"sync"
	"weak"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus/channel"
	"github.com/netapp/guts/pkg/eventbus/types"
	"github.com/netapp/guts/utils/errors"
)

// RegistrationHook binds subscriber objects to the channels of a service. Objects registered before the hook
// is attached are held weakly and bound, in registration order, once the service attaches.
type RegistrationHook struct {
	mu      sync.Mutex
	service *Service
	pending []pendingBind
}

// pendingBind binds a buffered registration. It holds its owner weakly only.
type pendingBind func(ctx context.Context, s *Service)

func NewRegistrationHook() *RegistrationHook {
	return &RegistrationHook{}
}

// Attach binds every buffered registration to s, then binds later registrations directly. Registrations made
// while the buffer is flushed are flushed after it, so registration order is kept.
func (h *RegistrationHook) Attach(ctx context.Context, s *Service) error {
	if s == nil {
		return errors.InvalidInputError("cannot attach registration hook to a nil service")
	}
	ctx = GenerateRequestContext(ctx, "", ContextSourceInternal, WorkflowEventRegister, LogLayerEvents)

	flushed := 0
	for {
		h.mu.Lock()
		if h.service != nil && h.service != s {
			h.mu.Unlock()
			return errors.InvalidInputError("registration hook is already attached to another service")
		}
		if len(h.pending) == 0 {
			h.service = s
			h.mu.Unlock()
			break
		}
		batch := h.pending
		h.pending = nil
		h.mu.Unlock()

		for _, bind := range batch {
			bind(ctx, s)
		}
		flushed += len(batch)
	}

	if flushed > 0 {
		Logc(ctx).WithField("registrations", flushed).Debug("Flushed buffered event registrations.")
	}
	return nil
}

// Attached reports whether a service is attached.
func (h *RegistrationHook) Attached() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.service != nil
}

// Pending returns the number of registrations waiting for a service.
func (h *RegistrationHook) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Registration is the handle of one registered owner.
type Registration struct {
	mu        sync.Mutex
	bindings  []*channel.Binding
	channels  []*channel.Channel
	scheduler types.CleanupScheduler
	bound     bool
	cancelled bool
}

// Bindings returns the number of consumers bound for the owner.
func (r *Registration) Bindings() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bindings)
}

// Bound reports whether the owner was bound to a service, even with no valid consumer.
func (r *Registration) Bound() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bound
}

// Unregister removes the owner's consumers. They stop receiving events at once and are dropped from their
// channels by the cleaner. A registration still buffered in the hook is never bound.
func (r *Registration) Unregister(ctx context.Context) {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	r.cancelled = true
	for _, b := range r.bindings {
		b.Cancel()
	}
	channels, scheduler := r.channels, r.scheduler
	r.mu.Unlock()

	for _, c := range channels {
		c.MarkForCleanup()
		if scheduler != nil {
			scheduler.Enqueue(c)
		}
	}
	if len(channels) > 0 {
		Logc(ctx).WithField("channels", len(channels)).Debug("Unregistered event owner.")
	}
}

// cleanupTarget is the argument of the owner cleanup. It must not reference the owner.
type cleanupTarget struct {
	scheduler types.CleanupScheduler
	channels  []*channel.Channel
}

func (t cleanupTarget) enqueue() {
	for _, c := range t.channels {
		c.MarkForCleanup()
		t.scheduler.Enqueue(c)
	}
}

// Register binds the consumers owner declares through types.Subscriber. The hook keeps owner reachable only
// while binding: once owner is collected its consumers stop receiving events and the cleaner removes them.
// Owners that are not subscribers get an empty registration. Invalid methods go to the service's error
// handler and are left out.
func Register[O any](ctx context.Context, hook *RegistrationHook, owner *O) (*Registration, error) {
	if hook == nil {
		return nil, errors.InvalidInputError("registration hook is nil")
	}
	if owner == nil {
		return nil, errors.InvalidInputError("cannot register a nil %s", reflect.TypeFor[*O]())
	}
	ctx = GenerateRequestContext(ctx, "", ContextSourceInternal, WorkflowEventRegister, LogLayerEvents)

	reg := &Registration{}
	if _, ok := any(owner).(types.Subscriber); !ok {
		return reg, nil
	}

	hook.mu.Lock()
	s := hook.service
	if s == nil {
		ref := weak.Make(owner)
		hook.pending = append(hook.pending, func(ctx context.Context, s *Service) {
			o := ref.Value()
			if o == nil {
				Logc(ctx).WithField("owner", reflect.TypeFor[*O]().String()).Debug(
					"Skipped buffered registration of a collected owner.")
				return
			}
			if err := bind(ctx, s, reg, o, typeSubscriptions(o)); err != nil {
				Logc(ctx).WithError(err).Warn("Could not bind buffered event registration.")
			}
		})
		hook.mu.Unlock()
		return reg, nil
	}
	hook.mu.Unlock()

	if err := bind(ctx, s, reg, owner, typeSubscriptions(owner)); err != nil {
		return nil, err
	}
	return reg, nil
}

// RegisterWith binds owner with specs instead of the specs of its type. The specs are validated on every call,
// so owners of one type may subscribe to different channels. owner need not implement types.Subscriber.
func RegisterWith[O any](
	ctx context.Context, s *Service, owner *O, specs ...types.MethodSpec,
) (*Registration, error) {
	if s == nil {
		return nil, errors.InvalidInputError("event service is nil")
	}
	if owner == nil {
		return nil, errors.InvalidInputError("cannot register a nil %s", reflect.TypeFor[*O]())
	}
	ctx = GenerateRequestContext(ctx, "", ContextSourceInternal, WorkflowEventRegister, LogLayerEvents)

	reg := &Registration{}
	extract := func(ctx context.Context, s *Service) []types.Subscription {
		return s.extractor.ExtractSpecs(ctx, reflect.TypeFor[*O](), specs)
	}
	if err := bind(ctx, s, reg, owner, extract); err != nil {
		return nil, err
	}
	return reg, nil
}

type extractFunc func(ctx context.Context, s *Service) []types.Subscription

// typeSubscriptions extracts through the per-type cache.
func typeSubscriptions[O any](owner *O) extractFunc {
	methods := any(owner).(types.Subscriber).EventMethods
	return func(ctx context.Context, s *Service) []types.Subscription {
		return s.extractor.Extract(ctx, reflect.TypeFor[*O](), methods)
	}
}

func bind[O any](ctx context.Context, s *Service, reg *Registration, owner *O, extract extractFunc) error {
	if s.Closed() {
		return errors.NotReadyError("event service is closed")
	}

	subs := extract(ctx, s)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.cancelled {
		return nil
	}
	reg.bound = true
	reg.scheduler = s.cleaner
	if len(subs) == 0 {
		return nil
	}

	ownerRef := channel.WeakOwner(owner)
	for _, sub := range subs {
		c, err := s.registry.Channel(ctx, sub.Key)
		if err != nil {
			// Extraction only keeps declared keys, and declarations are never removed.
			return err
		}
		b := channel.NewBinding(sub, ownerRef)
		c.AddSubscriber(b)
		reg.bindings = append(reg.bindings, b)
		if !slices.Contains(reg.channels, c) {
			reg.channels = append(reg.channels, c)
		}
	}

	runtime.AddCleanup(owner, cleanupTarget.enqueue, cleanupTarget{
		scheduler: s.cleaner,
		channels:  slices.Clone(reg.channels),
	})

	Logc(ctx).WithFields(LogFields{
		"owner":    reflect.TypeFor[*O]().String(),
		"bindings": len(subs),
	}).Debug("Registered event owner.")
	return nil
}
